package game

import (
	"context"

	"github.com/partyhub/board-server/internal/game/board"
)

// Store is the persistence boundary of the engine. The pgx repository
// implements it for production; tests use an in-memory fake.
type Store interface {
	GetTeam(ctx context.Context, id int64) (*board.Team, error)
	ListTeams(ctx context.Context) ([]*board.Team, error)
	SaveTeam(ctx context.Context, team *board.Team) error

	GetSession(ctx context.Context, id int64) (*board.GameSession, error)
	ActiveSession(ctx context.Context) (*board.GameSession, error)
	SaveSession(ctx context.Context, session *board.GameSession) error

	AppendEvent(ctx context.Context, evt board.Event) error

	ListFieldConfigs(ctx context.Context) ([]board.FieldTypeConfig, error)

	// Within runs fn inside one transaction. All reads and writes of a
	// mutating engine operation go through the transactional store handed
	// to fn; an error from fn rolls the whole action back.
	Within(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
