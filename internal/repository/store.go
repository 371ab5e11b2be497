package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/partyhub/board-server/internal/game"
	"github.com/partyhub/board-server/internal/game/barrier"
	"github.com/partyhub/board-server/internal/game/board"
)

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the PostgreSQL implementation of game.Store.
type Store struct {
	logger *zap.Logger
	pool   *pgxpool.Pool
	q      querier
}

// NewStore wraps a connection pool.
func NewStore(pool *pgxpool.Pool, logger *zap.Logger) *Store {
	return &Store{logger: logger, pool: pool, q: pool}
}

// Within runs fn in one transaction; the store handed to fn routes all
// queries through that transaction.
func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx game.Store) error) error {
	if s.pool == nil {
		// Already inside a transaction; nesting reuses it.
		return fn(ctx, s)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &Store{logger: s.logger, q: tx})
	})
}

const teamColumns = `id, name, members, position, placement, bonus_die_sides, last_rolled_round, barrier_condition`

func (s *Store) GetTeam(ctx context.Context, id int64) (*board.Team, error) {
	row := s.q.QueryRow(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = $1`, id)
	team, err := scanTeam(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ErrTeamNotFound
	}
	return team, err
}

func (s *Store) ListTeams(ctx context.Context) ([]*board.Team, error) {
	rows, err := s.q.Query(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var teams []*board.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (s *Store) SaveTeam(ctx context.Context, t *board.Team) error {
	cond, err := marshalNullable(t.BarrierCondition)
	if err != nil {
		return fmt.Errorf("marshal barrier condition: %w", err)
	}
	if t.ID == 0 {
		row := s.q.QueryRow(ctx, `
			INSERT INTO teams (name, members, position, placement, bonus_die_sides, last_rolled_round, barrier_condition)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			t.Name, t.Members, t.Position, t.Placement, t.BonusDieSides, t.LastRolledRound, cond)
		return row.Scan(&t.ID)
	}
	_, err = s.q.Exec(ctx, `
		UPDATE teams
		SET name = $2, members = $3, position = $4, placement = $5,
		    bonus_die_sides = $6, last_rolled_round = $7, barrier_condition = $8
		WHERE id = $1`,
		t.ID, t.Name, t.Members, t.Position, t.Placement, t.BonusDieSides, t.LastRolledRound, cond)
	return err
}

const sessionColumns = `id, active, phase, round, turn_order, current_turn_team_id,
	content_name, content_description, played_content_ids, player_rotation, field_minigame`

func (s *Store) GetSession(ctx context.Context, id int64) (*board.GameSession, error) {
	row := s.q.QueryRow(ctx, `SELECT `+sessionColumns+` FROM game_sessions WHERE id = $1`, id)
	sess, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ErrSessionNotFound
	}
	return sess, err
}

func (s *Store) ActiveSession(ctx context.Context) (*board.GameSession, error) {
	row := s.q.QueryRow(ctx, `SELECT `+sessionColumns+` FROM game_sessions WHERE active ORDER BY id DESC LIMIT 1`)
	sess, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, game.ErrNoActiveSession
	}
	return sess, err
}

func (s *Store) SaveSession(ctx context.Context, sess *board.GameSession) error {
	rotation, err := json.Marshal(sess.PlayerRotation)
	if err != nil {
		return fmt.Errorf("marshal player rotation: %w", err)
	}
	minigame, err := marshalNullable(sess.FieldMinigame)
	if err != nil {
		return fmt.Errorf("marshal field minigame: %w", err)
	}
	if sess.ID == 0 {
		row := s.q.QueryRow(ctx, `
			INSERT INTO game_sessions (active, phase, round, turn_order, current_turn_team_id,
				content_name, content_description, played_content_ids, player_rotation, field_minigame)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id`,
			sess.Active, sess.Phase.String(), sess.Round, sess.TurnOrder, sess.CurrentTurnTeamID,
			sess.ContentName, sess.ContentDescription, sess.PlayedContentIDs, rotation, minigame)
		return row.Scan(&sess.ID)
	}
	_, err = s.q.Exec(ctx, `
		UPDATE game_sessions
		SET active = $2, phase = $3, round = $4, turn_order = $5, current_turn_team_id = $6,
		    content_name = $7, content_description = $8, played_content_ids = $9,
		    player_rotation = $10, field_minigame = $11
		WHERE id = $1`,
		sess.ID, sess.Active, sess.Phase.String(), sess.Round, sess.TurnOrder, sess.CurrentTurnTeamID,
		sess.ContentName, sess.ContentDescription, sess.PlayedContentIDs, rotation, minigame)
	return err
}

func (s *Store) AppendEvent(ctx context.Context, evt board.Event) error {
	data, err := json.Marshal(evt.Data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}
	_, err = s.q.Exec(ctx, `
		INSERT INTO events (id, type, session_id, team_id, round, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		evt.ID, string(evt.Type), evt.SessionID, evt.TeamID, evt.Round, data, evt.Timestamp)
	return err
}

func (s *Store) ListFieldConfigs(ctx context.Context) ([]board.FieldTypeConfig, error) {
	rows, err := s.q.Query(ctx, `
		SELECT field_type, enabled, frequency_type, value, min_distance, max_distance,
		       target_condition, positions
		FROM field_configs ORDER BY field_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var configs []board.FieldTypeConfig
	for rows.Next() {
		var (
			cfg       board.FieldTypeConfig
			fieldType string
			freqType  string
		)
		if err := rows.Scan(&fieldType, &cfg.Enabled, &freqType, &cfg.Value,
			&cfg.MinDistance, &cfg.MaxDistance, &cfg.TargetCondition, &cfg.Positions); err != nil {
			return nil, err
		}
		if cfg.Type, err = board.ParseFieldType(fieldType); err != nil {
			s.logger.Warn("skipping field config with unknown type", zap.String("field_type", fieldType))
			continue
		}
		if cfg.Frequency, err = board.ParseFrequencyType(freqType); err != nil {
			s.logger.Warn("skipping field config with unknown frequency", zap.String("frequency", freqType))
			continue
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// SaveFieldConfig upserts one field configuration. Callers must invalidate
// the distribution cache afterwards.
func (s *Store) SaveFieldConfig(ctx context.Context, cfg board.FieldTypeConfig) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO field_configs (field_type, enabled, frequency_type, value,
			min_distance, max_distance, target_condition, positions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (field_type) DO UPDATE
		SET enabled = $2, frequency_type = $3, value = $4, min_distance = $5,
		    max_distance = $6, target_condition = $7, positions = $8`,
		cfg.Type.String(), cfg.Enabled, cfg.Frequency.String(), cfg.Value,
		cfg.MinDistance, cfg.MaxDistance, cfg.TargetCondition, cfg.Positions)
	return err
}

func scanTeam(row pgx.Row) (*board.Team, error) {
	var (
		t    board.Team
		cond []byte
	)
	if err := row.Scan(&t.ID, &t.Name, &t.Members, &t.Position, &t.Placement,
		&t.BonusDieSides, &t.LastRolledRound, &cond); err != nil {
		return nil, err
	}
	if len(cond) > 0 {
		var c barrier.Condition
		if err := json.Unmarshal(cond, &c); err != nil {
			return nil, fmt.Errorf("parse barrier condition: %w", err)
		}
		t.BarrierCondition = &c
	}
	return &t, nil
}

func scanSession(row pgx.Row) (*board.GameSession, error) {
	var (
		sess     board.GameSession
		phase    string
		rotation []byte
		minigame []byte
	)
	if err := row.Scan(&sess.ID, &sess.Active, &phase, &sess.Round, &sess.TurnOrder,
		&sess.CurrentTurnTeamID, &sess.ContentName, &sess.ContentDescription,
		&sess.PlayedContentIDs, &rotation, &minigame); err != nil {
		return nil, err
	}
	var err error
	if sess.Phase, err = board.ParsePhase(phase); err != nil {
		return nil, err
	}
	if len(rotation) > 0 {
		if err := json.Unmarshal(rotation, &sess.PlayerRotation); err != nil {
			return nil, fmt.Errorf("parse player rotation: %w", err)
		}
	}
	if len(minigame) > 0 {
		var fm board.FieldMinigameState
		if err := json.Unmarshal(minigame, &fm); err != nil {
			return nil, fmt.Errorf("parse field minigame: %w", err)
		}
		sess.FieldMinigame = &fm
	}
	return &sess, nil
}

func marshalNullable(v any) ([]byte, error) {
	switch val := v.(type) {
	case *barrier.Condition:
		if val == nil {
			return nil, nil
		}
	case *board.FieldMinigameState:
		if val == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
