package game

import (
	"context"
	"sort"

	"github.com/partyhub/board-server/internal/game/board"
)

// memStore is the in-memory Store used by the engine tests.
type memStore struct {
	teams    map[int64]*board.Team
	sessions map[int64]*board.GameSession
	events   []board.Event
	configs  []board.FieldTypeConfig
	nextID   int64
}

func newMemStore() *memStore {
	return &memStore{
		teams:    make(map[int64]*board.Team),
		sessions: make(map[int64]*board.GameSession),
		nextID:   1,
	}
}

func (m *memStore) GetTeam(_ context.Context, id int64) (*board.Team, error) {
	t, ok := m.teams[id]
	if !ok {
		return nil, ErrTeamNotFound
	}
	return t, nil
}

func (m *memStore) ListTeams(_ context.Context) ([]*board.Team, error) {
	ids := make([]int64, 0, len(m.teams))
	for id := range m.teams {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*board.Team, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.teams[id])
	}
	return out, nil
}

func (m *memStore) SaveTeam(_ context.Context, t *board.Team) error {
	m.teams[t.ID] = t
	return nil
}

func (m *memStore) GetSession(_ context.Context, id int64) (*board.GameSession, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *memStore) ActiveSession(_ context.Context) (*board.GameSession, error) {
	for _, s := range m.sessions {
		if s.Active {
			return s, nil
		}
	}
	return nil, ErrNoActiveSession
}

func (m *memStore) SaveSession(_ context.Context, s *board.GameSession) error {
	if s.ID == 0 {
		s.ID = m.nextID
		m.nextID++
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *memStore) AppendEvent(_ context.Context, evt board.Event) error {
	m.events = append(m.events, evt)
	return nil
}

func (m *memStore) ListFieldConfigs(_ context.Context) ([]board.FieldTypeConfig, error) {
	return m.configs, nil
}

func (m *memStore) Within(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return fn(ctx, m)
}

func (m *memStore) eventsOfType(t board.EventType) []board.Event {
	var out []board.Event
	for _, evt := range m.events {
		if evt.Type == t {
			out = append(out, evt)
		}
	}
	return out
}
