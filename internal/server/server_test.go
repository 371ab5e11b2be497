package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/partyhub/board-server/internal/game"
	"github.com/partyhub/board-server/internal/game/board"
)

type fakeStore struct {
	teams    map[int64]*board.Team
	sessions map[int64]*board.GameSession
	events   []board.Event
	configs  []board.FieldTypeConfig
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		teams:    make(map[int64]*board.Team),
		sessions: make(map[int64]*board.GameSession),
		nextID:   1,
	}
}

func (f *fakeStore) GetTeam(_ context.Context, id int64) (*board.Team, error) {
	t, ok := f.teams[id]
	if !ok {
		return nil, game.ErrTeamNotFound
	}
	return t, nil
}

func (f *fakeStore) ListTeams(_ context.Context) ([]*board.Team, error) {
	ids := make([]int64, 0, len(f.teams))
	for id := range f.teams {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*board.Team, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.teams[id])
	}
	return out, nil
}

func (f *fakeStore) SaveTeam(_ context.Context, t *board.Team) error {
	f.teams[t.ID] = t
	return nil
}

func (f *fakeStore) GetSession(_ context.Context, id int64) (*board.GameSession, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, game.ErrSessionNotFound
	}
	return s, nil
}

func (f *fakeStore) ActiveSession(_ context.Context) (*board.GameSession, error) {
	for _, s := range f.sessions {
		if s.Active {
			return s, nil
		}
	}
	return nil, game.ErrNoActiveSession
}

func (f *fakeStore) SaveSession(_ context.Context, s *board.GameSession) error {
	if s.ID == 0 {
		s.ID = f.nextID
		f.nextID++
	}
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeStore) AppendEvent(_ context.Context, evt board.Event) error {
	f.events = append(f.events, evt)
	return nil
}

func (f *fakeStore) ListFieldConfigs(_ context.Context) ([]board.FieldTypeConfig, error) {
	return f.configs, nil
}

func (f *fakeStore) Within(ctx context.Context, fn func(ctx context.Context, tx game.Store) error) error {
	return fn(ctx, f)
}

type fakeContent struct{}

func (fakeContent) ListAvailable([]string) ([]string, error) {
	return []string{"mg1"}, nil
}

func newTestServer(t *testing.T, store *fakeStore) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := game.NewEngine(store, fakeContent{}, game.DefaultConfig(),
		rand.New(rand.NewSource(1)), zap.NewNop())
	return New(engine, zap.NewNop())
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	store := newFakeStore()
	store.teams[1] = &board.Team{ID: 1, Name: "Red"}
	store.teams[2] = &board.Team{ID: 2, Name: "Blue"}
	srv := newTestServer(t, store)

	w := doJSON(t, srv, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var created struct {
		ID    int64  `json:"id"`
		Phase string `json:"phase"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "SETUP", created.Phase)

	w = doJSON(t, srv, http.MethodPost, "/api/sessions/1/content",
		gin.H{"name": "beer pong", "description": "first to three"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodPost, "/api/sessions/1/placements", gin.H{
		"placements": []gin.H{
			{"team_id": 1, "place": 1, "correct": true},
			{"team_id": 2, "place": 2},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, http.MethodGet, "/api/sessions/active", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var active struct {
		Phase       string `json:"phase"`
		CurrentTeam int64  `json:"current_turn_team_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &active))
	assert.Equal(t, "DICE_ROLLING", active.Phase)
	assert.Equal(t, int64(1), active.CurrentTeam)
}

func TestRollErrorMapping(t *testing.T) {
	store := newFakeStore()
	store.teams[1] = &board.Team{ID: 1, Name: "Red"}
	store.teams[2] = &board.Team{ID: 2, Name: "Blue"}
	srv := newTestServer(t, store)

	doJSON(t, srv, http.MethodPost, "/api/sessions", nil)
	doJSON(t, srv, http.MethodPost, "/api/sessions/1/content", gin.H{"name": "quiz"})
	doJSON(t, srv, http.MethodPost, "/api/sessions/1/placements", gin.H{
		"placements": []gin.H{
			{"team_id": 1, "place": 1},
			{"team_id": 2, "place": 2},
		},
	})

	// Unknown session: validation, 404.
	w := doJSON(t, srv, http.MethodPost, "/api/sessions/99/roll", gin.H{"team_id": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Out of turn: violation, 409.
	w = doJSON(t, srv, http.MethodPost, "/api/sessions/1/roll", gin.H{"team_id": 2})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Malformed body: 400.
	w = doJSON(t, srv, http.MethodPost, "/api/sessions/1/roll", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Valid roll.
	w = doJSON(t, srv, http.MethodPost, "/api/sessions/1/roll", gin.H{"team_id": 1})
	require.Equal(t, http.StatusOK, w.Code)
	var result game.RollResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.GreaterOrEqual(t, result.Standard, 1)
	assert.LessOrEqual(t, result.Standard, 6)

	// Second roll in the same round: 409.
	store.sessions[1].CurrentTurnTeamID = 1
	w = doJSON(t, srv, http.MethodPost, "/api/sessions/1/roll", gin.H{"team_id": 1})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBoardEndpoints(t *testing.T) {
	store := newFakeStore()
	store.configs = []board.FieldTypeConfig{{
		Type:      board.FieldBarrier,
		Enabled:   true,
		Frequency: board.FreqFixedPositions,
		Positions: []int{7},
	}}
	srv := newTestServer(t, store)

	w := doJSON(t, srv, http.MethodGet, "/api/board", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dist struct {
		Size   int               `json:"size"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dist))
	assert.Equal(t, 73, dist.Size)
	assert.Equal(t, "start", dist.Fields["0"])
	assert.Equal(t, "goal", dist.Fields["72"])
	assert.Equal(t, "barrier", dist.Fields["7"])

	w = doJSON(t, srv, http.MethodGet, "/api/board/fields/7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "barrier")

	w = doJSON(t, srv, http.MethodPost, "/api/board/invalidate", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnblockUnknownTeam(t *testing.T) {
	srv := newTestServer(t, newFakeStore())
	w := doJSON(t, srv, http.MethodPost, "/api/teams/42/unblock", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
