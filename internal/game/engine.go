// Package game implements the turn and dice state machine driving a
// session: content announcement, placement bonuses, dice rolls with field
// effects, barrier release, mini-game interludes and victory detection.
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/partyhub/board-server/internal/game/board"
	"github.com/partyhub/board-server/internal/game/effects"
	"github.com/partyhub/board-server/internal/game/field"
)

// Config carries the tunable game parameters.
type Config struct {
	BoardSize int

	// Bonus die sides granted by mini-game placement, applied only when
	// the team also answered correctly.
	PlacementBonusDice map[int]int

	// Fields a field mini-game winner moves forward.
	MinigameReward int

	// Players drawn per team for a field mini-game.
	MinigamePlayersPerTeam int
}

// DefaultConfig returns the standard 73-field setup.
func DefaultConfig() Config {
	return Config{
		BoardSize:              73,
		PlacementBonusDice:     map[int]int{1: 6, 2: 4, 3: 2},
		MinigameReward:         5,
		MinigamePlayersPerTeam: 1,
	}
}

// Engine orchestrates all game mutations. One instance serves the whole
// process; every operation revalidates persistent state inside its own
// transaction, so concurrent requests cannot act on stale phase or turn.
type Engine struct {
	logger   *zap.Logger
	store    Store
	bus      *board.EventBus
	resolver *field.Resolver
	cache    *field.Cache
	effects  *effects.Registry
	content  effects.ContentLister
	rng      *rand.Rand
	cfg      Config
}

// lockedSource serializes draws from the injected random source. The
// resolver, the effect handlers and the dice rolls all share one stream,
// and math/rand.Rand is not safe for concurrent use.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Int63()
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Seed(seed)
}

// NewEngine wires the engine. The random source is injected so tests can
// run deterministically; production passes a time-seeded source.
func NewEngine(store Store, content effects.ContentLister, cfg Config, rng *rand.Rand, logger *zap.Logger) *Engine {
	if cfg.BoardSize < 2 {
		cfg = DefaultConfig()
	}
	rng = rand.New(&lockedSource{rng: rng})
	return &Engine{
		logger:   logger,
		store:    store,
		bus:      board.NewEventBus(),
		resolver: field.NewResolver(logger, rng),
		cache:    field.NewCache(),
		effects:  effects.NewRegistry(logger, rng, content),
		content:  content,
		rng:      rng,
		cfg:      cfg,
	}
}

// Bus exposes the event bus for read-side subscribers.
func (e *Engine) Bus() *board.EventBus { return e.bus }

// BoardSize returns the configured track length.
func (e *Engine) BoardSize() int { return e.cfg.BoardSize }

// Distribution returns the cached field distribution for the board size,
// computing it from the stored field configs on a miss.
func (e *Engine) Distribution(ctx context.Context, size int) (*field.Distribution, error) {
	if d, ok := e.cache.Get(size); ok {
		return d, nil
	}
	configs, err := e.store.ListFieldConfigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load field configs: %w", err)
	}
	d := e.resolver.Compute(configs, size)
	e.cache.Set(d)
	return d, nil
}

// FieldTypeAt returns the field type at a position on the configured board.
func (e *Engine) FieldTypeAt(ctx context.Context, pos int) (board.FieldType, error) {
	d, err := e.Distribution(ctx, e.cfg.BoardSize)
	if err != nil {
		return board.FieldNormal, err
	}
	return d.Type(pos), nil
}

// InvalidateDistribution drops all cached distributions. Must be called
// after any field configuration write.
func (e *Engine) InvalidateDistribution() {
	e.cache.Invalidate()
	e.bus.Publish(board.NewEvent(board.EventBoardRegenerated, 0, 0, 0))
	e.logger.Info("field distribution cache invalidated")
}

// CreateSession returns the active session, creating one in SETUP when
// none exists.
func (e *Engine) CreateSession(ctx context.Context) (*board.GameSession, error) {
	var out *board.GameSession
	err := e.store.Within(ctx, func(ctx context.Context, tx Store) error {
		if s, err := tx.ActiveSession(ctx); err == nil {
			out = s
			return nil
		} else if !errors.Is(err, ErrNoActiveSession) {
			return err
		}
		s := &board.GameSession{
			Active: true,
			Phase:  board.PhaseSetup,
		}
		if err := tx.SaveSession(ctx, s); err != nil {
			return err
		}
		evt := board.NewEvent(board.EventSessionStarted, s.ID, 0, 0)
		if err := tx.AppendEvent(ctx, evt); err != nil {
			return err
		}
		e.bus.Publish(evt)
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveSession returns the currently active session.
func (e *Engine) ActiveSession(ctx context.Context) (*board.GameSession, error) {
	return e.store.ActiveSession(ctx)
}

// EndSession deactivates a session.
func (e *Engine) EndSession(ctx context.Context, sessionID int64) error {
	return e.store.Within(ctx, func(ctx context.Context, tx Store) error {
		s, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		s.Active = false
		s.Phase = board.PhaseFinished
		if err := tx.SaveSession(ctx, s); err != nil {
			return err
		}
		evt := board.NewEvent(board.EventSessionEnded, s.ID, 0, s.Round)
		if err := tx.AppendEvent(ctx, evt); err != nil {
			return err
		}
		e.bus.Publish(evt)
		return nil
	})
}

// AnnounceContent publishes the next mini-game or question to the teams.
// Question rounds go straight to QUESTION_ACTIVE, others to
// CONTENT_ANNOUNCED; both await RecordPlacements.
func (e *Engine) AnnounceContent(ctx context.Context, sessionID int64, name, description string, question bool) error {
	var violation error
	err := e.store.Within(ctx, func(ctx context.Context, tx Store) error {
		s, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.Phase != board.PhaseSetup && s.Phase != board.PhaseRoundOver {
			violation = ErrWrongPhase
			return e.reject(ctx, tx, s, 0, violation, "announce_content")
		}
		s.ContentName = name
		s.ContentDescription = description
		eventType := board.EventContentAnnounced
		if question {
			s.Phase = board.PhaseQuestionActive
			eventType = board.EventQuestionAsked
		} else {
			s.Phase = board.PhaseContentAnnounced
		}
		if err := tx.SaveSession(ctx, s); err != nil {
			return err
		}
		evt := board.NewEvent(eventType, s.ID, 0, s.Round)
		evt.Data["content_name"] = name
		if err := tx.AppendEvent(ctx, evt); err != nil {
			return err
		}
		e.bus.Publish(evt)
		e.logger.Info("content announced",
			zap.Int64("session_id", s.ID),
			zap.String("content", name),
			zap.Bool("question", question))
		return nil
	})
	if err != nil {
		return err
	}
	return violation
}

// Placement is one team's result in the announced mini-game or question.
type Placement struct {
	TeamID  int64
	Place   int // 1-based rank
	Correct bool
}

// RecordPlacements stores the mini-game outcome, hands out bonus dice for
// correct answers, derives the roll order from the ranking and starts the
// dice round.
func (e *Engine) RecordPlacements(ctx context.Context, sessionID int64, placements []Placement) error {
	var violation error
	err := e.store.Within(ctx, func(ctx context.Context, tx Store) error {
		s, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.Phase != board.PhaseContentAnnounced && s.Phase != board.PhaseQuestionActive {
			violation = ErrWrongPhase
			return e.reject(ctx, tx, s, 0, violation, "record_placements")
		}

		ordered := make([]Placement, len(placements))
		copy(ordered, placements)
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Place < ordered[j].Place })

		s.TurnOrder = s.TurnOrder[:0]
		for _, p := range ordered {
			team, err := tx.GetTeam(ctx, p.TeamID)
			if err != nil {
				return err
			}
			team.Placement = p.Place
			team.BonusDieSides = 0
			if p.Correct {
				team.BonusDieSides = e.cfg.PlacementBonusDice[p.Place]
			}
			if err := tx.SaveTeam(ctx, team); err != nil {
				return err
			}
			s.TurnOrder = append(s.TurnOrder, p.TeamID)

			if team.BonusDieSides > 0 {
				evt := board.NewEvent(board.EventBonusDieAwarded, s.ID, team.ID, s.Round)
				evt.Data["sides"] = team.BonusDieSides
				evt.Data["placement"] = p.Place
				if err := tx.AppendEvent(ctx, evt); err != nil {
					return err
				}
				e.bus.Publish(evt)
			}
		}

		recorded := board.NewEvent(board.EventPlacementsRecorded, s.ID, 0, s.Round)
		ranks := make([]map[string]any, 0, len(ordered))
		for _, p := range ordered {
			ranks = append(ranks, map[string]any{
				"team_id": p.TeamID,
				"place":   p.Place,
				"correct": p.Correct,
			})
		}
		recorded.Data["placements"] = ranks
		if err := tx.AppendEvent(ctx, recorded); err != nil {
			return err
		}
		e.bus.Publish(recorded)

		s.Round++
		s.Phase = board.PhaseDiceRolling
		if len(s.TurnOrder) > 0 {
			s.CurrentTurnTeamID = s.TurnOrder[0]
		}
		if err := tx.SaveSession(ctx, s); err != nil {
			return err
		}

		evt := board.NewEvent(board.EventDiceRoundStarted, s.ID, 0, s.Round)
		evt.Data["turn_order"] = s.TurnOrder
		if err := tx.AppendEvent(ctx, evt); err != nil {
			return err
		}
		e.bus.Publish(evt)
		e.logger.Info("dice round started",
			zap.Int64("session_id", s.ID),
			zap.Int("round", s.Round),
			zap.Int64s("turn_order", s.TurnOrder))
		return nil
	})
	if err != nil {
		return err
	}
	return violation
}

// StartNextRound returns a finished round to the setup phase.
func (e *Engine) StartNextRound(ctx context.Context, sessionID int64) error {
	var violation error
	err := e.store.Within(ctx, func(ctx context.Context, tx Store) error {
		s, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.Phase != board.PhaseRoundOver {
			violation = ErrWrongPhase
			return e.reject(ctx, tx, s, 0, violation, "start_next_round")
		}
		s.Phase = board.PhaseSetup
		s.ContentName = ""
		s.ContentDescription = ""
		s.TurnOrder = nil
		s.CurrentTurnTeamID = 0
		return tx.SaveSession(ctx, s)
	})
	if err != nil {
		return err
	}
	return violation
}

// UnblockTeam clears a team's barrier without evaluating its condition.
// Administrative override.
func (e *Engine) UnblockTeam(ctx context.Context, teamID int64) error {
	return e.store.Within(ctx, func(ctx context.Context, tx Store) error {
		team, err := tx.GetTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if !team.Blocked() {
			return nil
		}
		team.Unblock()
		if err := tx.SaveTeam(ctx, team); err != nil {
			return err
		}
		s, err := tx.ActiveSession(ctx)
		var sessionID int64
		var round int
		if err == nil {
			sessionID = s.ID
			round = s.Round
		}
		evt := board.NewEvent(board.EventBarrierReleased, sessionID, teamID, round)
		evt.Data["admin_override"] = true
		if err := tx.AppendEvent(ctx, evt); err != nil {
			return err
		}
		e.bus.Publish(evt)
		e.logger.Info("team unblocked by admin", zap.Int64("team_id", teamID))
		return nil
	})
}

// reject records a refused mutating attempt in the audit trail. Callers
// stash the violation and return nil from the transaction closure so the
// audit event commits even though the action itself is refused.
func (e *Engine) reject(ctx context.Context, tx Store, s *board.GameSession, teamID int64, cause error, action string) error {
	evt := board.NewEvent(board.EventTurnRejected, s.ID, teamID, s.Round)
	evt.Data["action"] = action
	evt.Data["reason"] = cause.Error()
	evt.Data["phase"] = s.Phase.String()
	if err := tx.AppendEvent(ctx, evt); err != nil {
		return err
	}
	e.bus.Publish(evt)
	e.logger.Warn("action rejected",
		zap.Int64("session_id", s.ID),
		zap.Int64("team_id", teamID),
		zap.String("action", action),
		zap.Error(cause))
	return nil
}
