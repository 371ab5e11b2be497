// Package effects implements the per-field-type handlers invoked when a
// team lands on a special field after movement.
package effects

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/partyhub/board-server/internal/game/barrier"
	"github.com/partyhub/board-server/internal/game/board"
)

// DiceInfo carries the dice movement that brought the team onto the field.
type DiceInfo struct {
	Standard    int
	Bonus       int
	Total       int
	OldPosition int
	NewPosition int
}

// Request bundles everything a handler may touch.
type Request struct {
	Team      *board.Team
	AllTeams  []*board.Team
	Session   *board.GameSession
	Dice      DiceInfo
	Config    board.FieldTypeConfig
	BoardSize int
}

// Outcome describes what a handler did. Events are appended to the audit
// trail by the caller; handlers never persist anything themselves.
type Outcome struct {
	Success          bool
	FieldType        board.FieldType
	Description      string
	Events           []board.Event
	AvailableContent []string // set by the mini-game trigger only
}

// Handler applies one field type's effect to the acting team.
type Handler func(req *Request) (*Outcome, error)

// ContentLister exposes not-yet-played mini-game content. Implemented by
// the content catalog.
type ContentLister interface {
	ListAvailable(excludeIDs []string) ([]string, error)
}

// Registry maps field types to their handlers.
type Registry struct {
	logger   *zap.Logger
	rng      *rand.Rand
	content  ContentLister
	handlers map[board.FieldType]Handler
}

// NewRegistry builds the dispatch table for all special field types.
func NewRegistry(logger *zap.Logger, rng *rand.Rand, content ContentLister) *Registry {
	r := &Registry{
		logger:  logger,
		rng:     rng,
		content: content,
	}
	r.handlers = map[board.FieldType]Handler{
		board.FieldCatapultForward:  r.catapultForward,
		board.FieldCatapultBackward: r.catapultBackward,
		board.FieldPlayerSwap:       r.playerSwap,
		board.FieldBarrier:          r.setBarrier,
		board.FieldMinigame:         r.triggerMinigame,
	}
	return r
}

// Lookup returns the handler for the field type, or nil for types without
// an effect (normal, start, goal).
func (r *Registry) Lookup(ft board.FieldType) Handler {
	return r.handlers[ft]
}

func clampPosition(p, size int) int {
	if p < 0 {
		return 0
	}
	if p > size-1 {
		return size - 1
	}
	return p
}

func (r *Registry) catapultForward(req *Request) (*Outcome, error) {
	return r.catapult(req, board.FieldCatapultForward, 1)
}

func (r *Registry) catapultBackward(req *Request) (*Outcome, error) {
	return r.catapult(req, board.FieldCatapultBackward, -1)
}

func (r *Registry) catapult(req *Request, ft board.FieldType, sign int) (*Outcome, error) {
	min, max := req.Config.MinDistance, req.Config.MaxDistance
	if max < min {
		max = min
	}
	distance := min
	if max > min {
		distance += r.rng.Intn(max - min + 1)
	}

	oldPos := req.Team.Position
	newPos := clampPosition(oldPos+sign*distance, req.BoardSize)
	req.Team.Position = newPos

	eventType := board.EventCatapultForward
	if sign < 0 {
		eventType = board.EventCatapultBackward
	}
	evt := board.NewEvent(eventType, req.Session.ID, req.Team.ID, req.Session.Round)
	evt.Data["distance"] = distance
	evt.Data["catapult_old_position"] = oldPos
	evt.Data["catapult_new_position"] = newPos
	evt.Data["dice_old_position"] = req.Dice.OldPosition
	evt.Data["dice_new_position"] = req.Dice.NewPosition

	r.logger.Info("catapult applied",
		zap.String("field_type", ft.String()),
		zap.Int64("team_id", req.Team.ID),
		zap.Int("distance", distance),
		zap.Int("new_position", newPos))

	direction := "forward"
	if sign < 0 {
		direction = "back"
	}
	return &Outcome{
		Success:     true,
		FieldType:   ft,
		Description: fmt.Sprintf("%s is catapulted %d fields %s", req.Team.Name, distance, direction),
		Events:      []board.Event{evt},
	}, nil
}

func (r *Registry) playerSwap(req *Request) (*Outcome, error) {
	minDist := req.Config.MinDistance
	var candidates []*board.Team
	for _, other := range req.AllTeams {
		if other.ID == req.Team.ID {
			continue
		}
		d := other.Position - req.Team.Position
		if d < 0 {
			d = -d
		}
		if d >= minDist {
			candidates = append(candidates, other)
		}
	}
	if len(candidates) == 0 {
		for _, other := range req.AllTeams {
			if other.ID != req.Team.ID && other.Position != req.Team.Position {
				candidates = append(candidates, other)
			}
		}
	}
	if len(candidates) == 0 {
		return &Outcome{
			Success:     false,
			FieldType:   board.FieldPlayerSwap,
			Description: "no team available to swap with",
		}, nil
	}

	partner := candidates[r.rng.Intn(len(candidates))]
	req.Team.Position, partner.Position = partner.Position, req.Team.Position

	events := make([]board.Event, 0, 2)
	for _, pair := range []struct {
		team  *board.Team
		other *board.Team
	}{{req.Team, partner}, {partner, req.Team}} {
		evt := board.NewEvent(board.EventPlayerSwap, req.Session.ID, pair.team.ID, req.Session.Round)
		evt.Data["swapped_with_team_id"] = pair.other.ID
		evt.Data["new_position"] = pair.team.Position
		events = append(events, evt)
	}

	r.logger.Info("teams swapped positions",
		zap.Int64("team_id", req.Team.ID),
		zap.Int64("partner_id", partner.ID))
	return &Outcome{
		Success:     true,
		FieldType:   board.FieldPlayerSwap,
		Description: fmt.Sprintf("%s swaps positions with %s", req.Team.Name, partner.Name),
		Events:      events,
	}, nil
}

func (r *Registry) setBarrier(req *Request) (*Outcome, error) {
	cond := barrier.Default()
	if req.Config.TargetCondition != "" {
		cond = barrier.Parse(req.Config.TargetCondition)
	}
	req.Team.Block(cond)

	evt := board.NewEvent(board.EventBarrierRaised, req.Session.ID, req.Team.ID, req.Session.Round)
	evt.Data["condition"] = cond.Display
	evt.Data["position"] = req.Team.Position

	r.logger.Info("barrier set",
		zap.Int64("team_id", req.Team.ID),
		zap.String("condition", cond.Display))
	return &Outcome{
		Success:     true,
		FieldType:   board.FieldBarrier,
		Description: fmt.Sprintf("%s is blocked, needs %s to continue", req.Team.Name, cond.Display),
		Events:      []board.Event{evt},
	}, nil
}

// triggerMinigame suspends the dice round. The admin picks a content id
// out of the returned candidates before play resumes.
func (r *Registry) triggerMinigame(req *Request) (*Outcome, error) {
	available, err := r.content.ListAvailable(req.Session.PlayedContentIDs)
	if err != nil {
		return nil, fmt.Errorf("list field minigame content: %w", err)
	}

	next, _ := req.Session.NextInTurnOrder(req.Team.ID)
	req.Session.Phase = board.PhaseFieldMinigamePending
	req.Session.FieldMinigame = &board.FieldMinigameState{
		LandingTeamID: req.Team.ID,
		NextTeamID:    next,
	}

	evt := board.NewEvent(board.EventFieldMinigameTriggered, req.Session.ID, req.Team.ID, req.Session.Round)
	evt.Data["available_count"] = len(available)

	r.logger.Info("field minigame triggered",
		zap.Int64("team_id", req.Team.ID),
		zap.Int("available_content", len(available)))
	return &Outcome{
		Success:          true,
		FieldType:        board.FieldMinigame,
		Description:      fmt.Sprintf("%s landed on a minigame field", req.Team.Name),
		Events:           []board.Event{evt},
		AvailableContent: available,
	}, nil
}
