package game

import (
	"context"

	"go.uber.org/zap"

	"github.com/partyhub/board-server/internal/game/board"
	"github.com/partyhub/board-server/internal/game/effects"
)

// RollResult reports everything a single dice action did.
type RollResult struct {
	TeamID   int64 `json:"team_id"`
	Standard int   `json:"standard"`
	Bonus    int   `json:"bonus"`
	Total    int   `json:"total"`

	OldPosition int `json:"old_position"`
	NewPosition int `json:"new_position"`

	// Barrier outcome. Blocked means the roll was consumed by a failed
	// release attempt; Released means the barrier opened this roll.
	Blocked  bool `json:"blocked"`
	Released bool `json:"released"`

	// Victory is set when a team already at the goal rolls a total of at
	// least six. NeedsFinalRoll marks a team sitting at the goal whose
	// roll fell short.
	Victory        bool `json:"victory"`
	NeedsFinalRoll bool `json:"needs_final_roll"`

	FieldType   string           `json:"field_type"`
	FieldEffect *effects.Outcome `json:"field_effect,omitempty"`

	NextTeamID int64 `json:"next_team_id"`
	RoundOver  bool  `json:"round_over"`
}

// RollForTeam performs one dice action for the team: validates turn
// ownership and the per-round roll guard, computes standard plus bonus
// dice, handles barrier release, applies movement and the landing field's
// effect, detects victory and advances the turn. The whole action runs in
// one transaction.
func (e *Engine) RollForTeam(ctx context.Context, sessionID, teamID int64) (*RollResult, error) {
	var result *RollResult
	var violation error
	err := e.store.Within(ctx, func(ctx context.Context, tx Store) error {
		s, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		team, err := tx.GetTeam(ctx, teamID)
		if err != nil {
			return err
		}

		if s.Phase != board.PhaseDiceRolling {
			violation = ErrWrongPhase
			return e.reject(ctx, tx, s, teamID, violation, "roll")
		}
		if s.CurrentTurnTeamID != teamID {
			violation = ErrNotYourTurn
			return e.reject(ctx, tx, s, teamID, violation, "roll")
		}
		if team.LastRolledRound >= s.Round {
			violation = ErrAlreadyRolled
			return e.reject(ctx, tx, s, teamID, violation, "roll")
		}

		standard := e.rng.Intn(6) + 1
		bonus := 0
		if team.BonusDieSides > 0 {
			bonus = e.rng.Intn(team.BonusDieSides) + 1
		}
		total := standard + bonus
		// The bonus die is consumed by this roll no matter the outcome.
		team.BonusDieSides = 0
		team.LastRolledRound = s.Round

		result = &RollResult{
			TeamID:      teamID,
			Standard:    standard,
			Bonus:       bonus,
			Total:       total,
			OldPosition: team.Position,
			NewPosition: team.Position,
		}

		rollEvt := board.NewEvent(board.EventDiceRolled, s.ID, teamID, s.Round)
		rollEvt.Data["standard"] = standard
		rollEvt.Data["bonus"] = bonus
		rollEvt.Data["total"] = total
		events := []board.Event{rollEvt}

		if team.Blocked() {
			if !team.BarrierCondition.Satisfied(total) {
				result.Blocked = true
				evt := board.NewEvent(board.EventBarrierBlocked, s.ID, teamID, s.Round)
				evt.Data["total"] = total
				evt.Data["condition"] = team.BarrierCondition.Display
				events = append(events, evt)

				e.advanceTurn(s, teamID, result, &events)
				return e.commitRoll(ctx, tx, s, team, result, events)
			}
			team.Unblock()
			result.Released = true
			evt := board.NewEvent(board.EventBarrierReleased, s.ID, teamID, s.Round)
			evt.Data["total"] = total
			events = append(events, evt)
		}

		goal := e.cfg.BoardSize - 1
		if team.Position == goal {
			// Departing the goal needs a total of at least six; reaching
			// it earlier was not the win.
			if total >= 6 {
				result.Victory = true
				s.Phase = board.PhaseFinished
				s.CurrentTurnTeamID = 0
				evt := board.NewEvent(board.EventGameWon, s.ID, teamID, s.Round)
				evt.Data["total"] = total
				events = append(events, evt)
				e.logger.Info("game won",
					zap.Int64("session_id", s.ID),
					zap.Int64("team_id", teamID))
				return e.commitRoll(ctx, tx, s, team, result, events)
			}
			result.NeedsFinalRoll = true
			e.advanceTurn(s, teamID, result, &events)
			return e.commitRoll(ctx, tx, s, team, result, events)
		}

		newPos := team.Position + total
		if newPos > goal {
			newPos = goal
		}
		team.Position = newPos
		result.NewPosition = newPos

		moveEvt := board.NewEvent(board.EventTeamMoved, s.ID, teamID, s.Round)
		moveEvt.Data["old_position"] = result.OldPosition
		moveEvt.Data["new_position"] = newPos
		events = append(events, moveEvt)

		dist, err := e.Distribution(ctx, e.cfg.BoardSize)
		if err != nil {
			return err
		}
		ft := dist.Type(newPos)
		result.FieldType = ft.String()

		if handler := e.effects.Lookup(ft); handler != nil {
			allTeams, err := tx.ListTeams(ctx)
			if err != nil {
				return err
			}
			cfg, err := e.fieldConfig(ctx, tx, ft)
			if err != nil {
				return err
			}
			outcome, err := handler(&effects.Request{
				Team:     team,
				AllTeams: allTeams,
				Session:  s,
				Dice: effects.DiceInfo{
					Standard:    standard,
					Bonus:       bonus,
					Total:       total,
					OldPosition: result.OldPosition,
					NewPosition: newPos,
				},
				Config:    cfg,
				BoardSize: e.cfg.BoardSize,
			})
			if err != nil {
				return err
			}
			result.FieldEffect = outcome
			result.NewPosition = team.Position
			events = append(events, outcome.Events...)

			// Effects may move other teams too; persist all of them.
			for _, other := range allTeams {
				if other.ID == team.ID {
					continue
				}
				if err := tx.SaveTeam(ctx, other); err != nil {
					return err
				}
			}
		}

		if s.Phase == board.PhaseFieldMinigamePending {
			// The round is suspended; the stored minigame state remembers
			// who rolls once play resumes.
			s.CurrentTurnTeamID = 0
			return e.commitRoll(ctx, tx, s, team, result, events)
		}

		e.advanceTurn(s, teamID, result, &events)
		return e.commitRoll(ctx, tx, s, team, result, events)
	})
	if err != nil {
		return nil, err
	}
	if violation != nil {
		return nil, violation
	}
	return result, nil
}

// advanceTurn moves the session to the next team in the roll order or ends
// the round.
func (e *Engine) advanceTurn(s *board.GameSession, teamID int64, result *RollResult, events *[]board.Event) {
	next, last := s.NextInTurnOrder(teamID)
	if last {
		s.Phase = board.PhaseRoundOver
		s.CurrentTurnTeamID = 0
		result.RoundOver = true
		evt := board.NewEvent(board.EventRoundCompleted, s.ID, 0, s.Round)
		*events = append(*events, evt)
		return
	}
	s.CurrentTurnTeamID = next
	result.NextTeamID = next
}

func (e *Engine) commitRoll(ctx context.Context, tx Store, s *board.GameSession, team *board.Team, result *RollResult, events []board.Event) error {
	if err := tx.SaveTeam(ctx, team); err != nil {
		return err
	}
	if err := tx.SaveSession(ctx, s); err != nil {
		return err
	}
	for _, evt := range events {
		if err := tx.AppendEvent(ctx, evt); err != nil {
			return err
		}
	}
	for _, evt := range events {
		e.bus.Publish(evt)
	}
	e.logger.Info("roll applied",
		zap.Int64("session_id", s.ID),
		zap.Int64("team_id", team.ID),
		zap.Int("total", result.Total),
		zap.Int("new_position", result.NewPosition),
		zap.Bool("blocked", result.Blocked),
		zap.Bool("victory", result.Victory))
	return nil
}

// fieldConfig loads the stored config for a field type, falling back to an
// enabled zero-value config when none is stored.
func (e *Engine) fieldConfig(ctx context.Context, tx Store, ft board.FieldType) (board.FieldTypeConfig, error) {
	configs, err := tx.ListFieldConfigs(ctx)
	if err != nil {
		return board.FieldTypeConfig{}, err
	}
	for _, cfg := range configs {
		if cfg.Type == ft {
			return cfg, nil
		}
	}
	return board.FieldTypeConfig{Type: ft, Enabled: true}, nil
}
