package game

import (
	"context"

	"go.uber.org/zap"

	"github.com/partyhub/board-server/internal/game/board"
)

// TriggerMiniGameSelection lists the content an admin may pick for a
// pending field mini-game. Read-only.
func (e *Engine) TriggerMiniGameSelection(ctx context.Context, sessionID int64) ([]string, error) {
	s, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Phase != board.PhaseFieldMinigamePending || s.FieldMinigame == nil {
		return nil, ErrNoMinigamePending
	}
	return e.content.ListAvailable(s.PlayedContentIDs)
}

// ResumeMiniGame starts the pending field mini-game with the chosen
// content. Each team contributes a fair-rotation draw of players.
func (e *Engine) ResumeMiniGame(ctx context.Context, sessionID int64, contentID string) error {
	var violation error
	err := e.store.Within(ctx, func(ctx context.Context, tx Store) error {
		s, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.Phase != board.PhaseFieldMinigamePending || s.FieldMinigame == nil {
			violation = ErrNoMinigamePending
			return e.reject(ctx, tx, s, 0, violation, "resume_minigame")
		}

		teams, err := tx.ListTeams(ctx)
		if err != nil {
			return err
		}
		s.FieldMinigame.ContentID = contentID
		s.FieldMinigame.SelectedPlayers = make(map[int64][]string, len(teams))
		for _, team := range teams {
			s.FieldMinigame.SelectedPlayers[team.ID] = s.DrawPlayers(e.rng, team, e.cfg.MinigamePlayersPerTeam)
		}
		s.MarkContentPlayed(contentID)
		s.Phase = board.PhaseFieldMinigameActive
		if err := tx.SaveSession(ctx, s); err != nil {
			return err
		}

		evt := board.NewEvent(board.EventFieldMinigameStarted, s.ID, s.FieldMinigame.LandingTeamID, s.Round)
		evt.Data["content_id"] = contentID
		if err := tx.AppendEvent(ctx, evt); err != nil {
			return err
		}
		e.bus.Publish(evt)
		e.logger.Info("field minigame started",
			zap.Int64("session_id", s.ID),
			zap.String("content_id", contentID))
		return nil
	})
	if err != nil {
		return err
	}
	return violation
}

// ResolveMiniGame concludes the active field mini-game: the winning team
// moves forward by the configured reward.
func (e *Engine) ResolveMiniGame(ctx context.Context, sessionID, winningTeamID int64) error {
	var violation error
	err := e.store.Within(ctx, func(ctx context.Context, tx Store) error {
		s, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.Phase != board.PhaseFieldMinigameActive || s.FieldMinigame == nil {
			violation = ErrNoMinigamePending
			return e.reject(ctx, tx, s, winningTeamID, violation, "resolve_minigame")
		}
		winner, err := tx.GetTeam(ctx, winningTeamID)
		if err != nil {
			return err
		}

		oldPos := winner.Position
		newPos := oldPos + e.cfg.MinigameReward
		if goal := e.cfg.BoardSize - 1; newPos > goal {
			newPos = goal
		}
		winner.Position = newPos
		if err := tx.SaveTeam(ctx, winner); err != nil {
			return err
		}

		if winningTeamID == s.FieldMinigame.LandingTeamID {
			s.FieldMinigame.Result = "won"
		} else {
			s.FieldMinigame.Result = "lost"
		}
		s.Phase = board.PhaseFieldMinigameDone
		if err := tx.SaveSession(ctx, s); err != nil {
			return err
		}

		evt := board.NewEvent(board.EventFieldMinigameResolved, s.ID, winningTeamID, s.Round)
		evt.Data["old_position"] = oldPos
		evt.Data["new_position"] = newPos
		evt.Data["reward"] = e.cfg.MinigameReward
		if err := tx.AppendEvent(ctx, evt); err != nil {
			return err
		}
		e.bus.Publish(evt)
		e.logger.Info("field minigame resolved",
			zap.Int64("session_id", s.ID),
			zap.Int64("winner_id", winningTeamID))
		return nil
	})
	if err != nil {
		return err
	}
	return violation
}

// ContinueRound returns a concluded field mini-game to the dice round,
// handing the turn to the team stored when the round was suspended, or
// ends the round when the landing team was its last roller.
func (e *Engine) ContinueRound(ctx context.Context, sessionID int64) error {
	var violation error
	err := e.store.Within(ctx, func(ctx context.Context, tx Store) error {
		s, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return err
		}
		if s.Phase != board.PhaseFieldMinigameDone || s.FieldMinigame == nil {
			violation = ErrNoMinigamePending
			return e.reject(ctx, tx, s, 0, violation, "continue_round")
		}

		next := s.FieldMinigame.NextTeamID
		s.FieldMinigame = nil
		var events []board.Event
		if next == 0 {
			s.Phase = board.PhaseRoundOver
			s.CurrentTurnTeamID = 0
			events = append(events, board.NewEvent(board.EventRoundCompleted, s.ID, 0, s.Round))
		} else {
			s.Phase = board.PhaseDiceRolling
			s.CurrentTurnTeamID = next
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
		e.logger.Info("round continued after field minigame",
			zap.Int64("session_id", s.ID),
			zap.Int64("next_team_id", next))
		return nil
	})
	if err != nil {
		return err
	}
	return violation
}
