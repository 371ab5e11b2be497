package server

import (
	"github.com/gin-gonic/gin"

	"github.com/partyhub/board-server/internal/game/board"
)

func sessionView(s *board.GameSession) gin.H {
	view := gin.H{
		"id":                   s.ID,
		"active":               s.Active,
		"phase":                s.Phase.String(),
		"round":                s.Round,
		"turn_order":           s.TurnOrder,
		"current_turn_team_id": s.CurrentTurnTeamID,
		"content_name":         s.ContentName,
		"content_description":  s.ContentDescription,
	}
	if s.FieldMinigame != nil {
		view["field_minigame"] = gin.H{
			"landing_team_id": s.FieldMinigame.LandingTeamID,
			"content_id":      s.FieldMinigame.ContentID,
			"result":          s.FieldMinigame.Result,
			"next_team_id":    s.FieldMinigame.NextTeamID,
		}
	}
	return view
}
