// Package server exposes the game engine over HTTP.
package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/partyhub/board-server/internal/game"
)

// Server wires the engine to a gin router.
type Server struct {
	logger *zap.Logger
	engine *game.Engine
	router *gin.Engine
}

// New builds the HTTP server around the engine.
func New(engine *game.Engine, logger *zap.Logger) *Server {
	s := &Server{logger: logger, engine: engine}
	router := gin.New()
	router.Use(gin.Recovery())
	s.routes(router)
	s.router = router
	return s
}

// Router exposes the handler for tests and for the main binary.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) routes(r *gin.Engine) {
	api := r.Group("/api")

	api.POST("/sessions", s.createSession)
	api.GET("/sessions/active", s.activeSession)
	api.POST("/sessions/:id/end", s.endSession)
	api.POST("/sessions/:id/content", s.announceContent)
	api.POST("/sessions/:id/placements", s.recordPlacements)
	api.POST("/sessions/:id/roll", s.roll)
	api.GET("/sessions/:id/minigame/content", s.minigameContent)
	api.POST("/sessions/:id/minigame/resume", s.resumeMinigame)
	api.POST("/sessions/:id/minigame/resolve", s.resolveMinigame)
	api.POST("/sessions/:id/continue", s.continueRound)
	api.POST("/sessions/:id/next-round", s.startNextRound)

	api.POST("/teams/:id/unblock", s.unblockTeam)

	api.GET("/board", s.boardDistribution)
	api.GET("/board/fields/:pos", s.fieldType)
	api.POST("/board/invalidate", s.invalidateBoard)
}

// fail maps engine errors onto HTTP statuses: unknown entities 404, turn
// violations 409, everything else 500.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case game.IsValidation(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case game.IsTurnViolation(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func sessionID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func (s *Server) createSession(c *gin.Context) {
	sess, err := s.engine.CreateSession(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionView(sess))
}

func (s *Server) activeSession(c *gin.Context) {
	sess, err := s.engine.ActiveSession(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionView(sess))
}

func (s *Server) endSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := s.engine.EndSession(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ended"})
}

func (s *Server) announceContent(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		Question    bool   `json:"question"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.engine.AnnounceContent(c.Request.Context(), id, req.Name, req.Description, req.Question); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "announced"})
}

func (s *Server) recordPlacements(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req struct {
		Placements []struct {
			TeamID  int64 `json:"team_id" binding:"required"`
			Place   int   `json:"place" binding:"required"`
			Correct bool  `json:"correct"`
		} `json:"placements" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	placements := make([]game.Placement, len(req.Placements))
	for i, p := range req.Placements {
		placements[i] = game.Placement{TeamID: p.TeamID, Place: p.Place, Correct: p.Correct}
	}
	if err := s.engine.RecordPlacements(c.Request.Context(), id, placements); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "dice round started"})
}

func (s *Server) roll(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req struct {
		TeamID int64 `json:"team_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := s.engine.RollForTeam(c.Request.Context(), id, req.TeamID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) minigameContent(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	ids, err := s.engine.TriggerMiniGameSelection(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content_ids": ids})
}

func (s *Server) resumeMinigame(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req struct {
		ContentID string `json:"content_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.engine.ResumeMiniGame(c.Request.Context(), id, req.ContentID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "minigame active"})
}

func (s *Server) resolveMinigame(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req struct {
		TeamID int64 `json:"team_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.engine.ResolveMiniGame(c.Request.Context(), id, req.TeamID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "minigame resolved"})
}

func (s *Server) continueRound(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := s.engine.ContinueRound(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "continued"})
}

func (s *Server) startNextRound(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := s.engine.StartNextRound(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "next round"})
}

func (s *Server) unblockTeam(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := s.engine.UnblockTeam(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unblocked"})
}

func (s *Server) boardDistribution(c *gin.Context) {
	size := s.engine.BoardSize()
	if raw := c.Query("size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 2 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid size"})
			return
		}
		size = parsed
	}
	dist, err := s.engine.Distribution(c.Request.Context(), size)
	if err != nil {
		s.fail(c, err)
		return
	}
	fields := make(map[string]string, size)
	for pos, ft := range dist.Map() {
		fields[strconv.Itoa(pos)] = ft.String()
	}
	c.JSON(http.StatusOK, gin.H{"size": size, "fields": fields})
}

func (s *Server) fieldType(c *gin.Context) {
	pos, err := strconv.Atoi(c.Param("pos"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid position"})
		return
	}
	ft, err := s.engine.FieldTypeAt(c.Request.Context(), pos)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"position": pos, "field_type": ft.String()})
}

func (s *Server) invalidateBoard(c *gin.Context) {
	s.engine.InvalidateDistribution()
	c.JSON(http.StatusOK, gin.H{"status": "invalidated"})
}
