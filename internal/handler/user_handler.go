package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TreasureHunt-org/backend/internal/middleware"
	"github.com/TreasureHunt-org/backend/internal/service"
)

// UserHandler handles score requests for the authenticated user
type UserHandler struct {
	scoringService *service.ScoringService
}

// NewUserHandler creates a new user handler
func NewUserHandler(scoringService *service.ScoringService) *UserHandler {
	return &UserHandler{
		scoringService: scoringService,
	}
}

// GetScore returns the stored score next to the score rebuilt from award history
// GET /api/users/me/score
func (h *UserHandler) GetScore(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}

	score, err := h.scoringService.UserScore(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to retrieve score")
		return
	}

	c.JSON(http.StatusOK, score)
}

// ReconcileScore rewrites the stored score from award history
// POST /api/users/me/score/reconcile
func (h *UserHandler) ReconcileScore(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}

	score, err := h.scoringService.ReconcileScore(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to reconcile score")
		return
	}

	c.JSON(http.StatusOK, score)
}
