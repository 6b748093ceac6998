package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TreasureHunt-org/backend/internal/middleware"
	"github.com/TreasureHunt-org/backend/internal/service"
)

// HuntHandler handles hunt progress requests
type HuntHandler struct {
	scoringService *service.ScoringService
}

// NewHuntHandler creates a new hunt handler
func NewHuntHandler(scoringService *service.ScoringService) *HuntHandler {
	return &HuntHandler{scoringService: scoringService}
}

// GetChallengesInfo returns the authenticated user's progress across a hunt
// GET /api/hunts/:id/challenges/info
func (h *HuntHandler) GetChallengesInfo(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	huntID, ok := parseID(c, "id", "hunt")
	if !ok {
		return
	}

	info, err := h.scoringService.HuntProgress(c.Request.Context(), userID, huntID)
	if err != nil {
		respondError(c, err, "Failed to retrieve hunt progress")
		return
	}

	c.JSON(http.StatusOK, info)
}
