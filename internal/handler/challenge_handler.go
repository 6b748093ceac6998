package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TreasureHunt-org/backend/internal/domain"
	"github.com/TreasureHunt-org/backend/internal/middleware"
	"github.com/TreasureHunt-org/backend/internal/service"
)

// ChallengeHandler handles solution submission and scoring for a challenge
type ChallengeHandler struct {
	submissionService *service.SubmissionService
	scoringService    *service.ScoringService
}

// NewChallengeHandler creates a new challenge handler
func NewChallengeHandler(submissionService *service.SubmissionService, scoringService *service.ScoringService) *ChallengeHandler {
	return &ChallengeHandler{
		submissionService: submissionService,
		scoringService:    scoringService,
	}
}

// ValidateSolution judges a solution without recording it
// POST /api/challenges/:id/validate
func (h *ChallengeHandler) ValidateSolution(c *gin.Context) {
	if _, ok := middleware.RequireUser(c); !ok {
		return
	}
	challengeID, ok := parseID(c, "id", "challenge")
	if !ok {
		return
	}

	var req domain.SubmitSolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.submissionService.Preview(c.Request.Context(), challengeID, &req)
	if err != nil {
		respondError(c, err, "Failed to validate solution")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SubmitSolution judges a solution and records the submission
// POST /api/challenges/:id/submissions
func (h *ChallengeHandler) SubmitSolution(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	challengeID, ok := parseID(c, "id", "challenge")
	if !ok {
		return
	}

	var req domain.SubmitSolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.submissionService.Submit(c.Request.Context(), userID, challengeID, &req)
	if err != nil {
		respondError(c, err, "Failed to submit solution")
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GameOn grants a GAME challenge's points to the authenticated user, at most once
// POST /api/challenges/:id/game-on
func (h *ChallengeHandler) GameOn(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	challengeID, ok := parseID(c, "id", "challenge")
	if !ok {
		return
	}

	resp, err := h.scoringService.AwardGameChallenge(c.Request.Context(), userID, challengeID)
	if err != nil {
		respondError(c, err, "Failed to award points")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetTally returns the authenticated user's tally for a challenge
// GET /api/challenges/:id/tally
func (h *ChallengeHandler) GetTally(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	challengeID, ok := parseID(c, "id", "challenge")
	if !ok {
		return
	}

	state, err := h.scoringService.ChallengeTally(c.Request.Context(), userID, challengeID)
	if err != nil {
		respondError(c, err, "Failed to compute tally")
		return
	}

	c.JSON(http.StatusOK, state)
}
