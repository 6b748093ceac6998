package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/TreasureHunt-org/backend/internal/domain"
	"github.com/TreasureHunt-org/backend/internal/service"
)

// SubmissionHandler handles submission reporting requests
type SubmissionHandler struct {
	submissionService *service.SubmissionService
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(submissionService *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: submissionService}
}

// ListSubmissions returns a page of submissions, newest first
// GET /api/submissions?hunt_id=&hunter_name=&page=&page_size=
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	var filter domain.SubmissionFilter

	if raw := c.Query("hunt_id"); raw != "" {
		huntID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid hunt ID"})
			return
		}
		filter.HuntID = &huntID
	}
	filter.HunterName = c.Query("hunter_name")

	var err error
	if filter.Page, err = strconv.Atoi(c.DefaultQuery("page", "0")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
		return
	}
	if filter.PageSize, err = strconv.Atoi(c.DefaultQuery("page_size", "10")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page size"})
		return
	}

	resp, err := h.submissionService.ListSubmissions(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to retrieve submissions")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetSubmission returns one submission with its stored test case results
// GET /api/submissions/:id
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id, ok := parseID(c, "id", "submission")
	if !ok {
		return
	}

	resp, err := h.submissionService.GetSubmission(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to retrieve submission")
		return
	}

	c.JSON(http.StatusOK, resp)
}
