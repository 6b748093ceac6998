package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TreasureHunt-org/backend/internal/domain"
)

// LanguageHandler lists the languages submissions may be written in
type LanguageHandler struct {
	languages domain.LanguageResolver
}

// NewLanguageHandler creates a new language handler
func NewLanguageHandler(languages domain.LanguageResolver) *LanguageHandler {
	return &LanguageHandler{languages: languages}
}

// ListLanguages returns the current language catalogue
// GET /api/languages
func (h *LanguageHandler) ListLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"languages": h.languages.List(),
	})
}
