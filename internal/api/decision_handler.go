package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/database"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/domain"
)

const defaultDecisionListLimit = 50

// DecisionHandler serves the append-only match decision log.
type DecisionHandler struct {
	repo *database.DecisionRepository
}

// NewDecisionHandler creates a new decision handler.
func NewDecisionHandler(repo *database.DecisionRepository) *DecisionHandler {
	return &DecisionHandler{repo: repo}
}

// List handles GET /api/v1/decisions?login=...|entity_id=...
func (h *DecisionHandler) List(c *gin.Context) {
	limit, _ := parseLimitOffset(c, defaultDecisionListLimit, 0)

	login := c.Query("login")
	entityID := c.Query("entity_id")

	var decisions []*domain.MatchDecision
	var err error
	switch {
	case login != "":
		decisions, err = h.repo.ListByLogin(c.Request.Context(), login, limit)
	case entityID != "":
		decisions, err = h.repo.ListByEntity(c.Request.Context(), entityID, limit)
	default:
		respondBadRequest(c, "login or entity_id query parameter required")
		return
	}

	if err != nil {
		respondInternalError(c, "Failed to retrieve match decisions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"decisions": decisions,
	})
}
