package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/database"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/logger"
)

const (
	defaultEntityListLimit  = 50
	defaultEntityListOffset = 0
)

// EntityHandler handles entity registry HTTP requests.
type EntityHandler struct {
	entities *database.EntityRepository
	signals  *database.SignalRepository
	log      logger.Interface
}

// NewEntityHandler creates a new entity handler.
func NewEntityHandler(
	entities *database.EntityRepository,
	signals *database.SignalRepository,
	log logger.Interface,
) *EntityHandler {
	return &EntityHandler{entities: entities, signals: signals, log: log}
}

// List handles GET /api/v1/entities
func (h *EntityHandler) List(c *gin.Context) {
	limit, offset := parseLimitOffset(c, defaultEntityListLimit, defaultEntityListOffset)

	filters := database.EntityFilters{
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	}
	if reviewStr := c.Query("needs_review"); reviewStr != "" {
		needsReview, parseErr := strconv.ParseBool(reviewStr)
		if parseErr != nil {
			respondBadRequest(c, "Invalid needs_review value")
			return
		}
		filters.NeedsReview = &needsReview
	}

	entities, total, err := h.entities.List(c.Request.Context(), filters)
	if err != nil {
		respondInternalError(c, "Failed to retrieve entities")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entities": entities,
		"total":    total,
	})
}

// Get handles GET /api/v1/entities/:id — the entity with its identifiers and
// latest signals.
func (h *EntityHandler) Get(c *gin.Context) {
	id := c.Param("id")

	entity, err := h.entities.GetByID(c.Request.Context(), id)
	if errors.Is(err, database.ErrEntityNotFound) {
		respondNotFound(c, "Entity")
		return
	}
	if err != nil {
		respondInternalError(c, "Failed to retrieve entity")
		return
	}

	identifiers, err := h.entities.Identifiers(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, "Failed to retrieve identifiers")
		return
	}

	signals, err := h.signals.ListByEntity(c.Request.Context(), id)
	if err != nil {
		respondInternalError(c, "Failed to retrieve signals")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entity":      entity,
		"identifiers": identifiers,
		"signals":     signals,
	})
}
