package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/database"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/domain"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/logger"
)

const (
	defaultQueueListLimit  = 50
	defaultQueueListOffset = 0
)

// QueueHandler handles work queue HTTP requests.
type QueueHandler struct {
	repo *database.WorkItemRepository
	log  logger.Interface
}

// NewQueueHandler creates a new queue handler.
func NewQueueHandler(repo *database.WorkItemRepository, log logger.Interface) *QueueHandler {
	return &QueueHandler{repo: repo, log: log}
}

// List handles GET /api/v1/queue
func (h *QueueHandler) List(c *gin.Context) {
	limit, offset := parseLimitOffset(c, defaultQueueListLimit, defaultQueueListOffset)

	filters := database.WorkItemFilters{
		Status: c.Query("status"),
		Source: c.Query("source"),
		Search: c.Query("search"),
		SortBy: c.DefaultQuery("sort_by", "priority"),
		Limit:  limit,
		Offset: offset,
	}

	items, total, err := h.repo.List(c.Request.Context(), filters)
	if err != nil {
		respondInternalError(c, "Failed to retrieve work items")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
	})
}

// Stats handles GET /api/v1/queue/stats
func (h *QueueHandler) Stats(c *gin.Context) {
	stats, err := h.repo.Stats(c.Request.Context())
	if err != nil {
		respondInternalError(c, "Failed to retrieve queue stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// enqueueRequest represents the JSON body for POST /api/v1/queue.
type enqueueRequest struct {
	Login    string `binding:"required" json:"login"`
	Priority int    `json:"priority"`
}

// Enqueue handles POST /api/v1/queue — manual submission of an identifier.
func (h *QueueHandler) Enqueue(c *gin.Context) {
	var req enqueueRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		respondBadRequest(c, "Invalid request: "+bindErr.Error())
		return
	}

	priority := req.Priority
	if priority < domain.WorkItemMinPriority || priority > domain.WorkItemMaxPriority {
		priority = domain.WorkItemDefaultPriority
	}

	candidate := domain.Candidate{
		Login:    req.Login,
		Source:   domain.CandidateSourceManual,
		Priority: priority,
	}

	if err := h.repo.Enqueue(c.Request.Context(), candidate); err != nil {
		respondInternalError(c, "Failed to enqueue identifier")
		return
	}

	h.log.Info("identifier enqueued manually",
		"login", req.Login,
		"priority", priority)

	c.JSON(http.StatusCreated, gin.H{
		"message": "identifier enqueued",
	})
}
