package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/github"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/metrics"
)

// QuotaSource exposes the fetcher's rate-limit budget.
type QuotaSource interface {
	Snapshot() github.Snapshot
}

// StatusHandler serves run metrics and the fetcher quota state.
type StatusHandler struct {
	metrics *metrics.Metrics
	quota   QuotaSource
}

// NewStatusHandler creates a new status handler. quota may be nil when no
// fetcher is running in this process.
func NewStatusHandler(m *metrics.Metrics, quota QuotaSource) *StatusHandler {
	return &StatusHandler{metrics: m, quota: quota}
}

// Metrics handles GET /api/v1/metrics
func (h *StatusHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

// Quota handles GET /api/v1/quota
func (h *StatusHandler) Quota(c *gin.Context) {
	if h.quota == nil {
		respondNotFound(c, "Quota state")
		return
	}
	c.JSON(http.StatusOK, h.quota.Snapshot())
}
