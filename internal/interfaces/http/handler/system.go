package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp/shipping/internal/interfaces/http/dto"
)

// Pinger reports backing store connectivity
type Pinger interface {
	Ping() error
}

// Sweeper runs one tracking refresh sweep on demand
type Sweeper interface {
	RunOnce(ctx context.Context) (int, error)
}

// SystemHandler exposes health and operational endpoints
type SystemHandler struct {
	*BaseHandler
	db      Pinger
	sweeper Sweeper
	version string
}

// NewSystemHandler creates a system handler
func NewSystemHandler(db Pinger, sweeper Sweeper, version string, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{
		BaseHandler: NewBaseHandler(logger),
		db:          db,
		sweeper:     sweeper,
		version:     version,
	}
}

// HealthResponse reports service and dependency health
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Database string `json:"database"`
	Time     string `json:"time"`
}

// Health handles GET /health
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} dto.Response{data=handler.HealthResponse}
// @Failure 503 {object} dto.Response{data=handler.HealthResponse}
// @Router /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:   "ok",
		Version:  h.version,
		Database: "ok",
		Time:     time.Now().UTC().Format(time.RFC3339),
	}

	status := http.StatusOK
	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			h.logger.Warn("health check database ping failed", zap.Error(err))
			resp.Status = "degraded"
			resp.Database = "unreachable"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, dto.NewSuccessResponse(resp))
}

// RefreshTracking handles POST /api/v1/admin/tracking/refresh
// @Summary Force a tracking refresh sweep
// @Description Runs one poll sweep over stale active shipments without waiting for the scheduler tick
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.Response
// @Router /api/v1/admin/tracking/refresh [post]
func (h *SystemHandler) RefreshTracking(c *gin.Context) {
	refreshed, err := h.sweeper.RunOnce(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"refreshed": refreshed})
}
