package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/user/smartshort/internal/middleware"
	"github.com/user/smartshort/internal/models"
	"github.com/user/smartshort/internal/service"
)

// AnalyticsHandler serves the owner's traffic breakdown.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
	logger    logrus.FieldLogger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService, logger logrus.FieldLogger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, logger: logger}
}

// ===========================================
// GET /api/analytics
// ===========================================
// Query: period=24h|7d|30d|lifetime (default 7d), linkId, region, os,
// startDate + endDate (YYYY-MM-DD, both required to take effect).
//
// Response (200): summary, trend, sources, devices, osBreakdown, geo,
// topLinks, hourlyActivity, earningsInsights, filters, period.
// 404 when linkId is not one of the caller's links.
func (h *AnalyticsHandler) Analytics(c *gin.Context) {
	var q models.AnalyticsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	resp, err := h.analytics.Analytics(c.Request.Context(), middleware.UserID(c), q)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
