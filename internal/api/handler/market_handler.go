package handler

import (
	"log/slog"
	"net/http"

	"github.com/AnassEREKYSY/MarketPulse/internal/api/dto"
	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/gin-gonic/gin"
)

// Search handles GET /api/v1/jobs/search
func (h *MarketHandler) Search(c *gin.Context) {
	var req dto.MarketQueryRequest
	if !h.bind(c, &req) {
		return
	}

	c.JSON(http.StatusOK, h.service.Search(c.Request.Context(), req.ToQuery()))
}

// Snapshot handles GET /api/v1/jobs/snapshot
// Returns every record of the text/location pair for client-side refinement
func (h *MarketHandler) Snapshot(c *gin.Context) {
	var req dto.MarketQueryRequest
	if !h.bind(c, &req) {
		return
	}

	c.JSON(http.StatusOK, h.service.Snapshot(c.Request.Context(), req.ToQuery()))
}

// Statistics handles GET /api/v1/jobs/statistics
func (h *MarketHandler) Statistics(c *gin.Context) {
	var req dto.MarketQueryRequest
	if !h.bind(c, &req) {
		return
	}

	c.JSON(http.StatusOK, h.service.Statistics(c.Request.Context(), req.ToQuery()))
}

// Salaries handles GET /api/v1/jobs/salaries
func (h *MarketHandler) Salaries(c *gin.Context) {
	var req dto.MarketQueryRequest
	if !h.bind(c, &req) {
		return
	}

	c.JSON(http.StatusOK, h.service.SalaryAnalytics(c.Request.Context(), req.ToQuery()))
}

// HeatMap handles GET /api/v1/jobs/heatmap?metric=jobs|salary
func (h *MarketHandler) HeatMap(c *gin.Context) {
	var req dto.HeatMapRequest
	if !h.bind(c, &req) {
		return
	}

	metric, err := domain.ParseIntensityMetric(req.Metric)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.service.HeatMap(c.Request.Context(), req.ToQuery(), metric))
}

// Trends handles GET /api/v1/jobs/trends?days=N
func (h *MarketHandler) Trends(c *gin.Context) {
	var req dto.TrendsRequest
	if !h.bind(c, &req) {
		return
	}

	days := req.Days
	if days == 0 {
		days = domain.DefaultTrendDays
	}

	c.JSON(http.StatusOK, h.service.Trends(c.Request.Context(), req.ToQuery(), days))
}

func (h *MarketHandler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		h.logger.Warn("Invalid query parameters",
			slog.String("path", c.Request.URL.Path),
			slog.String("query", c.Request.URL.RawQuery),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return false
	}
	return true
}
