package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/AnassEREKYSY/MarketPulse/internal/api/dto"
	"github.com/AnassEREKYSY/MarketPulse/internal/domain"
	"github.com/gin-gonic/gin"
)

// Refresh status values
const (
	RefreshQueued    = "queued"
	RefreshCompleted = "completed"
)

// InvalidateKey handles DELETE /api/v1/cache/:key
func (h *CacheHandler) InvalidateKey(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "key is required"})
		return
	}

	if err := h.service.Invalidate(c.Request.Context(), key); err != nil {
		h.logger.Error("Failed to invalidate cache key", slog.String("key", key), slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Failed to invalidate cache key"})
		return
	}

	h.logger.Info("Cache key invalidated", slog.String("key", key))
	c.JSON(http.StatusOK, dto.InvalidateResponse{Key: key})
}

// InvalidatePattern handles DELETE /api/v1/cache?pattern=
// The local backend cannot enumerate keys, so it always reports zero removals.
func (h *CacheHandler) InvalidatePattern(c *gin.Context) {
	pattern := strings.TrimSpace(c.Query("pattern"))
	if pattern == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "pattern is required"})
		return
	}

	removed, err := h.service.InvalidatePattern(c.Request.Context(), pattern)
	if err != nil {
		h.logger.Error("Failed to invalidate cache pattern", slog.String("pattern", pattern), slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "Failed to invalidate cache pattern"})
		return
	}

	h.logger.Info("Cache pattern invalidated", slog.String("pattern", pattern), slog.Int("removed", removed))
	c.JSON(http.StatusOK, dto.InvalidateResponse{Pattern: pattern, Removed: &removed})
}

// Refresh handles POST /api/v1/cache/refresh
// The request is queued for the worker when a publisher is configured and
// reachable, otherwise it runs inline.
func (h *CacheHandler) Refresh(c *gin.Context) {
	var req dto.MarketQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid refresh body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	q := req.ToQuery()
	ctx := c.Request.Context()

	if h.publisher != nil {
		queued, err := h.publisher.Request(ctx, q)
		if err == nil {
			c.JSON(http.StatusAccepted, dto.RefreshResponse{RequestID: queued.ID, Status: RefreshQueued})
			return
		}
		h.logger.Warn("Refresh queue unavailable, refreshing inline", slog.Any("error", err))
	}

	if err := h.service.Refresh(ctx, q); err != nil {
		h.logger.Error("Inline refresh failed", slog.Any("error", err))
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrUpstreamUnavailable) || errors.Is(err, domain.ErrCacheBackendUnavailable) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, dto.ErrorResponse{Error: "Refresh failed"})
		return
	}

	c.JSON(http.StatusOK, dto.RefreshResponse{Status: RefreshCompleted})
}
