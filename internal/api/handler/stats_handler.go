package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/fan-platform/pkg/response"
)

// PlatformStats returns platform-wide revenue aggregates.
// @Summary Platform revenue statistics
// @Tags stats
// @Produce json
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/stats [get]
func (h *Handler) PlatformStats(c *gin.Context) {
	stats, err := h.statsSvc.PlatformStats(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, stats)
}

// PlatformInfo describes the fee model; public.
// @Summary Platform info
// @Tags stats
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/platform/info [get]
func (h *Handler) PlatformInfo(c *gin.Context) {
	fee := h.cfg.Platform.FeeRate
	distributable := 1.0 - fee
	response.Success(c, gin.H{
		"platform_fee_rate":       fee,
		"platform_fee_percentage": fmt.Sprintf("%.0f%%", fee*100),
		"revenue_model":           "fixed platform fee, creator-configurable creator/fan split of the remainder",
		"example_splits": []gin.H{
			{"creator_fan_split": 0.8, "creator": distributable * 0.8, "fan": distributable * 0.2, "platform": fee},
			{"creator_fan_split": 0.7, "creator": distributable * 0.7, "fan": distributable * 0.3, "platform": fee},
		},
	})
}
