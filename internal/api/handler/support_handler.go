package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/fan-platform/internal/middleware"
	"github.com/d60-Lab/fan-platform/internal/service"
	"github.com/d60-Lab/fan-platform/pkg/response"
)

type supportRequest struct {
	CreatorID uint    `json:"creator_id" binding:"required"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Source    string  `json:"source" binding:"omitempty,oneof=direct points"`
	Message   string  `json:"message" binding:"omitempty,max=1000"`
}

// Support settles a support transaction against a creator.
// @Summary Support a creator
// @Tags support
// @Accept json
// @Produce json
// @Param request body supportRequest true "settlement order"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 500 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/support [post]
func (h *Handler) Support(c *gin.Context) {
	var req supportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindError(err))
		return
	}
	user := middleware.CurrentUser(c)
	result, err := h.supportSvc.Settle(c.Request.Context(), user.ID, service.SupportRequest{
		CreatorID: req.CreatorID,
		Amount:    req.Amount,
		Source:    service.FundingSource(req.Source),
		Message:   req.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCreatorNotFound):
			response.NotFound(c, err.Error())
		case errors.Is(err, service.ErrSelfSupport):
			response.Forbidden(c, err.Error())
		case errors.Is(err, service.ErrCreatorInactive),
			errors.Is(err, service.ErrInvalidAmount),
			errors.Is(err, service.ErrInsufficientPoints):
			response.BadRequest(c, err.Error())
		case errors.Is(err, service.ErrSplitMismatch):
			// invariant breach on our side, not a caller mistake
			response.InternalError(c, err)
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Success(c, result)
}

// SupportHistory lists the authenticated user's settlements, newest first.
// @Summary Support history
// @Tags support
// @Produce json
// @Param limit query int false "max results" default(50)
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/support/history [get]
func (h *Handler) SupportHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	user := middleware.CurrentUser(c)
	items, err := h.supportSvc.History(c.Request.Context(), user.ID, limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"history": items, "count": len(items)})
}
