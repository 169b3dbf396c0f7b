package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/fan-platform/internal/middleware"
	"github.com/d60-Lab/fan-platform/internal/service"
	"github.com/d60-Lab/fan-platform/pkg/response"
)

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8"`
	Email    string `json:"email" binding:"omitempty,email"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// bindError flattens validator errors into one readable message.
func bindError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return "invalid field " + f.Field() + ": failed " + f.Tag() + " validation"
	}
	return err.Error()
}

// Register creates a user account with the signup point grant.
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body registerRequest true "account info"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindError(err))
		return
	}
	user, err := h.authSvc.Register(c.Request.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUsernameTaken), errors.Is(err, service.ErrEmailTaken):
			response.BadRequest(c, err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, gin.H{
		"id":            user.ID,
		"username":      user.Username,
		"welcome_bonus": user.FreePoints,
	})
}

// Login exchanges credentials for a bearer token.
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "credentials"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindError(err))
		return
	}
	token, err := h.authSvc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"access_token": token, "token_type": "bearer"})
}

// Profile returns the authenticated user's profile and balances.
// @Summary Current user profile
// @Tags auth
// @Produce json
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/profile [get]
func (h *Handler) Profile(c *gin.Context) {
	response.Success(c, middleware.CurrentUser(c))
}

// Points returns the authenticated user's point balances.
// @Summary Point balances
// @Tags auth
// @Produce json
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/profile/points [get]
func (h *Handler) Points(c *gin.Context) {
	user := middleware.CurrentUser(c)
	response.Success(c, gin.H{
		"username":      user.Username,
		"free_points":   user.FreePoints,
		"points_earned": user.PointsEarned,
		"points_used":   user.PointsUsed,
	})
}

type addPointsRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

// AddTestPoints credits free points. Registered only outside release mode.
// @Summary Add test points
// @Tags auth
// @Accept json
// @Produce json
// @Param request body addPointsRequest true "amount"
// @Success 200 {object} response.Response
// @Security BearerAuth
// @Router /api/v1/test/add-points [post]
func (h *Handler) AddTestPoints(c *gin.Context) {
	var req addPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindError(err))
		return
	}
	user := middleware.CurrentUser(c)
	updated, err := h.authSvc.AddPoints(c.Request.Context(), user.ID, req.Amount)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"new_balance": updated.FreePoints})
}
