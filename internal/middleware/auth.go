package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/fan-platform/internal/model"
	"github.com/d60-Lab/fan-platform/internal/service"
	"github.com/d60-Lab/fan-platform/pkg/response"
)

const userKey = "auth.user"

// Auth resolves the bearer token and stores the authenticated user in the
// gin context. Downstream handlers trust this identity.
func Auth(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c, "missing bearer token")
			c.Abort()
			return
		}
		user, err := auth.UserFromToken(c.Request.Context(), strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Unauthorized(c, "could not validate credentials")
			c.Abort()
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by Auth; nil when unauthenticated.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*model.User)
	return u
}
