package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	domainerrors "pay-chain.backend/internal/domain/errors"
	"pay-chain.backend/internal/interfaces/http/response"
	"pay-chain.backend/pkg/jwt"
)

// OperatorAuthMiddleware guards the admin API's mutating endpoints
// (manual update trigger, rebalance preview) behind a bearer JWT whose
// role claim is "operator". Read-only status endpoints are left open.
func OperatorAuthMiddleware(jwtService *jwt.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Error(c, domainerrors.Unauthorized("missing bearer token"))
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			response.Error(c, domainerrors.Unauthorized("invalid token"))
			c.Abort()
			return
		}
		if claims.Role != "operator" {
			response.Error(c, domainerrors.Forbidden("operator role required"))
			c.Abort()
			return
		}

		c.Next()
	}
}
