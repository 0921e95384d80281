package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Rupe88/kaji-service-backend-sub004/internal/database"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/models"
	apperrors "github.com/Rupe88/kaji-service-backend-sub004/pkg/errors"
	"github.com/Rupe88/kaji-service-backend-sub004/pkg/response"
	"github.com/Rupe88/kaji-service-backend-sub004/pkg/utils"
)

// AuthMiddleware resolves the caller from a Bearer JWT, rejects revoked
// tokens and verifies the account still exists before any handler runs.
// Handlers read the caller via c.GetString("userId").
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AbortError(c, apperrors.Unauthenticated("Authorization header required"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.AbortError(c, apperrors.Unauthenticated("Invalid authorization header format"))
			return
		}

		claims, err := utils.ValidateToken(parts[1])
		if err != nil {
			response.AbortError(c, apperrors.Unauthenticated("Invalid or expired token"))
			return
		}

		// Revoked via logout on the auth service.
		if database.IsTokenBlacklisted(claims.JTI()) {
			response.AbortError(c, apperrors.Unauthenticated("Token has been revoked"))
			return
		}

		var user models.User
		if err := database.DB.Select("id", "is_blocked").First(&user, "id = ?", claims.UserID).Error; err != nil {
			response.AbortError(c, apperrors.Unauthenticated("User not found or inactive"))
			return
		}
		if user.IsBlocked {
			response.AbortError(c, apperrors.Forbidden("Account is blocked"))
			return
		}

		c.Set("userId", claims.UserID)
		c.Next()
	}
}
