package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Rupe88/kaji-service-backend-sub004/internal/database"
	"github.com/Rupe88/kaji-service-backend-sub004/internal/models"
	apperrors "github.com/Rupe88/kaji-service-backend-sub004/pkg/errors"
	"github.com/Rupe88/kaji-service-backend-sub004/pkg/response"
)

// AdminOnly restricts a route to callers whose stored role is ADMIN. It
// runs after AuthMiddleware and re-reads the role from the database rather
// than trusting anything in the token.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("userId")
		if userID == "" {
			response.AbortError(c, apperrors.Unauthenticated("Authentication required"))
			return
		}

		var user models.User
		if err := database.DB.Select("id", "role").First(&user, "id = ?", userID).Error; err != nil {
			response.AbortError(c, apperrors.Unauthenticated("User not found"))
			return
		}

		if user.Role != models.RoleAdmin {
			response.AbortError(c, apperrors.Forbidden("Admin access required"))
			return
		}

		c.Next()
	}
}
