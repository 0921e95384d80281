package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "github.com/Rupe88/kaji-service-backend-sub004/pkg/errors"
	"github.com/Rupe88/kaji-service-backend-sub004/pkg/logger"
	"github.com/Rupe88/kaji-service-backend-sub004/pkg/response"
)

// ErrorHandlerMiddleware converts panics and context-attached errors into
// the uniform response envelope.
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("Panic recovered")

				if !c.Writer.Written() {
					response.AbortError(c, apperrors.Persistence("handle request", fmt.Errorf("panic: %v", r)))
				} else {
					c.Abort()
				}
			}
		}()

		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			response.Error(c, c.Errors.Last().Err)
		}
	}
}
