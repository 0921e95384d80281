package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Rupe88/kaji-service-backend-sub004/internal/database"
)

// Health reports liveness plus the state of the backing stores. Redis
// being absent only degrades rate limiting and token revocation, so it
// reports "not configured" rather than failing the check.
func Health(c *gin.Context) {
	dbStatus := "ok"
	if sqlDB, err := database.DB.DB(); err != nil || sqlDB.Ping() != nil {
		dbStatus = "error"
	}

	redisStatus := "not configured"
	if database.Redis != nil {
		redisStatus = "ok"
		if err := database.Redis.Ping(context.Background()).Err(); err != nil {
			redisStatus = "error"
		}
	}

	status := "ok"
	code := http.StatusOK
	if dbStatus != "ok" {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status": status,
		"checks": gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		},
	})
}
