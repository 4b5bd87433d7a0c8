package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/luis-polezi/stock-control/internal/dto"
	"github.com/luis-polezi/stock-control/internal/worker"
	"github.com/redis/go-redis/v9"
)

// Health answers the liveness probe clients use before restoring a backup.
// When a Redis queue is configured it must answer too, and the response
// carries the number of abandoned automatic backups. rdb may be nil.
func Health(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := dto.HealthResponse{Status: "OK", Message: "Server running"}
		if rdb != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
			defer cancel()
			if rdb.Ping(ctx).Err() != nil {
				c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "DEGRADED", Message: "Backup queue unavailable"})
				return
			}
			if n, err := worker.DLQLength(ctx, rdb, worker.QueueBackup); err == nil {
				resp.FailedBackups = &n
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}
