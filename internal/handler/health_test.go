package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/luis-polezi/stock-control/internal/dto"
	"github.com/luis-polezi/stock-control/internal/worker"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthRequest(t *testing.T, rdb *redis.Client) (int, dto.HealthResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/health", Health(rdb))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	var resp dto.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestHealth_NoRedis(t *testing.T) {
	code, resp := healthRequest(t, nil)

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK", resp.Status)
	assert.Nil(t, resp.FailedBackups)
}

func TestHealth_ReportsFailedBackups(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	_, err := mr.Lpush(worker.DLQPrefix+worker.QueueBackup, `{"reason":"bucket down"}`)
	require.NoError(t, err)

	code, resp := healthRequest(t, rdb)

	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.FailedBackups)
	assert.Equal(t, int64(1), *resp.FailedBackups)
}

func TestHealth_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	mr.Close()

	code, resp := healthRequest(t, rdb)

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "DEGRADED", resp.Status)
}
