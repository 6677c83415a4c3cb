package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// httptest requests come from 192.0.2.1.
const testIP = "192.0.2.1"

func newRateLimitedRouter(rdb *redis.Client, cfg RateLimitConfig) *gin.Engine {
	setGinTestMode()
	r := gin.New()
	r.Use(RateLimiter(rdb, cfg))
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func postLogin(r *gin.Engine) int {
	w := request(r, http.MethodPost, "/login", "", "")
	return w.Code
}

func TestRateLimiter_WithoutRedis(t *testing.T) {
	r := newRateLimitedRouter(nil, RateLimitConfig{Limit: 1})
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, postLogin(r))
	}
}

func TestRateLimiter_ZeroLimitDisables(t *testing.T) {
	db, mock := redismock.NewClientMock()
	r := newRateLimitedRouter(db, RateLimitConfig{})

	assert.Equal(t, http.StatusOK, postLogin(r))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	window := time.Minute
	key := rateLimitKey(testIP, "/login")

	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, window).SetVal(true)
	mock.ExpectIncr(key).SetVal(2)
	mock.ExpectExpire(key, window).SetVal(true)
	mock.ExpectIncr(key).SetVal(3)
	mock.ExpectExpire(key, window).SetVal(true)

	buf := captureSecurityLog(t)
	r := newRateLimitedRouter(db, RateLimitConfig{Limit: 2, Window: window})

	assert.Equal(t, http.StatusOK, postLogin(r))
	assert.Equal(t, http.StatusOK, postLogin(r))
	assert.Equal(t, http.StatusTooManyRequests, postLogin(r))
	assert.Contains(t, buf.String(), "Event=RATE_LIMIT_EXCEEDED")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_RedisErrorAllows(t *testing.T) {
	db, mock := redismock.NewClientMock()
	key := rateLimitKey(testIP, "/login")
	mock.ExpectIncr(key).SetErr(errors.New("connection refused"))

	r := newRateLimitedRouter(db, RateLimitConfig{Limit: 1, Window: time.Minute})

	assert.Equal(t, http.StatusOK, postLogin(r))
}

func TestResetRateLimit(t *testing.T) {
	assert.Error(t, ResetRateLimit(context.Background(), nil, testIP, "/login"))

	db, mock := redismock.NewClientMock()
	mock.ExpectDel(rateLimitKey(testIP, "/login")).SetVal(1)
	assert.NoError(t, ResetRateLimit(context.Background(), db, testIP, "/login"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
