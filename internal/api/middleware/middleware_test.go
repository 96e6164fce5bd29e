package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pantry-engine/internal/pkg/common"
)

func init() {
	gin.SetMode(gin.TestMode)
	common.InitNopLogger()
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.POST("/echo", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r
}

func TestRecovery(t *testing.T) {
	r := newEngine(Recovery(), Logger())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), common.ErrCodeInternalError)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestBodySizeLimit(t *testing.T) {
	r := newEngine(BodySizeLimit(8))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "PAYLOAD_TOO_LARGE")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("0123")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeduplication(t *testing.T) {
	r := newEngine(Deduplication(time.Minute))

	send := func(body string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(body)))
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send(`{"a":1}`))
	assert.Equal(t, http.StatusTooManyRequests, send(`{"a":1}`))
	assert.Equal(t, http.StatusOK, send(`{"a":2}`), "different body is not a duplicate")
}

func TestDeduplication_IdempotencyKeyPartOfFingerprint(t *testing.T) {
	r := newEngine(Deduplication(time.Minute))

	send := func(key string) int {
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", key)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("k1"))
	assert.Equal(t, http.StatusOK, send("k2"))
	assert.Equal(t, http.StatusTooManyRequests, send("k1"))
}

func TestRequestCache_SweepsWithoutBackgroundWorker(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rc := &requestCache{requests: make(map[string]time.Time), lastSweep: start}

	assert.False(t, rc.seen("a", start, time.Second))
	assert.True(t, rc.seen("a", start.Add(500*time.Millisecond), time.Second))
	assert.False(t, rc.seen("b", start.Add(2*time.Second), time.Second))
	assert.Len(t, rc.requests, 2)

	// 超過清理間隔後的下一次請求會移除過期指紋
	later := start.Add(sweepInterval + time.Second)
	assert.False(t, rc.seen("c", later, time.Second))
	assert.Len(t, rc.requests, 1)
	assert.Contains(t, rc.requests, "c")
	assert.Equal(t, later, rc.lastSweep)
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Second)
	rl.now = func() time.Time { return now }

	require.True(t, rl.Allow())
	require.True(t, rl.Allow())
	assert.False(t, rl.Allow())

	now = now.Add(500 * time.Millisecond)
	assert.True(t, rl.Allow(), "half a window refills one token")
	assert.False(t, rl.Allow())
}

func TestRateLimit_Middleware(t *testing.T) {
	r := newEngine(RateLimit(1, time.Minute))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}
