package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pantry-engine/internal/pkg/common"
)

// sweepInterval 清理過期指紋的最短間隔
const sweepInterval = time.Minute

// requestCache 請求指紋與最後出現時間
type requestCache struct {
	sync.Mutex
	requests  map[string]time.Time
	lastSweep time.Time
}

// sweep 清除超過保留期的指紋，呼叫端須持有鎖
func (rc *requestCache) sweep(now time.Time, keep time.Duration) {
	for k, t := range rc.requests {
		if now.Sub(t) > keep {
			delete(rc.requests, k)
		}
	}
	rc.lastSweep = now
}

// seen 記錄指紋，回傳是否在 window 內重複；每隔 sweepInterval 順便清理一次
func (rc *requestCache) seen(fingerprint string, now time.Time, window time.Duration) bool {
	rc.Lock()
	defer rc.Unlock()
	if now.Sub(rc.lastSweep) >= sweepInterval {
		rc.sweep(now, window)
	}
	if last, ok := rc.requests[fingerprint]; ok && now.Sub(last) <= window {
		return true
	}
	rc.requests[fingerprint] = now
	return false
}

// Deduplication 擋下 window 內內容完全相同的 POST 請求
//
// 烹飪提交另有冪等鍵保護；這裡只處理使用者連點造成的重送。
func Deduplication(window time.Duration) gin.HandlerFunc {
	if window <= 0 {
		window = time.Second
	}
	cache := &requestCache{requests: make(map[string]time.Time), lastSweep: time.Now()}

	return func(c *gin.Context) {
		// 只處理 POST 請求
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		fingerprint := c.Request.Method + ":" + c.Request.URL.Path
		if key := c.GetHeader("Idempotency-Key"); key != "" {
			fingerprint += ":" + key
		}
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogError("Failed to read request body", zap.Error(err))
				c.Next()
				return
			}
			hash := sha256.Sum256(body)
			fingerprint += ":" + hex.EncodeToString(hash[:])

			// 恢復請求體
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		if cache.seen(fingerprint, time.Now(), window) {
			common.LogWarn("重複請求已忽略",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(common.ErrTooManyRequests.Status, common.ErrTooManyRequests.Response(false))
			return
		}

		c.Next()
	}
}
