// Package metrics Prometheus 指標：HTTP 請求與扣庫存、比對、收據等業務計數
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pantry"

// 烹飪提交結果
const (
	OutcomeCommitted    = "committed"
	OutcomeOverConsumed = "over_consumed"
	OutcomeDuplicate    = "duplicate"
	OutcomeRejected     = "rejected"
	OutcomeFailed       = "failed"
)

// Metrics 指標收集器；nil 時所有記錄方法都不做事
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	cookCommitsTotal  *prometheus.CounterVec
	matchStatusTotal  *prometheus.CounterVec
	receiptRecords    prometheus.Counter
	receiptImported   prometheus.Counter
	inventoryAPICalls *prometheus.CounterVec
}

// New 創建指標收集器，使用獨立的 registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		cookCommitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cook_commits_total",
				Help:      "Cooking-completed commits by outcome",
			},
			[]string{"outcome"},
		),
		matchStatusTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "match_status_total",
				Help:      "Recipe ingredients classified against inventory, by status",
			},
			[]string{"status"},
		),
		receiptRecords: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "receipt_records_total",
				Help:      "Records extracted from receipt OCR fragments",
			},
		),
		receiptImported: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "receipt_imported_total",
				Help:      "Receipt records forwarded to the inventory API",
			},
		),
		inventoryAPICalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inventory_api_calls_total",
				Help:      "Calls to the external inventory API",
			},
			[]string{"endpoint", "result"},
		),
	}
}

// Handler /metrics 處理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// HTTPMiddleware 記錄每個請求的次數與耗時，path 使用路由模板
func (m *Metrics) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// CookCommit 記錄一次烹飪提交結果
func (m *Metrics) CookCommit(outcome string) {
	if m == nil {
		return
	}
	m.cookCommitsTotal.WithLabelValues(outcome).Inc()
}

// MatchStatus 記錄一筆食材比對狀態
func (m *Metrics) MatchStatus(status string) {
	if m == nil {
		return
	}
	m.matchStatusTotal.WithLabelValues(status).Inc()
}

// ReceiptExtracted 記錄擷取出的收據項目數
func (m *Metrics) ReceiptExtracted(n int) {
	if m == nil {
		return
	}
	m.receiptRecords.Add(float64(n))
}

// ReceiptImported 記錄匯入成功的收據項目數
func (m *Metrics) ReceiptImported(n int) {
	if m == nil {
		return
	}
	m.receiptImported.Add(float64(n))
}

// InventoryCall 記錄一次外部庫存 API 呼叫
func (m *Metrics) InventoryCall(endpoint string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.inventoryAPICalls.WithLabelValues(endpoint, result).Inc()
}
