// Package inventoryapi 外部庫存 API 的 HTTP 客戶端
package inventoryapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"pantry-engine/internal/infrastructure/config"
	"pantry-engine/internal/infrastructure/metrics"
	"pantry-engine/internal/pkg/common"
)

// 外部 API 路徑
const (
	inventoryPath = "/inventory"
	foodsPath     = "/foods"
)

// IdempotencyHeader 轉送給外部 API 的冪等鍵標頭
const IdempotencyHeader = "Idempotency-Key"

// Client 外部庫存 API 客戶端
type Client struct {
	config  config.InventoryAPIConfig
	client  *resty.Client
	metrics *metrics.Metrics
}

// NewClient 創建庫存 API 客戶端
func NewClient(cfg config.InventoryAPIConfig) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	// 5xx 也重試；4xx 為請求本身錯誤，不重試
	client.AddRetryCondition(func(r *resty.Response, err error) bool {
		return err == nil && r != nil && r.StatusCode() >= http.StatusInternalServerError
	})

	return &Client{
		config: cfg,
		client: client,
	}
}

// listResponse 外部 API 回傳的庫存列表，可能是陣列或包在 items 內
type listResponse struct {
	Items []common.InventoryItem `json:"items"`
}

// ListInventory 取得使用者目前的庫存
func (c *Client) ListInventory(ctx context.Context, requestID string) ([]common.InventoryItem, error) {
	start := time.Now()
	resp, err := c.request(ctx, requestID).Get(inventoryPath)
	if err = checkResponse(resp, err); err != nil {
		c.record(inventoryPath, time.Since(start), err, requestID)
		return nil, err
	}

	body := resp.Body()
	var items []common.InventoryItem
	if trimmed := strings.TrimSpace(string(body)); strings.HasPrefix(trimmed, "[") {
		err = common.ParseJSONBytes(body, &items)
	} else {
		var wrapped listResponse
		err = common.ParseJSONBytes(body, &wrapped)
		items = wrapped.Items
	}
	if err != nil {
		err = common.ErrInventoryAPI.WithCause(fmt.Errorf("failed to parse inventory response: %w", err))
		c.record(inventoryPath, time.Since(start), err, requestID)
		return nil, err
	}
	if items == nil {
		items = []common.InventoryItem{}
	}

	c.record(inventoryPath, time.Since(start), nil, requestID)
	common.LogDebug("庫存列表", zap.String("inventory", common.FormatInventory(items)))
	return items, nil
}

// UpdateInventory 以一次請求送出所有批次的新剩餘量
func (c *Client) UpdateInventory(ctx context.Context, update common.InventoryUpdateRequest, idempotencyKey, requestID string) error {
	start := time.Now()
	req := c.request(ctx, requestID).SetBody(update)
	if idempotencyKey != "" {
		req.SetHeader(IdempotencyHeader, idempotencyKey)
	}
	resp, err := req.Put(inventoryPath)
	err = checkResponse(resp, err)
	c.record(inventoryPath, time.Since(start), err, requestID)
	return err
}

// AddFoods 新增收據辨識出的食材
func (c *Client) AddFoods(ctx context.Context, entries []common.FoodEntry, requestID string) error {
	start := time.Now()
	resp, err := c.request(ctx, requestID).
		SetBody(map[string]interface{}{"foods": entries}).
		Post(foodsPath)
	err = checkResponse(resp, err)
	c.record(foodsPath, time.Since(start), err, requestID)
	return err
}

// WithMetrics 設定呼叫計數使用的指標收集器
func (c *Client) WithMetrics(m *metrics.Metrics) *Client {
	c.metrics = m
	return c
}

// record 記錄呼叫結果
func (c *Client) record(endpoint string, duration time.Duration, err error, requestID string) {
	common.LogInventoryCall(endpoint, duration, err, requestID)
	c.metrics.InventoryCall(endpoint, err)
}

func (c *Client) request(ctx context.Context, requestID string) *resty.Request {
	req := c.client.R().SetContext(ctx)
	if requestID != "" {
		req.SetHeader("X-Request-ID", requestID)
	}
	return req
}

// checkResponse 將傳輸錯誤與非 2xx 狀態轉為 ErrInventoryAPI
func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return common.ErrGatewayTimeout.WithCause(err)
		}
		return common.ErrInventoryAPI.WithCause(fmt.Errorf("failed to send request to inventory api: %w", err))
	}
	if !resp.IsSuccess() {
		return common.ErrInventoryAPI.WithCause(fmt.Errorf("inventory api returned %d: %s", resp.StatusCode(), truncate(resp.String(), 200)))
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
