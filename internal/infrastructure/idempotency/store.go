// Package idempotency 記錄已處理的烹飪完成請求，確保每個事件只提交一次
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pantry-engine/internal/infrastructure/config"
)

// State 冪等鍵狀態
type State string

const (
	// StatePending 已保留，正在提交
	StatePending State = "pending"
	// StateCompleted 已成功提交
	StateCompleted State = "completed"
)

// ErrNotFound 冪等鍵不存在或已過期
var ErrNotFound = errors.New("idempotency: key not found")

// ErrStoreFull 記憶體儲存已滿且沒有可淘汰的項目
var ErrStoreFull = errors.New("idempotency: store is full")

// Entry 冪等鍵紀錄
type Entry struct {
	State     State           `json:"state"`
	Result    json.RawMessage `json:"result,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Store 冪等鍵儲存
//
// Reserve 只有在鍵不存在時成功；提交失敗時呼叫端應 Release，讓使用者可以重試。
type Store interface {
	Reserve(ctx context.Context, key string) (bool, error)
	Complete(ctx context.Context, key string, result []byte) error
	Release(ctx context.Context, key string) error
	Lookup(ctx context.Context, key string) (Entry, error)
	Ping(ctx context.Context) error
	Backend() string
	Close() error
}

// NewStore 依設定建立儲存
func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.Idempotency.Backend {
	case config.BackendRedis:
		return NewRedisStore(cfg.Redis, cfg.Idempotency)
	case config.BackendMemory, "":
		return NewMemoryStore(cfg.Idempotency), nil
	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", cfg.Idempotency.Backend)
	}
}
