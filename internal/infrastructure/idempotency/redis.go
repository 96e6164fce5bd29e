package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"pantry-engine/internal/infrastructure/config"
	"pantry-engine/internal/pkg/common"
)

// keyPrefix Redis 鍵前綴
const keyPrefix = "pantry:cook:idempotency:"

// RedisStore 以 Redis 保存冪等鍵，多個實例可共用
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore 創建 Redis 儲存並測試連線
func NewRedisStore(redisCfg config.RedisConfig, cfg config.IdempotencyConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("冪等儲存已初始化",
		zap.String("backend", config.BackendRedis),
		zap.String("addr", redisCfg.Addr),
		zap.Duration("存活時間", cfg.TTL),
	)
	return NewRedisStoreWithClient(client, cfg.TTL), nil
}

// NewRedisStoreWithClient 使用既有的 Redis 客戶端
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Reserve 以 SETNX 保留冪等鍵
func (s *RedisStore) Reserve(ctx context.Context, key string) (bool, error) {
	data, err := json.Marshal(Entry{State: StatePending, CreatedAt: time.Now()})
	if err != nil {
		return false, fmt.Errorf("failed to marshal entry: %w", err)
	}
	ok, err := s.client.SetNX(ctx, redisKey(key), data, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve key: %w", err)
	}
	if !ok {
		common.LogInfo("重複的冪等鍵", zap.String("鍵", key))
	}
	return ok, nil
}

// Complete 標記為已提交並保存結果，保留剩餘的存活時間
func (s *RedisStore) Complete(ctx context.Context, key string, result []byte) error {
	entry, err := s.Lookup(ctx, key)
	if err != nil {
		return err
	}
	entry.State = StateCompleted
	entry.Result = result

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(key), data, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("failed to complete key: %w", err)
	}
	return nil
}

// Release 刪除冪等鍵
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to release key: %w", err)
	}
	return nil
}

// Lookup 查詢冪等鍵
func (s *RedisStore) Lookup(ctx context.Context, key string) (Entry, error) {
	data, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("failed to get key: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return entry, nil
}

// Ping 測試 Redis 連線
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Backend 返回後端名稱
func (s *RedisStore) Backend() string {
	return config.BackendRedis
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func redisKey(key string) string {
	return keyPrefix + key
}
