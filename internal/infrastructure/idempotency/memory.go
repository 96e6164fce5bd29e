package idempotency

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"pantry-engine/internal/infrastructure/config"
	"pantry-engine/internal/pkg/common"
)

// memoryEntry 記憶體中的冪等鍵
type memoryEntry struct {
	Entry
	expiresAt time.Time
}

// memoryStats 儲存統計
type memoryStats struct {
	reserved   int64
	duplicates int64
	released   int64
	evictions  int64
}

// MemoryStore 單機記憶體冪等儲存
type MemoryStore struct {
	config config.IdempotencyConfig
	mu     sync.Mutex
	store  map[string]memoryEntry
	stats  memoryStats
	now    func() time.Time
	done   chan struct{}
	once   sync.Once
}

// NewMemoryStore 創建記憶體儲存並啟動過期清理
func NewMemoryStore(cfg config.IdempotencyConfig) *MemoryStore {
	s := &MemoryStore{
		config: cfg,
		store:  make(map[string]memoryEntry),
		now:    time.Now,
		done:   make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		go s.startCleanup()
	}

	common.LogInfo("冪等儲存已初始化",
		zap.String("backend", config.BackendMemory),
		zap.Int("最大容量", cfg.MaxSize),
		zap.Duration("存活時間", cfg.TTL),
		zap.Duration("清理間隔", cfg.CleanupInterval),
	)
	return s
}

// Reserve 保留冪等鍵；已存在且未過期時返回 false
func (s *MemoryStore) Reserve(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if entry, exists := s.store[key]; exists {
		if now.Before(entry.expiresAt) {
			s.stats.duplicates++
			common.LogInfo("重複的冪等鍵", zap.String("鍵", key), zap.String("state", string(entry.State)))
			return false, nil
		}
		delete(s.store, key)
		s.stats.evictions++
	}

	if s.config.MaxSize > 0 && len(s.store) >= s.config.MaxSize {
		evicted := s.cleanup(now)
		if len(s.store) >= s.config.MaxSize && !s.evictOldestCompleted() {
			common.LogWarn("冪等儲存已滿",
				zap.Int("目前容量", len(s.store)),
				zap.Int("清理數量", evicted),
			)
			return false, ErrStoreFull
		}
	}

	s.store[key] = memoryEntry{
		Entry:     Entry{State: StatePending, CreatedAt: now},
		expiresAt: now.Add(s.config.TTL),
	}
	s.stats.reserved++
	return true, nil
}

// Complete 標記為已提交並保存結果
func (s *MemoryStore) Complete(ctx context.Context, key string, result []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.store[key]
	if !exists {
		return ErrNotFound
	}
	entry.State = StateCompleted
	entry.Result = append([]byte(nil), result...)
	s.store[key] = entry
	return nil
}

// Release 刪除冪等鍵
func (s *MemoryStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.store[key]; exists {
		delete(s.store, key)
		s.stats.released++
	}
	return nil
}

// Lookup 查詢冪等鍵
func (s *MemoryStore) Lookup(ctx context.Context, key string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.store[key]
	if !exists || !s.now().Before(entry.expiresAt) {
		return Entry{}, ErrNotFound
	}
	return entry.Entry, nil
}

// Ping 記憶體儲存永遠可用
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Backend 返回後端名稱
func (s *MemoryStore) Backend() string {
	return config.BackendMemory
}

// startCleanup 定期清理過期項目
func (s *MemoryStore) startCleanup() {
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			s.cleanup(s.now())
			s.mu.Unlock()
		case <-s.done:
			return
		}
	}
}

// cleanup 清理過期項目，呼叫端須持有鎖
func (s *MemoryStore) cleanup(now time.Time) int {
	count := 0
	for key, entry := range s.store {
		if !now.Before(entry.expiresAt) {
			delete(s.store, key)
			count++
			s.stats.evictions++
		}
	}
	if count > 0 {
		common.LogDebug("Cleaned up expired idempotency keys",
			zap.Int("count", count),
			zap.Int64("total_evictions", s.stats.evictions),
			zap.Int("remaining_size", len(s.store)),
		)
	}
	return count
}

// evictOldestCompleted 淘汰最舊的已完成項目；進行中的項目不淘汰
func (s *MemoryStore) evictOldestCompleted() bool {
	var oldestKey string
	var oldest time.Time
	for key, entry := range s.store {
		if entry.State != StateCompleted {
			continue
		}
		if oldestKey == "" || entry.CreatedAt.Before(oldest) {
			oldestKey = key
			oldest = entry.CreatedAt
		}
	}
	if oldestKey == "" {
		return false
	}
	delete(s.store, oldestKey)
	s.stats.evictions++
	return true
}

// Stats 儲存統計
func (s *MemoryStore) Stats() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]interface{}{
		"size":       len(s.store),
		"max_size":   s.config.MaxSize,
		"reserved":   s.stats.reserved,
		"duplicates": s.stats.duplicates,
		"released":   s.stats.released,
		"evictions":  s.stats.evictions,
	}
}

// Close 停止清理並清空儲存
func (s *MemoryStore) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		s.store = make(map[string]memoryEntry)
		s.mu.Unlock()
		common.LogInfo("冪等儲存已關閉",
			zap.Int64("保留次數", s.stats.reserved),
			zap.Int64("重複次數", s.stats.duplicates),
		)
	})
	return nil
}
