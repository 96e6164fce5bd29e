// Package cooking 處理「烹飪完成」事件：規劃扣庫存並以單一請求提交
package cooking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"pantry-engine/internal/core/inventory"
	"pantry-engine/internal/infrastructure/idempotency"
	"pantry-engine/internal/pkg/common"
)

// InventoryGateway 外部庫存 API
type InventoryGateway interface {
	ListInventory(ctx context.Context, requestID string) ([]common.InventoryItem, error)
	UpdateInventory(ctx context.Context, update common.InventoryUpdateRequest, idempotencyKey, requestID string) error
}

// CommitResult 提交結果
type CommitResult struct {
	IdempotencyKey string                   `json:"idempotencyKey"`
	Plan           inventory.RecipePlan     `json:"plan"`
	Updates        []common.InventoryUpdate `json:"updates"`
}

// Service 烹飪扣庫存服務
type Service struct {
	planner *inventory.Planner
	store   idempotency.Store
	gateway InventoryGateway
}

// NewService 創建烹飪服務；store 為 nil 時不允許提交
func NewService(planner *inventory.Planner, store idempotency.Store, gateway InventoryGateway) *Service {
	return &Service{
		planner: planner,
		store:   store,
		gateway: gateway,
	}
}

// Plan 只計算扣庫存結果，不提交
//
// items 為 nil 時從外部 API 讀取目前庫存。
func (s *Service) Plan(ctx context.Context, requests []inventory.ConsumptionRequest, items []common.InventoryItem, requestID string) (inventory.RecipePlan, error) {
	batches, err := s.batches(ctx, items, requestID)
	if err != nil {
		return inventory.RecipePlan{}, err
	}
	plan, err := s.planner.PlanRecipe(requests, batches)
	if err != nil {
		return inventory.RecipePlan{}, common.ErrInternalError.WithCause(err)
	}
	return plan, nil
}

// Commit 規劃並提交一次烹飪事件的扣庫存
//
// 同一個冪等鍵只會提交一次；庫存不足或外部 API 失敗時釋放冪等鍵，讓使用者可以重試。
func (s *Service) Commit(ctx context.Context, key string, requests []inventory.ConsumptionRequest, items []common.InventoryItem, requestID string) (*CommitResult, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, common.ErrMissingIdempotency
	}
	if s.store == nil {
		return nil, common.ErrIdempotencyDisabled
	}

	reserved, err := s.store.Reserve(ctx, key)
	if err != nil {
		return nil, common.ErrServiceUnavailable.WithCause(err)
	}
	if !reserved {
		return nil, s.duplicate(ctx, key)
	}

	result, err := s.commit(ctx, key, requests, items, requestID)
	if err != nil {
		if relErr := s.store.Release(ctx, key); relErr != nil {
			common.LogError("釋放冪等鍵失敗",
				zap.String("idempotency_key", key),
				zap.Error(relErr),
				zap.String("request_id", requestID),
			)
		}
		return result, err
	}

	data, err := common.ToJSON(result)
	if err == nil {
		err = s.store.Complete(ctx, key, []byte(data))
	}
	if err != nil {
		// 已提交成功，只記錄錯誤；鍵仍為 pending，重複請求依然會被拒絕
		common.LogError("保存冪等結果失敗",
			zap.String("idempotency_key", key),
			zap.Error(err),
			zap.String("request_id", requestID),
		)
	}

	common.LogInfo("烹飪扣庫存完成",
		zap.String("idempotency_key", key),
		zap.Int("ingredients", len(requests)),
		zap.Int("updates", len(result.Updates)),
		zap.String("request_id", requestID),
	)
	return result, nil
}

func (s *Service) commit(ctx context.Context, key string, requests []inventory.ConsumptionRequest, items []common.InventoryItem, requestID string) (*CommitResult, error) {
	plan, err := s.Plan(ctx, requests, items, requestID)
	if err != nil {
		return nil, err
	}
	result := &CommitResult{IdempotencyKey: key, Plan: plan}

	if plan.OverConsumed {
		common.LogWarn("庫存不足，取消扣庫存",
			zap.Strings("shortages", plan.Shortages),
			zap.String("request_id", requestID),
		)
		return result, common.ErrOverConsumption.WithCause(
			fmt.Errorf("insufficient stock: %s", strings.Join(plan.Shortages, ", ")))
	}

	result.Updates = plan.UpdatePayload()
	if len(result.Updates) == 0 {
		return result, nil
	}

	if s.gateway == nil {
		return nil, common.ErrServiceUnavailable.WithCause(errors.New("inventory api is not configured"))
	}
	common.LogDebug("送出庫存更新",
		zap.String("updates", common.FormatUpdates(result.Updates)),
		zap.String("request_id", requestID),
	)
	if err := s.gateway.UpdateInventory(ctx, common.InventoryUpdateRequest{Items: result.Updates}, key, requestID); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) batches(ctx context.Context, items []common.InventoryItem, requestID string) ([]inventory.Batch, error) {
	if items == nil {
		if s.gateway == nil {
			return nil, common.ErrInvalidRequest.WithCause(errors.New("inventory is required"))
		}
		fetched, err := s.gateway.ListInventory(ctx, requestID)
		if err != nil {
			return nil, err
		}
		items = fetched
	}
	return inventory.BatchesFromItems(items), nil
}

// duplicate 重複提交的錯誤；已完成時附上先前的結果
func (s *Service) duplicate(ctx context.Context, key string) error {
	entry, err := s.store.Lookup(ctx, key)
	if err != nil || entry.State != idempotency.StateCompleted {
		return common.ErrDuplicateCommit
	}
	return common.ErrDuplicateCommit.WithCause(fmt.Errorf("already committed: %s", string(entry.Result)))
}
