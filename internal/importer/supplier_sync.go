package importer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"stockmate/internal/model"
	memstore "stockmate/internal/service/store"
	"stockmate/internal/store"
)

// SupplierStore 供应商参考表读写
type SupplierStore interface {
	ListSupplierNames(ctx context.Context) (map[string]bool, error)
	InsertSupplier(ctx context.Context, sp *model.Supplier) error
}

// SupplierSynchronizer 把设备上出现的供应商补录到参考表
type SupplierSynchronizer struct {
	store SupplierStore
	cache *memstore.ProductCache
}

// NewSupplierSynchronizer 创建供应商同步器
func NewSupplierSynchronizer(st SupplierStore, cache *memstore.ProductCache) *SupplierSynchronizer {
	return &SupplierSynchronizer{store: st, cache: cache}
}

// SyncSuppliers 插入缓存中出现但参考表中没有的供应商，返回新增数量
//
// 名称去空白后精确比较；重复执行不会产生新记录。
func (s *SupplierSynchronizer) SyncSuppliers(ctx context.Context) (int, error) {
	existing, err := s.store.ListSupplierNames(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load suppliers: %w", err)
	}

	inserted := 0
	for _, name := range s.cache.SupplierNames() {
		if existing[name] {
			continue
		}
		sp := &model.Supplier{Name: name, Active: true}
		if err := s.store.InsertSupplier(ctx, sp); err != nil {
			// 并发写入时已被他人插入
			if errors.Is(err, store.ErrDuplicateSupplier) {
				existing[name] = true
				continue
			}
			return inserted, fmt.Errorf("failed to insert supplier %q: %w", name, err)
		}
		existing[name] = true
		inserted++
		zap.L().Debug("supplier added", zap.String("name", name))
	}
	return inserted, nil
}
