package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"stockmate/internal/model"
)

// ErrProductNotFound 内存中不存在该序列号
var ErrProductNotFound = errors.New("product not found")

// ProductCache 内存中的设备列表快照
//
// 每次导入结束后整体重载；供应商同步与报表从这里读取。
type ProductCache struct {
	products []*model.Product
	bySerial map[string]*model.Product
	loadedAt time.Time
	mu       sync.RWMutex
}

// NewProductCache 创建空的设备缓存
func NewProductCache() *ProductCache {
	return &ProductCache{
		bySerial: make(map[string]*model.Product),
	}
}

// SetProducts 替换整个设备列表
func (c *ProductCache) SetProducts(products []*model.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.products = make([]*model.Product, len(products))
	copy(c.products, products)
	c.bySerial = make(map[string]*model.Product, len(products))
	for _, p := range products {
		c.bySerial[p.SerialNumber] = p
	}
	c.loadedAt = time.Now()
}

// All 获取全部设备（返回副本切片）
func (c *ProductCache) All() []*model.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*model.Product, len(c.products))
	copy(out, c.products)
	return out
}

// BySerial 按序列号查找
func (c *ProductCache) BySerial(serial string) (*model.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.bySerial[serial]
	if !ok {
		return nil, ErrProductNotFound
	}
	return p, nil
}

// SupplierNames 设备上出现过的供应商名称（去空白、去重、排序）
func (c *ProductCache) SupplierNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool)
	var names []string
	for _, p := range c.products {
		name := p.SupplierName()
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count 获取设备数量
func (c *ProductCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// LoadedAt 最近一次重载时间
func (c *ProductCache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// Clear 清空缓存
func (c *ProductCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = nil
	c.bySerial = make(map[string]*model.Product)
}
