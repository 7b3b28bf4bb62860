package calculator

import (
	"context"
	"time"

	"stockmate/internal/model"
	"stockmate/internal/parser"
	memstore "stockmate/internal/service/store"
	"stockmate/internal/store"
)

// Indicator 指标定义
type Indicator struct {
	ID    string  `json:"id"`    // 指标ID
	Name  string  `json:"name"`  // 指标名称
	Value float64 `json:"value"` // 指标值
	Unit  string  `json:"unit"`  // 单位 (如 €、unités)
}

// IndicatorGroup 指标分组
type IndicatorGroup struct {
	Name       string      `json:"name"`       // 分组名称
	Indicators []Indicator `json:"indicators"` // 指标列表
}

// Params 计算参数
type Params struct {
	Now                time.Time
	DefaultUsageMonths int // 未填写使用月数时的折旧周期
	Suppliers          int // 供应商参考表条数
}

// Calculator 指标计算器
type Calculator struct {
	store *store.Store
	cache *memstore.ProductCache
}

// NewCalculator 创建计算器
func NewCalculator(store *store.Store, cache *memstore.ProductCache) *Calculator {
	return &Calculator{
		store: store,
		cache: cache,
	}
}

// CalculateAll 基于内存中的设备列表计算全部指标
func (c *Calculator) CalculateAll(ctx context.Context) ([]IndicatorGroup, error) {
	suppliers, err := c.store.ListSuppliers(ctx)
	if err != nil {
		return nil, err
	}

	return Compute(c.cache.All(), Params{
		Now:                time.Now(),
		DefaultUsageMonths: c.store.DefaultUsageMonths(ctx),
		Suppliers:          len(suppliers),
	}), nil
}

// Compute 计算指标分组（纯函数）
func Compute(products []*model.Product, p Params) []IndicatorGroup {
	return []IndicatorGroup{
		{Name: "Inventaire", Indicators: calculateTotals(products, p)},
		{Name: "Statut", Indicators: calculateStatus(products)},
		{Name: "Type de matériel", Indicators: calculateTypes(products)},
		{Name: "Valorisation", Indicators: calculateValuation(products, p)},
		{Name: "Affectation", Indicators: calculateAssignment(products)},
	}
}

// calculateTotals 总量（4个指标）
func calculateTotals(products []*model.Product, p Params) []Indicator {
	units := 0
	fake := 0
	for _, pr := range products {
		units += pr.CurrentQuantity
		if parser.IsFake(pr.SerialNumber) || parser.IsFake(pr.Brand) || parser.IsFake(pr.Model) {
			fake++
		}
	}

	return []Indicator{
		{ID: "total_products", Name: "Produits", Value: float64(len(products)), Unit: "produits"},
		{ID: "total_units", Name: "Unités en inventaire", Value: float64(units), Unit: "unités"},
		{ID: "total_suppliers", Name: "Fournisseurs", Value: float64(p.Suppliers), Unit: "fournisseurs"},
		{ID: "backfilled_products", Name: "Fiches à compléter", Value: float64(fake), Unit: "produits"},
	}
}

// calculateStatus 按状态统计
func calculateStatus(products []*model.Product) []Indicator {
	counts := make(map[model.ProductStatus]int)
	for _, pr := range products {
		counts[pr.Status]++
	}

	out := make([]Indicator, 0, len(model.ProductStatuses))
	for _, s := range model.ProductStatuses {
		out = append(out, Indicator{
			ID:    "status_" + string(s),
			Name:  statusLabels[s],
			Value: float64(counts[s]),
			Unit:  "produits",
		})
	}
	return out
}

var statusLabels = map[model.ProductStatus]string{
	model.StatusInStock: "En stock",
	model.StatusRepair:  "SAV",
	model.StatusInUse:   "En utilisation",
	model.StatusBroken:  "Hors service",
}

// calculateTypes 按设备类型统计（只列出数量非零的类型）
func calculateTypes(products []*model.Product) []Indicator {
	counts := make(map[model.EquipmentType]int)
	for _, pr := range products {
		counts[pr.EquipmentType]++
	}

	out := []Indicator{}
	for _, t := range model.EquipmentTypes {
		if counts[t] == 0 {
			continue
		}
		out = append(out, Indicator{
			ID:    "type_" + string(t),
			Name:  string(t),
			Value: float64(counts[t]),
			Unit:  "produits",
		})
	}
	return out
}

// calculateValuation 采购金额与直线折旧后的剩余价值（4个指标）
func calculateValuation(products []*model.Product, p Params) []Indicator {
	var (
		purchaseTotal float64
		residualTotal float64
		priced        int
		unpriced      int
	)
	for _, pr := range products {
		if pr.PurchasePriceHT == nil {
			unpriced++
			continue
		}
		priced++
		qty := float64(pr.CurrentQuantity)
		purchaseTotal += *pr.PurchasePriceHT * qty
		residualTotal += ResidualValue(pr, p.Now, p.DefaultUsageMonths) * qty
	}

	return []Indicator{
		{ID: "purchase_total", Name: "Valeur d'achat HT", Value: round2(purchaseTotal), Unit: "€"},
		{ID: "residual_total", Name: "Valeur résiduelle", Value: round2(residualTotal), Unit: "€"},
		{ID: "priced_products", Name: "Produits valorisés", Value: float64(priced), Unit: "produits"},
		{ID: "unpriced_products", Name: "Produits sans prix", Value: float64(unpriced), Unit: "produits"},
	}
}

// ResidualValue 直线折旧后的单件剩余价值
//
// 没有价格返回 0；没有入库日期按未折旧处理；使用月数缺失时使用 defaultMonths。
func ResidualValue(pr *model.Product, now time.Time, defaultMonths int) float64 {
	if pr.PurchasePriceHT == nil {
		return 0
	}
	price := *pr.PurchasePriceHT
	if pr.EntryDate == nil {
		return price
	}
	entry, err := time.Parse("2006-01-02", *pr.EntryDate)
	if err != nil {
		return price
	}

	months := defaultMonths
	if pr.UsageDurationMonths != nil {
		months = *pr.UsageDurationMonths
	}
	if months <= 0 {
		return price
	}

	elapsed := monthsBetween(entry, now)
	if elapsed <= 0 {
		return price
	}
	if elapsed >= months {
		return 0
	}
	return price * float64(months-elapsed) / float64(months)
}

// monthsBetween 完整月数
func monthsBetween(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	return months
}

// calculateAssignment 分配情况（2个指标）
func calculateAssignment(products []*model.Product) []Indicator {
	assigned := 0
	for _, pr := range products {
		if pr.Assignment != nil && *pr.Assignment != "" {
			assigned++
		}
	}
	return []Indicator{
		{ID: "assigned", Name: "Affectés", Value: float64(assigned), Unit: "produits"},
		{ID: "unassigned", Name: "Non affectés", Value: float64(len(products) - assigned), Unit: "produits"},
	}
}

func round2(v float64) float64 {
	if v < 0 {
		return -round2(-v)
	}
	return float64(int64(v*100+0.5)) / 100
}
