package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockmate/internal/model"
)

func strPtr(s string) *string    { return &s }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func findIndicator(t *testing.T, groups []IndicatorGroup, id string) Indicator {
	t.Helper()
	for _, g := range groups {
		for _, ind := range g.Indicators {
			if ind.ID == id {
				return ind
			}
		}
	}
	t.Fatalf("indicator %s not found", id)
	return Indicator{}
}

func TestResidualValue(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)

	// 36 个月折旧，已用 24 个月
	p := &model.Product{PurchasePriceHT: floatPtr(360), EntryDate: strPtr("2022-01-17"), UsageDurationMonths: intPtr(36)}
	assert.InDelta(t, 120.0, ResidualValue(p, now, 36), 1e-9)

	// 超过使用期
	p = &model.Product{PurchasePriceHT: floatPtr(360), EntryDate: strPtr("2019-01-01"), UsageDurationMonths: intPtr(36)}
	assert.Zero(t, ResidualValue(p, now, 36))

	// 缺少使用月数时使用默认值
	p = &model.Product{PurchasePriceHT: floatPtr(480), EntryDate: strPtr("2023-01-17")}
	assert.InDelta(t, 360.0, ResidualValue(p, now, 48), 1e-9)

	// 没有入库日期不折旧
	p = &model.Product{PurchasePriceHT: floatPtr(100)}
	assert.InDelta(t, 100.0, ResidualValue(p, now, 36), 1e-9)

	assert.Zero(t, ResidualValue(&model.Product{}, now, 36))
}

func TestMonthsBetween(t *testing.T) {
	t.Parallel()

	from := time.Date(2022, 1, 17, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 24, monthsBetween(from, time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 23, monthsBetween(from, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, monthsBetween(from, from))
}

func TestCompute(t *testing.T) {
	t.Parallel()

	products := []*model.Product{
		{SerialNumber: "A", Brand: "HP", Model: "X", EquipmentType: model.EquipmentLaptop, Status: model.StatusInUse,
			Assignment: strPtr("Jean"), PurchasePriceHT: floatPtr(1000), CurrentQuantity: 1},
		{SerialNumber: "B", Brand: "FAKE_BRAND_abc", Model: "Y", EquipmentType: model.EquipmentPrinter, Status: model.StatusInStock,
			CurrentQuantity: 1},
		{SerialNumber: "C", Brand: "DELL", Model: "Z", EquipmentType: model.EquipmentLaptop, Status: model.StatusBroken,
			PurchasePriceHT: floatPtr(250.5), CurrentQuantity: 1},
	}

	groups := Compute(products, Params{Now: time.Now(), DefaultUsageMonths: 36, Suppliers: 4})
	require.Len(t, groups, 5)

	assert.Equal(t, 3.0, findIndicator(t, groups, "total_products").Value)
	assert.Equal(t, 3.0, findIndicator(t, groups, "total_units").Value)
	assert.Equal(t, 4.0, findIndicator(t, groups, "total_suppliers").Value)
	assert.Equal(t, 1.0, findIndicator(t, groups, "backfilled_products").Value)

	assert.Equal(t, 1.0, findIndicator(t, groups, "status_EN_STOCK").Value)
	assert.Equal(t, 0.0, findIndicator(t, groups, "status_SAV").Value)
	assert.Equal(t, 2.0, findIndicator(t, groups, "type_pc_portable").Value)

	assert.InDelta(t, 1250.5, findIndicator(t, groups, "purchase_total").Value, 1e-9)
	assert.Equal(t, 2.0, findIndicator(t, groups, "priced_products").Value)
	assert.Equal(t, 1.0, findIndicator(t, groups, "unpriced_products").Value)

	assert.Equal(t, 1.0, findIndicator(t, groups, "assigned").Value)
	assert.Equal(t, 2.0, findIndicator(t, groups, "unassigned").Value)
}
