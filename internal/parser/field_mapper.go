package parser

import (
	"sort"

	"stockmate/internal/model"
)

// 规范字段名
const (
	FieldSerialNumber        = "serialNumber"
	FieldBrand               = "brand"
	FieldModel               = "model"
	FieldEquipmentType       = "equipmentType"
	FieldAssignment          = "assignment"
	FieldEntryDate           = "entryDate"
	FieldSupplier            = "supplier"
	FieldInvoiceNumber       = "invoiceNumber"
	FieldPurchasePriceHT     = "purchasePriceHt"
	FieldUsageDurationMonths = "usageDurationMonths"
	FieldReevaluationDate    = "reevaluationDate"
	FieldComments            = "comments"
	FieldStatus              = "status"
)

// ProductFields 别名表：每个规范字段对应的所有历史列名
//
// 新增列名写法只需在对应 Aliases 中追加一项。
var ProductFields = []FieldSpec{
	{Field: FieldSerialNumber, Kind: FieldString, Required: true,
		Aliases: []string{"N° SERIE", "N° DE SERIE", "NUMERO DE SERIE", "serialNumber", "serial_number"}},
	{Field: FieldBrand, Kind: FieldString, Required: true,
		Aliases: []string{"MARQUE", "brand"}},
	{Field: FieldModel, Kind: FieldString, Required: true,
		Aliases: []string{"MODELE ou DESCRIPTION", "MODELE", "DESCRIPTION", "model"}},
	{Field: FieldEquipmentType, Kind: FieldEnum,
		Aliases: []string{"TYPE MATERIEL", "TYPE DE MATERIEL", "equipmentType", "equipment_type"}},
	{Field: FieldAssignment, Kind: FieldString,
		Aliases: []string{"AFFECTATION", "assignment"}},
	{Field: FieldEntryDate, Kind: FieldDate,
		Aliases: []string{"DATE ENTREE", "DATE RECEPTION", "entryDate", "entry_date"}},
	{Field: FieldSupplier, Kind: FieldString,
		Aliases: []string{"FOURNISSEUR", "supplier"}},
	{Field: FieldInvoiceNumber, Kind: FieldString,
		Aliases: []string{"N° FACTURE", "invoiceNumber", "invoice_number"}},
	{Field: FieldPurchasePriceHT, Kind: FieldNumber,
		Aliases: []string{"PRIX ACHAT HT", "purchasePriceHt", "purchase_price_ht"}},
	{Field: FieldUsageDurationMonths, Kind: FieldNumber,
		Aliases: []string{"DUREE PROBABLE D'UTILISATION en mois", "usageDurationMonths", "usage_duration_months"}},
	{Field: FieldReevaluationDate, Kind: FieldDate,
		Aliases: []string{"DATE REEVALUATION", "reevaluationDate", "reevaluation_date"}},
	{Field: FieldComments, Kind: FieldString,
		Aliases: []string{"COMMENTAIRES", "COMMENTAIRE", "comments"}},
	{Field: FieldStatus, Kind: FieldEnum,
		Aliases: []string{"STATUT", "ETAT", "status"}},
}

// MapperOptions 映射选项
type MapperOptions struct {
	RequireEntryDate bool // 缺失入库日期时补齐为当天
}

// FieldMapper 字段映射器：RawRecord → Product
type FieldMapper struct {
	fields    []FieldSpec
	backfill  *Backfiller
	aliasKeys map[string]string // 规范化列名 → 规范字段
}

// NewFieldMapper 创建字段映射器
func NewFieldMapper(opts MapperOptions) *FieldMapper {
	fields := make([]FieldSpec, len(ProductFields))
	copy(fields, ProductFields)
	if opts.RequireEntryDate {
		for i := range fields {
			if fields[i].Field == FieldEntryDate {
				fields[i].Required = true
			}
		}
	}
	return newFieldMapper(fields, NewBackfiller())
}

func newFieldMapper(fields []FieldSpec, b *Backfiller) *FieldMapper {
	aliasKeys := make(map[string]string)
	for _, f := range fields {
		for _, a := range f.Aliases {
			aliasKeys[NormalizeColumnName(a)] = f.Field
		}
	}
	return &FieldMapper{
		fields:    fields,
		backfill:  b,
		aliasKeys: aliasKeys,
	}
}

// FieldFor 返回列名对应的规范字段
func (m *FieldMapper) FieldFor(column string) (string, bool) {
	f, ok := m.aliasKeys[NormalizeColumnName(column)]
	return f, ok
}

// Lookup 按别名顺序查找取值；优先返回第一个非空值
func Lookup(rec model.RawRecord, aliases []string) (any, bool) {
	if len(rec) == 0 {
		return nil, false
	}
	return lookupIndexed(rec, indexRecord(rec), aliases)
}

// indexRecord 规范化列名 → 原始列名（按字典序）
//
// 多个原始列规范化后相同时全部保留，取值时按固定顺序挑第一个非空值。
func indexRecord(rec model.RawRecord) map[string][]string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	index := make(map[string][]string, len(keys))
	for _, k := range keys {
		norm := NormalizeColumnName(k)
		index[norm] = append(index[norm], k)
	}
	return index
}

func lookupIndexed(rec model.RawRecord, index map[string][]string, aliases []string) (any, bool) {
	var (
		fallback any
		found    bool
	)
	for _, alias := range aliases {
		for _, key := range index[NormalizeColumnName(alias)] {
			v := rec[key]
			if NormalizeText(v) != "" {
				return v, true
			}
			if !found {
				fallback, found = v, true
			}
		}
	}
	return fallback, found
}

// MapRecord 映射单行；映射本身不会失败，所有字段都有默认值
func (m *FieldMapper) MapRecord(rec model.RawRecord) *model.Product {
	index := indexRecord(rec)

	// 一行即一件实物
	product := &model.Product{
		EquipmentType:   model.DefaultEquipmentType,
		Quantity:        1,
		CurrentQuantity: 1,
		Status:          model.StatusInStock,
	}

	for _, spec := range m.fields {
		raw, _ := lookupIndexed(rec, index, spec.Aliases)
		m.setFieldValue(product, spec, raw)
	}

	return product
}

// setFieldValue 设置字段值
func (m *FieldMapper) setFieldValue(p *model.Product, spec FieldSpec, raw any) {
	switch spec.Field {
	case FieldSerialNumber:
		p.SerialNumber = m.text(spec, raw)
	case FieldBrand:
		p.Brand = m.text(spec, raw)
	case FieldModel:
		p.Model = m.text(spec, raw)
	case FieldEquipmentType:
		p.EquipmentType = NormalizeEquipmentType(raw)
	case FieldAssignment:
		p.Assignment = m.optionalText(spec, raw)
	case FieldEntryDate:
		p.EntryDate = m.date(spec, raw)
	case FieldSupplier:
		p.Supplier = m.optionalText(spec, raw)
	case FieldInvoiceNumber:
		p.InvoiceNumber = m.optionalText(spec, raw)
	case FieldPurchasePriceHT:
		p.PurchasePriceHT = NormalizePrice(raw)
	case FieldUsageDurationMonths:
		p.UsageDurationMonths = NormalizeDuration(raw)
	case FieldReevaluationDate:
		p.ReevaluationDate = m.date(spec, raw)
	case FieldComments:
		p.Comments = m.optionalText(spec, raw)
	case FieldStatus:
		p.Status = NormalizeStatus(raw)
	}
}

func (m *FieldMapper) text(spec FieldSpec, raw any) string {
	if spec.Required {
		return m.backfill.String(spec.Field, raw)
	}
	return NormalizeText(raw)
}

func (m *FieldMapper) optionalText(spec FieldSpec, raw any) *string {
	if spec.Required {
		s := m.backfill.String(spec.Field, raw)
		return &s
	}
	return NormalizeOptionalText(raw)
}

func (m *FieldMapper) date(spec FieldSpec, raw any) *string {
	if spec.Required {
		return m.backfill.Date(raw)
	}
	return NormalizeDate(raw)
}

