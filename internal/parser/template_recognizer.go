package parser

import "sort"

// TemplateRecognizer 表头模板识别器
type TemplateRecognizer struct {
	mapper *FieldMapper
}

// NewTemplateRecognizer 创建识别器
func NewTemplateRecognizer() *TemplateRecognizer {
	return &TemplateRecognizer{
		mapper: NewFieldMapper(MapperOptions{}),
	}
}

// 各模板的特征列（两种模板共有的 MARQUE / FOURNISSEUR 等不参与区分）
var templateKeyColumns = map[TemplateType][]string{
	TemplateLegacy:    {"N° DE SERIE", "TYPE DE MATERIEL", "DATE RECEPTION", "MODELE"},
	TemplateStandard:  {"N° SERIE", "TYPE MATERIEL", "DATE ENTREE", "MODELE ou DESCRIPTION"},
	TemplateCanonical: {"serialNumber", "equipmentType", "entryDate", "brand", "model"},
}

// 识别顺序（置信度相同时靠前者优先）
var templateOrder = []TemplateType{TemplateStandard, TemplateLegacy, TemplateCanonical}

// Recognize 识别表头模板
func (r *TemplateRecognizer) Recognize(columnNames []string) TemplateRecognitionResult {
	// 规范化列名
	normalized := make(map[string]bool, len(columnNames))
	for _, col := range columnNames {
		normalized[NormalizeColumnName(col)] = true
	}

	result := TemplateRecognitionResult{
		Template: TemplateUnknown,
		Matched:  []string{},
		Unmapped: []string{},
	}

	// 统计命中的规范字段与无法映射的列
	matched := map[string]bool{}
	for _, col := range columnNames {
		if NormalizeColumnName(col) == "" {
			continue
		}
		if field, ok := r.mapper.FieldFor(col); ok {
			matched[field] = true
		} else {
			result.Unmapped = append(result.Unmapped, col)
		}
	}
	for field := range matched {
		result.Matched = append(result.Matched, field)
	}
	sort.Strings(result.Matched)

	// 依次尝试各模板
	for _, tpl := range templateOrder {
		keys := templateKeyColumns[tpl]
		hit := 0
		for _, key := range keys {
			if normalized[NormalizeColumnName(key)] {
				hit++
			}
		}
		confidence := float64(hit) / float64(len(keys))
		if confidence >= 0.5 && confidence > result.Confidence {
			result.Template = tpl
			result.Confidence = confidence
		}
	}

	return result
}
