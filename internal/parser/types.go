package parser

import (
	"time"

	"stockmate/internal/model"
)

// FieldKind 字段取值类型（决定补齐策略）
type FieldKind int

const (
	FieldString FieldKind = iota
	FieldNumber
	FieldDate
	FieldEnum
)

// FieldSpec 规范字段定义：历史列名别名 + 类型 + 是否必填
type FieldSpec struct {
	Field    string    `json:"field"`
	Aliases  []string  `json:"aliases"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
}

// FileFormat 导入文件格式
type FileFormat string

const (
	FormatJSON    FileFormat = "json"
	FormatCSV     FileFormat = "csv"
	FormatXLSX    FileFormat = "xlsx"
	FormatUnknown FileFormat = "unknown"
)

// TemplateType 表头模板类型
type TemplateType string

const (
	TemplateLegacy    TemplateType = "legacy"    // 旧版导出表头（N° DE SERIE / TYPE DE MATERIEL ...）
	TemplateStandard  TemplateType = "template"  // 新版导入模板（N° SERIE / TYPE MATERIEL ...）
	TemplateCanonical TemplateType = "canonical" // JSON 规范字段名（serialNumber ...）
	TemplateUnknown   TemplateType = "unknown"
)

// TemplateRecognitionResult 表头识别结果
type TemplateRecognitionResult struct {
	Template   TemplateType `json:"template"`
	Confidence float64      `json:"confidence"` // 置信度 0-1
	Matched    []string     `json:"matched"`    // 命中的规范字段
	Unmapped   []string     `json:"unmapped"`   // 无法映射的列名
}

// ImportReport 导入报告
type ImportReport struct {
	Filename       string               `json:"filename"`
	Format         FileFormat           `json:"format"`
	Template       TemplateType         `json:"template"`
	TotalRows      int                  `json:"totalRows"`
	Outcome        *model.ImportOutcome `json:"outcome"`
	SuppliersAdded int                  `json:"suppliersAdded"`
	Duration       time.Duration        `json:"duration"`
}
