package model

import "fmt"

// RawRecord 源文件中的一行（列名 → 单元格值）
//
// 值只可能是 string / float64 / bool / nil；列名随来源格式不同而不同。
type RawRecord map[string]any

// ImportOutcome 一次批量导入的汇总结果
type ImportOutcome struct {
	Attempted int      `json:"attempted"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

// NewImportOutcome 创建导入结果（attempted 为源文件行数）
func NewImportOutcome(attempted int) *ImportOutcome {
	return &ImportOutcome{
		Attempted: attempted,
		Errors:    []string{},
	}
}

// RecordSuccess 记录一行成功
func (o *ImportOutcome) RecordSuccess() {
	o.Succeeded++
}

// RecordFailure 记录一行失败，serial 为空时使用 "unknown"
func (o *ImportOutcome) RecordFailure(serial string, err error) {
	if serial == "" {
		serial = "unknown"
	}
	o.Failed++
	o.Errors = append(o.Errors, fmt.Sprintf("Erreur import %s: %v", serial, err))
}

// ImportLog 导入日志
type ImportLog struct {
	ID           int64   `json:"id"`
	Filename     string  `json:"filename"`
	Format       string  `json:"format"`
	Template     string  `json:"template"`
	TotalRows    int     `json:"totalRows"`
	ImportedRows int     `json:"importedRows"`
	ErrorRows    int     `json:"errorRows"`
	Status       string  `json:"status"` // processing/done/error
	ErrorMessage string  `json:"errorMessage,omitempty"`
	CreatedAt    string  `json:"createdAt"`
	CompletedAt  *string `json:"completedAt,omitempty"`
}
