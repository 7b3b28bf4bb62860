package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"stockmate/internal/model"
)

var (
	// ErrUnsupportedFormat 不支持的文件扩展名
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrEmptyFile 文件没有表头
	ErrEmptyFile = errors.New("file has no header row")
)

// ParsedFile 解析后的文件：三种格式最终都汇聚为 []RawRecord
type ParsedFile struct {
	Format  FileFormat
	Headers []string
	Records []model.RawRecord
}

// DetectFormat 根据扩展名判断文件格式
func DetectFormat(filename string) FileFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return FormatJSON
	case ".csv":
		return FormatCSV
	case ".xlsx", ".xls", ".xlsm":
		return FormatXLSX
	default:
		return FormatUnknown
	}
}

// ParseFile 打开并解析导入文件
func ParseFile(path string) (*ParsedFile, error) {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	return ParseFileAs(path, format)
}

// ParseFileAs 按指定格式解析文件（上传的临时文件名不一定保留扩展名）
func ParseFileAs(path string, format FileFormat) (*ParsedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return Parse(f, format)
}

// Parse 按格式解析；整份文件解析失败时返回错误（不返回部分结果）
func Parse(r io.Reader, format FileFormat) (*ParsedFile, error) {
	switch format {
	case FormatJSON:
		return ParseJSON(r)
	case FormatCSV:
		return ParseCSV(r)
	case FormatXLSX:
		return ParseXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// ParseJSON 解析 JSON 数组（元素为任意键的对象）
func ParseJSON(r io.Reader) (*ParsedFile, error) {
	var items []map[string]any
	dec := json.NewDecoder(r)
	// 数值保留原文，长序列号不丢精度
	dec.UseNumber()
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to decode json: %w", err)
	}

	out := &ParsedFile{
		Format:  FormatJSON,
		Records: make([]model.RawRecord, 0, len(items)),
	}
	seen := map[string]bool{}
	for _, item := range items {
		rec := make(model.RawRecord, len(item))
		for k, v := range item {
			rec[k] = scalar(v)
			if !seen[k] {
				seen[k] = true
				out.Headers = append(out.Headers, k)
			}
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

// scalar 嵌套对象/数组降级为字符串
func scalar(v any) any {
	switch v.(type) {
	case nil, string, float64, bool, json.Number:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

// ParseCSV 朴素 CSV 解析：首行为表头，按逗号切分，不处理引号内的逗号
func ParseCSV(r io.Reader) (*ParsedFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	lines := strings.Split(string(data), "\n")
	headerIdx := -1
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, ErrEmptyFile
	}

	headers := splitCSVLine(lines[headerIdx])
	out := &ParsedFile{
		Format:  FormatCSV,
		Headers: headers,
	}

	for _, line := range lines[headerIdx+1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		values := splitCSVLine(line)
		rec := make(model.RawRecord, len(headers))
		for i, h := range headers {
			if h == "" || i >= len(values) {
				continue
			}
			rec[h] = values[i]
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

func splitCSVLine(line string) []string {
	line = strings.TrimRight(line, "\r")
	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = stripQuotes(p)
	}
	return parts
}

// ParseXLSX 解析工作簿首个 Sheet：首行为表头，其余行按位置映射
func ParseXLSX(r io.Reader) (*ParsedFile, error) {
	file, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	sheet := sheets[0]

	// 读取原始值：日期保持为 Excel 序列号，由 NormalizeDate 统一转换
	rows, err := file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) < 1 {
		return nil, ErrEmptyFile
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	out := &ParsedFile{
		Format:  FormatXLSX,
		Headers: headers,
	}

	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		row := rows[rowIdx]
		rec := make(model.RawRecord, len(headers))
		for colIdx, h := range headers {
			if h == "" || colIdx >= len(row) {
				continue
			}
			value := strings.TrimSpace(row[colIdx])
			if value == "" {
				continue
			}
			rec[h] = xlsxCellValue(file, sheet, colIdx, rowIdx, value)
		}
		// 跳过空行
		if len(rec) == 0 {
			continue
		}
		out.Records = append(out.Records, rec)
	}
	return out, nil
}

// xlsxCellValue 数值单元格转 float64，布尔单元格转 bool，文本保持字符串
func xlsxCellValue(file *excelize.File, sheet string, colIdx, rowIdx int, value string) any {
	cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
	if err != nil {
		return value
	}
	typ, err := file.GetCellType(sheet, cell)
	if err != nil {
		return value
	}

	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return value
	case excelize.CellTypeBool:
		return value == "1" || strings.EqualFold(value, "true")
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}
