package parser

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// FakePrefix 合成占位值前缀，便于与真实数据区分
const FakePrefix = "FAKE_"

// Backfiller 必填字段补齐器
//
// 字符串补齐为 FAKE_<FIELD>_<随机后缀>；数值从不伪造（返回 nil）；日期补齐为当天。
type Backfiller struct {
	now    func() time.Time
	suffix func() string
}

// NewBackfiller 创建补齐器
func NewBackfiller() *Backfiller {
	return &Backfiller{
		now:    time.Now,
		suffix: randomSuffix,
	}
}

// Backfill 按字段类型补齐缺失值；已有非空值原样返回
//
// 返回值：FieldString → string，FieldNumber → float64 或 nil，FieldDate → string。
func (b *Backfiller) Backfill(field string, value any, kind FieldKind) any {
	switch kind {
	case FieldString:
		return b.String(field, value)
	case FieldNumber:
		if f, ok := parseNumber(value); ok {
			return f
		}
		return nil
	case FieldDate:
		return *b.Date(value)
	default:
		if value == nil {
			return nil
		}
		return value
	}
}

// String 字符串字段补齐
func (b *Backfiller) String(field string, value any) string {
	if s := NormalizeText(value); s != "" {
		return s
	}
	return FakePrefix + fieldToken(field) + "_" + b.suffix()
}

// Date 日期字段补齐为当天
func (b *Backfiller) Date(value any) *string {
	if d := NormalizeDate(value); d != nil {
		return d
	}
	today := b.now().Format(isoLayout)
	return &today
}

// IsFake 是否为补齐生成的占位值
func IsFake(s string) bool {
	return strings.HasPrefix(s, FakePrefix)
}

// fieldToken serialNumber → SERIAL_NUMBER
func fieldToken(field string) string {
	var sb strings.Builder
	for i, r := range field {
		if unicode.IsUpper(r) && i > 0 {
			sb.WriteByte('_')
		}
		if r == ' ' || r == '-' {
			sb.WriteByte('_')
			continue
		}
		sb.WriteRune(unicode.ToUpper(r))
	}
	return sb.String()
}

// randomSuffix 12 位十六进制随机后缀
func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
