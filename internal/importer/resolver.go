package importer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"stockmate/internal/model"
)

// SerialChecker 序列号存在性查询
type SerialChecker interface {
	SerialExists(ctx context.Context, serial string) (bool, error)
}

// Resolver 序列号去重：保证写入前序列号在库中唯一
type Resolver struct {
	checker SerialChecker
	now     func() time.Time
	suffix  func() string
}

// NewResolver 创建序列号解析器
func NewResolver(checker SerialChecker) *Resolver {
	return &Resolver{
		checker: checker,
		now:     time.Now,
		suffix:  shortRandom,
	}
}

// Resolve 返回可写入的序列号
//
// 空序列号生成 <品牌>-<型号>-<时间戳>-<随机>；已存在时追加 -<时间戳>-<随机>；否则原样返回。
// 查询失败时返回错误，由调用方记为该行失败。
func (r *Resolver) Resolve(ctx context.Context, p *model.Product) (string, error) {
	serial := strings.TrimSpace(p.SerialNumber)
	if serial == "" {
		return r.generate(p), nil
	}

	exists, err := r.checker.SerialExists(ctx, serial)
	if err != nil {
		return "", err
	}
	if exists {
		return r.Disambiguate(serial), nil
	}
	return serial, nil
}

// Disambiguate 在序列号后追加时间戳与随机后缀
func (r *Resolver) Disambiguate(serial string) string {
	return fmt.Sprintf("%s-%s-%s", serial, r.timestamp(), r.suffix())
}

func (r *Resolver) generate(p *model.Product) string {
	return fmt.Sprintf("%s-%s-%s-%s", p.Brand, p.Model, r.timestamp(), r.suffix())
}

func (r *Resolver) timestamp() string {
	return strconv.FormatInt(r.now().UnixMilli(), 10)
}

// shortRandom 6 位随机后缀
func shortRandom() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
}
