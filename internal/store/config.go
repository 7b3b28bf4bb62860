package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// 配置键
const (
	ConfigLastImportAt          = "last_import_at"
	ConfigDefaultUsageMonths    = "default_usage_months"
	defaultUsageMonthsIfUnknown = 36
)

// GetConfig 获取配置项
func (s *Store) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("config key %s: %w", key, ErrNotFound)
		}
		return "", err
	}
	return value, nil
}

// GetConfigInt 获取整数配置项
func (s *Store) GetConfigInt(ctx context.Context, key string) (int, error) {
	value, err := s.GetConfig(ctx, key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(value)
}

// SetConfig 设置配置项
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP
	`, key, value, value)
	if err != nil {
		return fmt.Errorf("failed to set config %s: %w", key, err)
	}
	return nil
}

// SetConfigInt 设置整数配置项
func (s *Store) SetConfigInt(ctx context.Context, key string, value int) error {
	return s.SetConfig(ctx, key, strconv.Itoa(value))
}

// DefaultUsageMonths 未填写使用月数的设备按此折旧（默认 36）
func (s *Store) DefaultUsageMonths(ctx context.Context) int {
	n, err := s.GetConfigInt(ctx, ConfigDefaultUsageMonths)
	if err != nil || n <= 0 {
		return defaultUsageMonthsIfUnknown
	}
	return n
}

// SetLastImportAt 记录最近一次导入完成时间
func (s *Store) SetLastImportAt(ctx context.Context, t time.Time) error {
	return s.SetConfig(ctx, ConfigLastImportAt, t.UTC().Format(time.RFC3339))
}

// LastImportAt 最近一次导入完成时间；从未导入时返回 nil
func (s *Store) LastImportAt(ctx context.Context) (*time.Time, error) {
	value, err := s.GetConfig(ctx, ConfigLastImportAt)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigLastImportAt, err)
	}
	return &t, nil
}
