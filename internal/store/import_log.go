package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stockmate/internal/model"
)

// 导入日志状态
const (
	ImportStatusProcessing = "processing"
	ImportStatusDone       = "done"
	ImportStatusError      = "error"
)

// CreateImportLog 创建导入日志，返回 import_log_id
func (s *Store) CreateImportLog(ctx context.Context, filename, format string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO import_logs (filename, format, status)
		VALUES (?, ?, ?)
	`, filename, format, ImportStatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// ImportLogUpdate 导入完成时写回的统计
type ImportLogUpdate struct {
	Template     string
	TotalRows    int
	ImportedRows int
	ErrorRows    int
	Status       string
	ErrorMessage string
}

// UpdateImportLog 完成导入日志更新
func (s *Store) UpdateImportLog(ctx context.Context, id int64, u ImportLogUpdate) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE import_logs SET
			template = ?,
			total_rows = ?,
			imported_rows = ?,
			error_rows = ?,
			status = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, u.Template, u.TotalRows, u.ImportedRows, u.ErrorRows, u.Status, u.ErrorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// ListImportLogs 最近的导入日志（倒序）
func (s *Store) ListImportLogs(ctx context.Context, limit int) ([]*model.ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, format, template, total_rows, imported_rows, error_rows,
			status, error_message, created_at, completed_at
		FROM import_logs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import logs: %w", err)
	}
	defer rows.Close()

	out := []*model.ImportLog{}
	for rows.Next() {
		var (
			l           model.ImportLog
			createdAt   sql.NullTime
			completedAt sql.NullTime
		)
		if err := rows.Scan(
			&l.ID, &l.Filename, &l.Format, &l.Template, &l.TotalRows, &l.ImportedRows, &l.ErrorRows,
			&l.Status, &l.ErrorMessage, &createdAt, &completedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan import log: %w", err)
		}
		if createdAt.Valid {
			l.CreatedAt = createdAt.Time.Format(time.RFC3339)
		}
		if completedAt.Valid {
			v := completedAt.Time.Format(time.RFC3339)
			l.CompletedAt = &v
		}
		out = append(out, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate import logs: %w", err)
	}
	return out, nil
}
