package store

import (
	"context"
	"fmt"
	"strings"

	"stockmate/internal/model"
)

// ListSuppliers 获取供应商参考表（按名称排序）
func (s *Store) ListSuppliers(ctx context.Context) ([]*model.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, contact_name, email, phone, address, active, created_at
		FROM suppliers
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", err)
	}
	defer rows.Close()

	var out []*model.Supplier
	for rows.Next() {
		var sp model.Supplier
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.ContactName, &sp.Email, &sp.Phone, &sp.Address, &sp.Active, &sp.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		out = append(out, &sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate suppliers: %w", err)
	}
	return out, nil
}

// ListSupplierNames 获取已存在的供应商名称集合
func (s *Store) ListSupplierNames(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM suppliers")
	if err != nil {
		return nil, fmt.Errorf("failed to query supplier names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan supplier name: %w", err)
		}
		names[strings.TrimSpace(name)] = true
	}
	return names, rows.Err()
}

// InsertSupplier 新增供应商
func (s *Store) InsertSupplier(ctx context.Context, sp *model.Supplier) error {
	sp.Name = strings.TrimSpace(sp.Name)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (name, contact_name, email, phone, address, active)
		VALUES (?, ?, ?, ?, ?, ?)
	`, sp.Name, sp.ContactName, sp.Email, sp.Phone, sp.Address, sp.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateSupplier, sp.Name)
		}
		return fmt.Errorf("failed to insert supplier: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get supplier id: %w", err)
	}
	sp.ID = id
	return nil
}
