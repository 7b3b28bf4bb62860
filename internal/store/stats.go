package store

import (
	"context"
	"fmt"
)

// InventoryStats 库存概要统计
type InventoryStats struct {
	Products  int            `json:"products"`
	Units     int            `json:"units"`
	Suppliers int            `json:"suppliers"`
	Imports   int            `json:"imports"`
	ByStatus  map[string]int `json:"byStatus"`
}

// Stats 汇总库存概要
func (s *Store) Stats(ctx context.Context) (*InventoryStats, error) {
	st := &InventoryStats{ByStatus: map[string]int{}}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1), COALESCE(SUM(current_quantity), 0) FROM products",
	).Scan(&st.Products, &st.Units); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM suppliers").Scan(&st.Suppliers); err != nil {
		return nil, fmt.Errorf("failed to count suppliers: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM import_logs").Scan(&st.Imports); err != nil {
		return nil, fmt.Errorf("failed to count imports: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM products GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to group products by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		st.ByStatus[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate status counts: %w", err)
	}
	return st, nil
}
