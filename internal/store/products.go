package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"stockmate/internal/model"
)

const productColumns = `
	id, serial_number, brand, model, equipment_type, assignment,
	entry_date, reevaluation_date, supplier, invoice_number,
	purchase_price_ht, usage_duration_months,
	quantity, current_quantity, status, comments,
	created_at, updated_at`

// InsertProduct 插入单个设备，成功后回填 ID
func (s *Store) InsertProduct(ctx context.Context, p *model.Product) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO products (
			serial_number, brand, model, equipment_type, assignment,
			entry_date, reevaluation_date, supplier, invoice_number,
			purchase_price_ht, usage_duration_months,
			quantity, current_quantity, status, comments
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.SerialNumber, p.Brand, p.Model, string(p.EquipmentType), p.Assignment,
		p.EntryDate, p.ReevaluationDate, p.Supplier, p.InvoiceNumber,
		p.PurchasePriceHT, p.UsageDurationMonths,
		p.Quantity, p.CurrentQuantity, string(p.Status), p.Comments,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateSerial, p.SerialNumber)
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get product id: %w", err)
	}
	p.ID = id
	return nil
}

// SerialExists 序列号是否已存在
func (s *Store) SerialExists(ctx context.Context, serial string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM products WHERE serial_number = ?", serial).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check serial number: %w", err)
	}
	return n > 0, nil
}

// GetProduct 按 ID 获取设备
func (s *Store) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// GetProductBySerial 按序列号获取设备
func (s *Store) GetProductBySerial(ctx context.Context, serial string) (*model.Product, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE serial_number = ?", serial)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// ProductQueryOptions 设备查询选项
type ProductQueryOptions struct {
	Status        *model.ProductStatus
	EquipmentType *model.EquipmentType
	Supplier      *string
	Keyword       string // 匹配序列号 / 品牌 / 型号 / 使用人
	Limit         int
	Offset        int
}

func (opts ProductQueryOptions) where() (string, []interface{}) {
	query := " WHERE 1=1"
	args := []interface{}{}

	if opts.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*opts.Status))
	}
	if opts.EquipmentType != nil {
		query += " AND equipment_type = ?"
		args = append(args, string(*opts.EquipmentType))
	}
	if opts.Supplier != nil {
		query += " AND TRIM(supplier) = ?"
		args = append(args, strings.TrimSpace(*opts.Supplier))
	}
	if kw := strings.TrimSpace(opts.Keyword); kw != "" {
		like := "%" + kw + "%"
		query += " AND (serial_number LIKE ? OR brand LIKE ? OR model LIKE ? OR assignment LIKE ?)"
		args = append(args, like, like, like, like)
	}
	return query, args
}

// ListProducts 查询设备列表（按 ID 升序）
func (s *Store) ListProducts(ctx context.Context, opts ProductQueryOptions) ([]*model.Product, error) {
	where, args := opts.where()
	query := "SELECT " + productColumns + " FROM products" + where + " ORDER BY id"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var out []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return out, nil
}

// CountProducts 统计满足条件的设备数量
func (s *Store) CountProducts(ctx context.Context, opts ProductQueryOptions) (int, error) {
	where, args := opts.where()
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM products"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// UpdateProduct 更新设备的全部可编辑字段
func (s *Store) UpdateProduct(ctx context.Context, p *model.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products SET
			serial_number = ?, brand = ?, model = ?, equipment_type = ?, assignment = ?,
			entry_date = ?, reevaluation_date = ?, supplier = ?, invoice_number = ?,
			purchase_price_ht = ?, usage_duration_months = ?,
			quantity = ?, current_quantity = ?, status = ?, comments = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`,
		p.SerialNumber, p.Brand, p.Model, string(p.EquipmentType), p.Assignment,
		p.EntryDate, p.ReevaluationDate, p.Supplier, p.InvoiceNumber,
		p.PurchasePriceHT, p.UsageDurationMonths,
		p.Quantity, p.CurrentQuantity, string(p.Status), p.Comments,
		p.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateSerial, p.SerialNumber)
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	return expectAffected(res)
}

// UpdateProductStatus 修改设备状态
func (s *Store) UpdateProductStatus(ctx context.Context, id int64, status model.ProductStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update product status: %w", err)
	}
	return expectAffected(res)
}

// DeleteProduct 删除设备
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*model.Product, error) {
	var (
		p                     model.Product
		equipmentType, status string
		assignment, entryDate sql.NullString
		reevaluation          sql.NullString
		supplier, invoice     sql.NullString
		comments              sql.NullString
		price                 sql.NullFloat64
		duration              sql.NullInt64
		createdAt, updatedAt  sql.NullTime
	)
	err := row.Scan(
		&p.ID, &p.SerialNumber, &p.Brand, &p.Model, &equipmentType, &assignment,
		&entryDate, &reevaluation, &supplier, &invoice,
		&price, &duration,
		&p.Quantity, &p.CurrentQuantity, &status, &comments,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.EquipmentType = model.EquipmentType(equipmentType)
	p.Status = model.ProductStatus(status)
	p.Assignment = nullString(assignment)
	p.EntryDate = nullString(entryDate)
	p.ReevaluationDate = nullString(reevaluation)
	p.Supplier = nullString(supplier)
	p.InvoiceNumber = nullString(invoice)
	p.Comments = nullString(comments)
	if price.Valid {
		v := price.Float64
		p.PurchasePriceHT = &v
	}
	if duration.Valid {
		v := int(duration.Int64)
		p.UsageDurationMonths = &v
	}
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time
	return &p, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
