package products

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockline-erp/stockline/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	GetBySKU(ctx context.Context, sku string) (Product, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	UpsertFromWoo(ctx context.Context, p Product) error
	SetEAN(ctx context.Context, id int64, ean string) error
	Suppliers(ctx context.Context, productID int64) ([]ProductSupplier, error)
	SaveSupplier(ctx context.Context, link ProductSupplier) error
	RemoveSupplier(ctx context.Context, productID, supplierID int64) error
	ListSuppliers(ctx context.Context) ([]Supplier, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const productColumns = `id, connection_id, woo_id, sku, ean, name, price, stock_quantity, stock_status, status, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Product, int, error) {
	query := `SELECT ` + productColumns + ` FROM woo_products WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM woo_products WHERE 1=1`
	args := []any{}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		cond := ` AND (name ILIKE $` + strconv.Itoa(len(args)) + ` OR sku ILIKE $` + strconv.Itoa(len(args)) + `)`
		query += cond
		countQuery += cond
	}
	if filters.ConnectionID != nil {
		args = append(args, *filters.ConnectionID)
		cond := ` AND connection_id = $` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
	}
	if filters.StockStatus != "" {
		args = append(args, filters.StockStatus)
		cond := ` AND stock_status = $` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		cond := ` AND status = $` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name`
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM woo_products WHERE id = $1`, id), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

func (r *repository) GetBySKU(ctx context.Context, sku string) (Product, error) {
	var p Product
	err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM woo_products WHERE sku = $1`, sku), &p)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	return p, err
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM woo_products WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *repository) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, sku, name, price FROM woo_products
		WHERE stock_status = $1 AND (name ILIKE $2 OR sku ILIKE $2)
		ORDER BY name
		LIMIT $3`, StockStatusInStock, "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var sr SearchResult
		if err := rows.Scan(&sr.ID, &sr.SKU, &sr.Name, &sr.Price); err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

func (r *repository) UpsertFromWoo(ctx context.Context, p Product) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO woo_products (connection_id, woo_id, sku, ean, name, price, stock_quantity, stock_status, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (connection_id, woo_id) DO UPDATE SET
			sku = EXCLUDED.sku,
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			stock_quantity = EXCLUDED.stock_quantity,
			stock_status = EXCLUDED.stock_status,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`,
		p.ConnectionID, p.WooID, p.SKU, p.EAN, p.Name, p.Price, p.StockQuantity, p.StockStatus, p.Status, time.Now())
	return err
}

func (r *repository) SetEAN(ctx context.Context, id int64, ean string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE woo_products SET ean = $1, updated_at = NOW() WHERE id = $2`, ean, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Suppliers(ctx context.Context, productID int64) ([]ProductSupplier, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ps.product_id, ps.supplier_id, s.name, ps.supplier_sku, ps.purchase_price, ps.currency,
			ps.lead_time_days, ps.min_order_qty, ps.is_preferred, ps.notes
		FROM product_suppliers ps
		JOIN suppliers s ON s.id = ps.supplier_id
		WHERE ps.product_id = $1
		ORDER BY ps.is_preferred DESC, s.name`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProductSupplier
	for rows.Next() {
		var ps ProductSupplier
		if err := rows.Scan(&ps.ProductID, &ps.SupplierID, &ps.SupplierName, &ps.SupplierSKU, &ps.PurchasePrice,
			&ps.Currency, &ps.LeadTimeDays, &ps.MinOrderQty, &ps.IsPreferred, &ps.Notes); err != nil {
			return nil, err
		}
		out = append(out, ps)
	}
	return out, rows.Err()
}

func (r *repository) SaveSupplier(ctx context.Context, link ProductSupplier) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO product_suppliers (product_id, supplier_id, supplier_sku, purchase_price, currency, lead_time_days, min_order_qty, is_preferred, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (product_id, supplier_id) DO UPDATE SET
			supplier_sku = EXCLUDED.supplier_sku,
			purchase_price = EXCLUDED.purchase_price,
			currency = EXCLUDED.currency,
			lead_time_days = EXCLUDED.lead_time_days,
			min_order_qty = EXCLUDED.min_order_qty,
			is_preferred = EXCLUDED.is_preferred,
			notes = EXCLUDED.notes`,
		link.ProductID, link.SupplierID, link.SupplierSKU, link.PurchasePrice, link.Currency,
		link.LeadTimeDays, link.MinOrderQty, link.IsPreferred, link.Notes)
	return err
}

func (r *repository) RemoveSupplier(ctx context.Context, productID, supplierID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM product_suppliers WHERE product_id = $1 AND supplier_id = $2`, productID, supplierID)
	return err
}

func (r *repository) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, cui, email, phone, is_active FROM suppliers WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.CUI, &s.Email, &s.Phone, &s.IsActive); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanProduct(row pgx.Row, p *Product) error {
	return row.Scan(&p.ID, &p.ConnectionID, &p.WooID, &p.SKU, &p.EAN, &p.Name, &p.Price,
		&p.StockQuantity, &p.StockStatus, &p.Status, &p.CreatedAt, &p.UpdatedAt)
}
