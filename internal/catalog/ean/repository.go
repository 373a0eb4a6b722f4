package ean

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockline-erp/stockline/internal/shared"
)

type Repository interface {
	Create(ctx context.Context, req AssociationRequest) (AssociationRequest, error)
	Get(ctx context.Context, id int64) (AssociationRequest, error)
	List(ctx context.Context, status *Status, page, limit int) ([]RequestWithDetails, int, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Create(ctx context.Context, req AssociationRequest) (AssociationRequest, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO ean_association_requests (ean, woo_product_id, requested_by, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		req.EAN, req.WooProductID, req.RequestedBy, StatusPending,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return AssociationRequest{}, err
	}
	req.Status = StatusPending
	return req, nil
}

func (r *repository) Get(ctx context.Context, id int64) (AssociationRequest, error) {
	var req AssociationRequest
	err := r.pool.QueryRow(ctx, `
		SELECT id, ean, woo_product_id, requested_by, status, created_at, updated_at
		FROM ean_association_requests WHERE id = $1`, id,
	).Scan(&req.ID, &req.EAN, &req.WooProductID, &req.RequestedBy, &req.Status, &req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return AssociationRequest{}, shared.ErrNotFound
	}
	return req, err
}

func (r *repository) List(ctx context.Context, status *Status, page, limit int) ([]RequestWithDetails, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if status != nil {
		args = append(args, *status)
		where += ` AND r.status = $` + strconv.Itoa(len(args))
	}

	from := ` FROM ean_association_requests r
		JOIN woo_products p ON p.id = r.woo_product_id
		JOIN users u ON u.id = r.requested_by`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT r.id, r.ean, r.woo_product_id, r.requested_by, r.status, r.created_at, r.updated_at,
		p.name, p.sku, u.name` + from + where + ` ORDER BY r.created_at DESC`
	if limit > 0 {
		args = append(args, limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
		offset := (page - 1) * limit
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

	var out []RequestWithDetails
	for rows.Next() {
		var rd RequestWithDetails
		if err := rows.Scan(&rd.ID, &rd.EAN, &rd.WooProductID, &rd.RequestedBy, &rd.Status,
			&rd.CreatedAt, &rd.UpdatedAt, &rd.ProductName, &rd.ProductSKU, &rd.RequesterName); err != nil {
			return nil, 0, err
		}
		out = append(out, rd)
	}
	return out, total, rows.Err()
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.pool.Exec(ctx, `UPDATE ean_association_requests SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
