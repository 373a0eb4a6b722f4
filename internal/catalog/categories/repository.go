package categories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockline-erp/stockline/internal/platform/db"
)

type Repository interface {
	ListAll(ctx context.Context) ([]Category, error)
	ListByConnection(ctx context.Context, connectionID int64) ([]Category, error)
	UpsertFromWoo(ctx context.Context, c Category) error
	SaveOrdering(ctx context.Context, ordered []Category) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const categoryColumns = `id, connection_id, woo_id, parent_id, name, slug, menu_order, depth, position, created_at, updated_at`

func (r *repository) ListAll(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM woo_categories ORDER BY connection_id, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCategories(rows)
}

func (r *repository) ListByConnection(ctx context.Context, connectionID int64) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM woo_categories WHERE connection_id = $1 ORDER BY position`, connectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCategories(rows)
}

// UpsertFromWoo inserts or refreshes a category pulled from the platform,
// keyed by (connection_id, woo_id).
func (r *repository) UpsertFromWoo(ctx context.Context, c Category) error {
	now := time.Now()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO woo_categories (connection_id, woo_id, parent_id, name, slug, menu_order, depth, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, 0, $7, $7)
		ON CONFLICT (connection_id, woo_id)
		DO UPDATE SET parent_id = EXCLUDED.parent_id, name = EXCLUDED.name, slug = EXCLUDED.slug, menu_order = EXCLUDED.menu_order, updated_at = EXCLUDED.updated_at`,
		c.ConnectionID, c.WooID, c.ParentID, c.Name, c.Slug, c.MenuOrder, now)
	return err
}

// SaveOrdering persists the depth/position computed by SortTree.
func (r *repository) SaveOrdering(ctx context.Context, ordered []Category) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, c := range ordered {
			if _, err := tx.Exec(ctx, `UPDATE woo_categories SET depth = $1, position = $2, updated_at = NOW() WHERE id = $3`, c.Depth, c.Position, c.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

func scanCategories(rows pgx.Rows) ([]Category, error) {
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.ConnectionID, &c.WooID, &c.ParentID, &c.Name, &c.Slug, &c.MenuOrder, &c.Depth, &c.Position, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
