package locations

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
	List(ctx context.Context, filters ListFilters) ([]Location, int, error)
	Get(ctx context.Context, id int64) (Location, error)
	Create(ctx context.Context, location Location) (Location, error)
	Update(ctx context.Context, id int64, location Location) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const locationColumns = `id, name, kind, parent_store_id, address, is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Location, int, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM locations WHERE 1=1`
	args := []any{}

	if filters.Kind != "" {
		args = append(args, filters.Kind)
		cond := ` AND kind = $` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		cond := ` AND (name ILIKE $` + strconv.Itoa(len(args)) + ` OR address ILIKE $` + strconv.Itoa(len(args)) + `)`
		query += cond
		countQuery += cond
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir)

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

	var out []Location
	for rows.Next() {
		var l Location
		if err := scanLocation(rows, &l); err != nil {
			return nil, 0, err
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Location, error) {
	var l Location
	row := r.pool.QueryRow(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, id)
	if err := scanLocation(row, &l); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Location{}, shared.ErrNotFound
		}
		return Location{}, err
	}
	return l, nil
}

func (r *repository) Create(ctx context.Context, location Location) (Location, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO locations (name, kind, parent_store_id, address, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id`,
		location.Name, location.Kind, location.ParentStoreID, location.Address, location.IsActive, now,
	).Scan(&location.ID)
	if err != nil {
		return Location{}, err
	}
	location.CreatedAt = now
	location.UpdatedAt = now
	return location, nil
}

func (r *repository) Update(ctx context.Context, id int64, location Location) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE locations SET name = $1, kind = $2, parent_store_id = $3, address = $4, is_active = $5, updated_at = NOW()
		WHERE id = $6`,
		location.Name, location.Kind, location.ParentStoreID, location.Address, location.IsActive, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "kind":
		return "kind " + dir + ", name ASC"
	case "name":
		return "name " + dir
	default:
		return "name " + dir
	}
}

func scanLocation(row pgx.Row, l *Location) error {
	return row.Scan(&l.ID, &l.Name, &l.Kind, &l.ParentStoreID, &l.Address, &l.IsActive, &l.CreatedAt, &l.UpdatedAt)
}
