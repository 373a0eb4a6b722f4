package users

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockline-erp/stockline/internal/platform/db"
	"github.com/stockline-erp/stockline/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]User, int, error)
	Get(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, id int64, user User) error
	SetLocations(ctx context.Context, id int64, locationIDs []int64) error
	Deactivate(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const userColumns = `id, email, name, password_hash, is_active, is_super_admin, is_admin, is_operational, location_id, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters ListFilters) ([]User, int, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM users WHERE 1=1`
	args := []any{}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		cond := ` AND (name ILIKE $` + strconv.Itoa(len(args)) + ` OR email ILIKE $` + strconv.Itoa(len(args)) + `)`
		query += cond
		countQuery += cond
	}
	if filters.OnlyActive {
		query += ` AND is_active`
		countQuery += ` AND is_active`
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

	var out []User
	for rows.Next() {
		var u User
		if err := scanUser(rows, &u); err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (User, error) {
	var u User
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err := scanUser(row, &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}

	locRows, err := r.pool.Query(ctx, `SELECT location_id FROM user_locations WHERE user_id = $1 ORDER BY location_id`, id)
	if err != nil {
		return User{}, err
	}
	defer locRows.Close()
	for locRows.Next() {
		var locID int64
		if err := locRows.Scan(&locID); err != nil {
			return User{}, err
		}
		u.LocationIDs = append(u.LocationIDs, locID)
	}
	return u, locRows.Err()
}

func (r *repository) Create(ctx context.Context, user User) (User, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash, is_active, is_super_admin, is_admin, is_operational, location_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id`,
		user.Email, user.Name, user.PasswordHash, user.IsActive, user.IsSuperAdmin, user.IsAdmin, user.IsOperational, user.HomeLocationID, now,
	).Scan(&user.ID)
	if err != nil {
		return User{}, err
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	if len(user.LocationIDs) > 0 {
		if err := r.SetLocations(ctx, user.ID, user.LocationIDs); err != nil {
			return User{}, err
		}
	}
	return user, nil
}

func (r *repository) Update(ctx context.Context, id int64, user User) error {
	query := `UPDATE users SET email = $1, name = $2, is_active = $3, is_super_admin = $4, is_admin = $5, is_operational = $6, location_id = $7, updated_at = NOW()`
	args := []any{user.Email, user.Name, user.IsActive, user.IsSuperAdmin, user.IsAdmin, user.IsOperational, user.HomeLocationID}
	if user.PasswordHash != "" {
		args = append(args, user.PasswordHash)
		query += `, password_hash = $` + strconv.Itoa(len(args))
	}
	args = append(args, id)
	query += ` WHERE id = $` + strconv.Itoa(len(args))
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) SetLocations(ctx context.Context, id int64, locationIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_locations WHERE user_id = $1`, id); err != nil {
			return err
		}
		for _, locID := range locationIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO user_locations (user_id, location_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, locID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row, u *User) error {
	return row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.IsActive, &u.IsSuperAdmin, &u.IsAdmin, &u.IsOperational, &u.HomeLocationID, &u.CreatedAt, &u.UpdatedAt)
}
