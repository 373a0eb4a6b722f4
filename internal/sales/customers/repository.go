package customers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockline-erp/stockline/internal/scope"
	"github.com/stockline-erp/stockline/internal/shared"
)

type Repository interface {
	List(ctx context.Context, actor *shared.Actor, filters ListFilters) ([]Customer, int, error)
	Get(ctx context.Context, actor *shared.Actor, id int64) (Customer, error)
	Create(ctx context.Context, customer Customer) (Customer, error)
	Update(ctx context.Context, id int64, customer Customer) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const customerColumns = `id, location_id, name, cui, reg_com, email, phone, address, city, county, created_at, updated_at`

func (r *repository) List(ctx context.Context, actor *shared.Actor, filters ListFilters) ([]Customer, int, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM customers WHERE 1=1`
	args := []any{}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		cond := ` AND (name ILIKE $` + strconv.Itoa(len(args)) + ` OR cui ILIKE $` + strconv.Itoa(len(args)) + `)`
		query += cond
		countQuery += cond
	}
	if filters.LocationID != nil {
		args = append(args, *filters.LocationID)
		cond := ` AND location_id = $` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
	}

	visibility := scope.ForActor(actor, "location_id", len(args))
	query, args = visibility.Apply(query, args)
	countQuery += visibility.Clause

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

	var out []Customer
	for rows.Next() {
		var c Customer
		if err := scanCustomer(rows, &c); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, actor *shared.Actor, id int64) (Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	args := []any{id}
	query, args = scope.ForActor(actor, "location_id", len(args)).Apply(query, args)

	var c Customer
	if err := scanCustomer(r.pool.QueryRow(ctx, query, args...), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, shared.ErrNotFound
		}
		return Customer{}, err
	}
	return c, nil
}

func (r *repository) Create(ctx context.Context, customer Customer) (Customer, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx, `
		INSERT INTO customers (location_id, name, cui, reg_com, email, phone, address, city, county, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING id`,
		customer.LocationID, customer.Name, customer.CUI, customer.RegCom, customer.Email, customer.Phone, customer.Address, customer.City, customer.County, now,
	).Scan(&customer.ID)
	if err != nil {
		return Customer{}, err
	}
	customer.CreatedAt = now
	customer.UpdatedAt = now
	return customer, nil
}

func (r *repository) Update(ctx context.Context, id int64, customer Customer) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customers SET location_id = $1, name = $2, cui = $3, reg_com = $4, email = $5, phone = $6, address = $7, city = $8, county = $9, updated_at = NOW()
		WHERE id = $10`,
		customer.LocationID, customer.Name, customer.CUI, customer.RegCom, customer.Email, customer.Phone, customer.Address, customer.City, customer.County, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row, c *Customer) error {
	return row.Scan(&c.ID, &c.LocationID, &c.Name, &c.CUI, &c.RegCom, &c.Email, &c.Phone, &c.Address, &c.City, &c.County, &c.CreatedAt, &c.UpdatedAt)
}
