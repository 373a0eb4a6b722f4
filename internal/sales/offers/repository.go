package offers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockline-erp/stockline/internal/platform/db"
	"github.com/stockline-erp/stockline/internal/scope"
	"github.com/stockline-erp/stockline/internal/shared"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, actor *shared.Actor, id int64) (*Offer, error)
	List(ctx context.Context, actor *shared.Actor, filters ListFilters) ([]OfferWithDetails, int, error)
	Create(ctx context.Context, offer Offer) (int64, error)
	Update(ctx context.Context, id int64, offer Offer) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	InsertLine(ctx context.Context, line OfferLine) (int64, error)
	DeleteLines(ctx context.Context, offerID int64) error
	Delete(ctx context.Context, id int64) error
	GenerateNumber(ctx context.Context, locationID int64, date time.Time) (string, error)
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const offerColumns = `id, number, location_id, user_id, customer_id, status, currency, subtotal, discount_total, tax_total, total, notes, created_at, updated_at`

func (r *repository) Get(ctx context.Context, actor *shared.Actor, id int64) (*Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`
	args := []any{id}
	query, args = scope.ForActor(actor, "location_id", len(args)).Apply(query, args)

	var o Offer
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&o.ID, &o.Number, &o.LocationID, &o.UserID, &o.CustomerID, &o.Status, &o.Currency,
		&o.Subtotal, &o.DiscountTotal, &o.TaxTotal, &o.Total, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, offer_id, product_id, description, quantity, unit_price, discount_percent, tax_percent, line_total, line_order
		FROM offer_lines WHERE offer_id = $1 ORDER BY line_order, id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var l OfferLine
		if err := rows.Scan(&l.ID, &l.OfferID, &l.ProductID, &l.Description, &l.Quantity, &l.UnitPrice, &l.DiscountPercent, &l.TaxPercent, &l.LineTotal, &l.LineOrder); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, l)
	}
	return &o, rows.Err()
}

func (r *repository) List(ctx context.Context, actor *shared.Actor, filters ListFilters) ([]OfferWithDetails, int, error) {
	where := ` WHERE 1=1`
	args := []any{}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where += ` AND (o.number ILIKE $` + strconv.Itoa(len(args)) + ` OR c.name ILIKE $` + strconv.Itoa(len(args)) + `)`
	}
	if filters.CustomerID != nil {
		args = append(args, *filters.CustomerID)
		where += ` AND o.customer_id = $` + strconv.Itoa(len(args))
	}
	if filters.Status != nil {
		args = append(args, *filters.Status)
		where += ` AND o.status = $` + strconv.Itoa(len(args))
	}

	visibility := scope.ForActor(actor, "o.location_id", len(args))
	where += visibility.Clause
	args = append(args, visibility.Args...)

	from := ` FROM offers o
		JOIN customers c ON c.id = o.customer_id
		JOIN users u ON u.id = o.user_id
		JOIN locations l ON l.id = o.location_id`

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT o.id, o.number, o.location_id, o.user_id, o.customer_id, o.status, o.currency,
		o.subtotal, o.discount_total, o.tax_total, o.total, o.notes, o.created_at, o.updated_at,
		c.name, u.name, l.name` + from + where + ` ORDER BY o.created_at DESC`
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

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []OfferWithDetails
	for rows.Next() {
		var o OfferWithDetails
		if err := rows.Scan(
			&o.ID, &o.Number, &o.LocationID, &o.UserID, &o.CustomerID, &o.Status, &o.Currency,
			&o.Subtotal, &o.DiscountTotal, &o.TaxTotal, &o.Total, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
			&o.CustomerName, &o.UserName, &o.LocationName); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, offer Offer) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO offers (number, location_id, user_id, customer_id, status, currency, subtotal, discount_total, tax_total, total, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id`,
		offer.Number, offer.LocationID, offer.UserID, offer.CustomerID, offer.Status, offer.Currency,
		offer.Subtotal, offer.DiscountTotal, offer.TaxTotal, offer.Total, offer.Notes,
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, offer Offer) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE offers SET customer_id = $1, currency = $2, subtotal = $3, discount_total = $4, tax_total = $5, total = $6, notes = $7, updated_at = NOW()
		WHERE id = $8`,
		offer.CustomerID, offer.Currency, offer.Subtotal, offer.DiscountTotal, offer.TaxTotal, offer.Total, offer.Notes, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE offers SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) InsertLine(ctx context.Context, line OfferLine) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO offer_lines (offer_id, product_id, description, quantity, unit_price, discount_percent, tax_percent, line_total, line_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		line.OfferID, line.ProductID, line.Description, line.Quantity, line.UnitPrice,
		line.DiscountPercent, line.TaxPercent, line.LineTotal, line.LineOrder,
	).Scan(&id)
	return id, err
}

func (r *repository) DeleteLines(ctx context.Context, offerID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM offer_lines WHERE offer_id = $1`, offerID)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GenerateNumber allocates OF-{YYMM}-{SEQ}, one sequence per location and
// month.
func (r *repository) GenerateNumber(ctx context.Context, locationID int64, date time.Time) (string, error) {
	var seq int64
	period := date.Format("200601")
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (location_id, doc_type, period, seq)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (location_id, doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, locationID, "OF", period).Scan(&seq)
	if err != nil {
		return "", err
	}
	return "OF-" + date.Format("0601") + "-" + padSeq(seq), nil
}

func padSeq(seq int64) string {
	s := strconv.FormatInt(seq, 10)
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}
