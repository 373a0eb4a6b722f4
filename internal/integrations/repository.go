package integrations

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
	ListConnections(ctx context.Context, activeOnly bool) ([]Connection, error)
	GetConnection(ctx context.Context, id int64) (Connection, error)
	CreateConnection(ctx context.Context, c Connection) (Connection, error)
	UpdateConnection(ctx context.Context, id int64, c Connection) error
	DeleteConnection(ctx context.Context, id int64) error

	QueueRun(ctx context.Context, connectionID int64, kind RunKind) (SyncRun, error)
	GetRun(ctx context.Context, id int64) (SyncRun, error)
	ListRuns(ctx context.Context, connectionID *int64, limit int) ([]SyncRun, error)
	DueRuns(ctx context.Context, kind RunKind) ([]SyncRun, error)
	MarkRunning(ctx context.Context, id int64) error
	MarkFinished(ctx context.Context, id int64, status RunStatus, detail string) error
	LastSuccess(ctx context.Context, connectionID int64, kind RunKind) (time.Time, bool, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const connectionColumns = `id, name, provider, base_url, consumer_key, consumer_secret, is_active, created_at, updated_at`

func (r *repository) ListConnections(ctx context.Context, activeOnly bool) ([]Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM integration_connections`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Connection
	for rows.Next() {
		var c Connection
		if err := scanConnection(rows, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) GetConnection(ctx context.Context, id int64) (Connection, error) {
	var c Connection
	err := scanConnection(r.pool.QueryRow(ctx, `SELECT `+connectionColumns+` FROM integration_connections WHERE id = $1`, id), &c)
	if errors.Is(err, pgx.ErrNoRows) {
		return Connection{}, shared.ErrNotFound
	}
	return c, err
}

func (r *repository) CreateConnection(ctx context.Context, c Connection) (Connection, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO integration_connections (name, provider, base_url, consumer_key, consumer_secret, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		c.Name, c.Provider, c.BaseURL, c.ConsumerKey, c.ConsumerSecret, c.IsActive,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) UpdateConnection(ctx context.Context, id int64, c Connection) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE integration_connections SET name = $1, provider = $2, base_url = $3, consumer_key = $4, consumer_secret = $5, is_active = $6, updated_at = NOW()
		WHERE id = $7`,
		c.Name, c.Provider, c.BaseURL, c.ConsumerKey, c.ConsumerSecret, c.IsActive, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) DeleteConnection(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM integration_connections WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const runColumns = `id, connection_id, kind, status, detail, queued_at, started_at, finished_at`

func (r *repository) QueueRun(ctx context.Context, connectionID int64, kind RunKind) (SyncRun, error) {
	var run SyncRun
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sync_runs (connection_id, kind, status, queued_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING `+runColumns,
		connectionID, kind, RunStatusQueued,
	).Scan(&run.ID, &run.ConnectionID, &run.Kind, &run.Status, &run.Detail, &run.QueuedAt, &run.StartedAt, &run.FinishedAt)
	return run, err
}

func (r *repository) GetRun(ctx context.Context, id int64) (SyncRun, error) {
	var run SyncRun
	err := r.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM sync_runs WHERE id = $1`, id).
		Scan(&run.ID, &run.ConnectionID, &run.Kind, &run.Status, &run.Detail, &run.QueuedAt, &run.StartedAt, &run.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return SyncRun{}, shared.ErrNotFound
	}
	return run, err
}

func (r *repository) ListRuns(ctx context.Context, connectionID *int64, limit int) ([]SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM sync_runs WHERE 1=1`
	args := []any{}
	if connectionID != nil {
		args = append(args, *connectionID)
		query += ` AND connection_id = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY queued_at DESC`
	if limit > 0 {
		args = append(args, limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SyncRun
	for rows.Next() {
		var run SyncRun
		if err := rows.Scan(&run.ID, &run.ConnectionID, &run.Kind, &run.Status, &run.Detail, &run.QueuedAt, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func (r *repository) DueRuns(ctx context.Context, kind RunKind) ([]SyncRun, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+runColumns+` FROM sync_runs WHERE kind = $1 AND status = $2 ORDER BY queued_at`, kind, RunStatusQueued)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SyncRun
	for rows.Next() {
		var run SyncRun
		if err := rows.Scan(&run.ID, &run.ConnectionID, &run.Kind, &run.Status, &run.Detail, &run.QueuedAt, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// MarkRunning claims a queued run; a second claim of the same run fails,
// which keeps the dispatcher idempotent.
func (r *repository) MarkRunning(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE sync_runs SET status = $1, started_at = NOW() WHERE id = $2 AND status = $3`,
		RunStatusRunning, id, RunStatusQueued)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) MarkFinished(ctx context.Context, id int64, status RunStatus, detail string) error {
	var d *string
	if detail != "" {
		d = &detail
	}
	tag, err := r.pool.Exec(ctx, `UPDATE sync_runs SET status = $1, detail = $2, finished_at = NOW() WHERE id = $3`, status, d, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) LastSuccess(ctx context.Context, connectionID int64, kind RunKind) (time.Time, bool, error) {
	var finished time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT finished_at FROM sync_runs
		WHERE connection_id = $1 AND kind = $2 AND status = $3 AND finished_at IS NOT NULL
		ORDER BY finished_at DESC LIMIT 1`,
		connectionID, kind, RunStatusSuccess,
	).Scan(&finished)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return finished, true, nil
}

func scanConnection(row pgx.Row, c *Connection) error {
	return row.Scan(&c.ID, &c.Name, &c.Provider, &c.BaseURL, &c.ConsumerKey, &c.ConsumerSecret, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
}
