package companylookup

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockline-erp/stockline/internal/shared"
)

// APISetting holds the credentials and knobs for the external company
// registry. At most one setting is active at a time.
type APISetting struct {
	ID             int64
	Name           string
	BaseURL        string
	APIKey         string
	TimeoutSeconds int
	VerifyTLS      bool
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (s APISetting) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

type SettingsRepository interface {
	Active(ctx context.Context) (APISetting, error)
	Get(ctx context.Context, id int64) (APISetting, error)
	List(ctx context.Context) ([]APISetting, error)
	Save(ctx context.Context, setting APISetting) (APISetting, error)
}

type settingsRepository struct {
	pool *pgxpool.Pool
}

func NewSettingsRepository(pool *pgxpool.Pool) SettingsRepository {
	return &settingsRepository{pool: pool}
}

const settingColumns = `id, label, base_url, api_key, timeout_seconds, verify_tls, is_active, created_at, updated_at`

func (r *settingsRepository) Active(ctx context.Context) (APISetting, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+settingColumns+` FROM company_api_settings WHERE is_active ORDER BY updated_at DESC LIMIT 1`)
	return scanSetting(row)
}

func (r *settingsRepository) Get(ctx context.Context, id int64) (APISetting, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+settingColumns+` FROM company_api_settings WHERE id = $1`, id)
	return scanSetting(row)
}

func (r *settingsRepository) List(ctx context.Context) ([]APISetting, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+settingColumns+` FROM company_api_settings ORDER BY label`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []APISetting
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Save upserts the setting and, when it is marked active, deactivates
// every other row so the active configuration stays a singleton.
func (r *settingsRepository) Save(ctx context.Context, setting APISetting) (APISetting, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return APISetting{}, err
	}
	defer tx.Rollback(ctx)

	if setting.ID == 0 {
		err = tx.QueryRow(ctx, `
			INSERT INTO company_api_settings (label, base_url, api_key, timeout_seconds, verify_tls, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			RETURNING id`,
			setting.Name, setting.BaseURL, setting.APIKey, setting.TimeoutSeconds, setting.VerifyTLS, setting.IsActive,
		).Scan(&setting.ID)
	} else {
		_, err = tx.Exec(ctx, `
			UPDATE company_api_settings SET label = $1, base_url = $2, api_key = $3, timeout_seconds = $4, verify_tls = $5, is_active = $6, updated_at = NOW()
			WHERE id = $7`,
			setting.Name, setting.BaseURL, setting.APIKey, setting.TimeoutSeconds, setting.VerifyTLS, setting.IsActive, setting.ID)
	}
	if err != nil {
		return APISetting{}, err
	}

	if setting.IsActive {
		if _, err := tx.Exec(ctx, `UPDATE company_api_settings SET is_active = FALSE WHERE id <> $1`, setting.ID); err != nil {
			return APISetting{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return APISetting{}, err
	}
	return setting, nil
}

func scanSetting(row pgx.Row) (APISetting, error) {
	var s APISetting
	err := row.Scan(&s.ID, &s.Name, &s.BaseURL, &s.APIKey, &s.TimeoutSeconds, &s.VerifyTLS, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return APISetting{}, shared.ErrNotFound
	}
	return s, err
}
