package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/stockline-erp/stockline/internal/jobs"
)

// biViews maps each report task type to the materialized view it
// refreshes. Views carry a unique index so CONCURRENTLY is safe and
// dashboards keep reading during the refresh.
var biViews = map[string]string{
	TaskBIDaily:   "bi_sales_daily",
	TaskBIWeekly:  "bi_sales_weekly",
	TaskBIMonthly: "bi_sales_monthly",
}

// HandleBIRefresh refreshes the sales reporting view bound to the
// received task type.
func HandleBIRefresh(pool *pgxpool.Pool, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		view, ok := biViews[task.Type()]
		if !ok {
			return fmt.Errorf("bi refresh: unknown task type %q", task.Type())
		}
		tracker := metrics.Track("bi_" + view)
		if pool == nil {
			return tracker.End(fmt.Errorf("bi refresh: database pool not configured"))
		}
		if _, err := pool.Exec(ctx, "REFRESH MATERIALIZED VIEW CONCURRENTLY "+view); err != nil {
			return tracker.End(fmt.Errorf("refresh %s: %w", view, err))
		}
		logger.Info("bi view refreshed", slog.String("view", view))
		return tracker.End(nil)
	}
}
