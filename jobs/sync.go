package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/stockline-erp/stockline/internal/integrations"
	jobmetrics "github.com/stockline-erp/stockline/internal/jobs"
)

// HandleDispatchImports fans queued import runs out to individual
// process-import tasks. It runs every minute so an import queued from
// the admin UI starts within seconds of being requested.
func HandleDispatchImports(svc *integrations.Service, client *Client, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		tracker := metrics.Track("dispatch_imports")
		runs, err := svc.DueImports(ctx)
		if err != nil {
			return tracker.End(fmt.Errorf("dispatch imports: %w", err))
		}
		for _, run := range runs {
			if _, err := client.EnqueueProcessImport(ctx, ProcessImportPayload{RunID: run.ID}); err != nil {
				return tracker.End(fmt.Errorf("enqueue import run %d: %w", run.ID, err))
			}
			logger.Info("import run dispatched", slog.Int64("run_id", run.ID), slog.Int64("connection_id", run.ConnectionID))
		}
		return tracker.End(nil)
	}
}

// HandleProcessImport executes one full catalog import run.
func HandleProcessImport(svc *integrations.Service, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		tracker := metrics.Track("process_import")
		var payload ProcessImportPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return tracker.End(fmt.Errorf("decode import payload: %w", err))
		}
		if err := svc.ProcessImport(ctx, payload.RunID); err != nil {
			return tracker.End(fmt.Errorf("process import run %d: %w", payload.RunID, err))
		}
		logger.Info("import run processed", slog.Int64("run_id", payload.RunID))
		return tracker.End(nil)
	}
}

// HandleSyncOrders pulls recent orders from every active connection.
func HandleSyncOrders(svc *integrations.Service, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		tracker := metrics.Track("sync_orders")
		if err := svc.SyncOrders(ctx); err != nil {
			return tracker.End(fmt.Errorf("sync orders: %w", err))
		}
		logger.Info("order sync completed")
		return tracker.End(nil)
	}
}

// HandleSyncCategories refreshes the category mirror for every active
// connection.
func HandleSyncCategories(svc *integrations.Service, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		tracker := metrics.Track("sync_categories")
		if err := svc.SyncCategories(ctx); err != nil {
			return tracker.End(fmt.Errorf("sync categories: %w", err))
		}
		logger.Info("category sync completed")
		return tracker.End(nil)
	}
}
