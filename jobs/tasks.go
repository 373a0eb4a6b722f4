package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskDispatchImports scans for queued catalog imports and fans them
	// out as individual process tasks.
	TaskDispatchImports = "sync:dispatch_imports"
	// TaskProcessImport executes one queued catalog import run.
	TaskProcessImport = "sync:process_import"
	// TaskSyncOrders is the webhook catch-up for recent orders.
	TaskSyncOrders = "sync:orders"
	// TaskSyncCategories refreshes the category mirror and its ordering.
	TaskSyncCategories = "sync:categories"

	TaskBIDaily   = "bi:sales_daily"
	TaskBIWeekly  = "bi:sales_weekly"
	TaskBIMonthly = "bi:sales_monthly"
)

// ProcessImportPayload addresses one sync run.
type ProcessImportPayload struct {
	RunID int64 `json:"run_id"`
}

// NewProcessImportTask constructs the per-run import task.
func NewProcessImportTask(payload ProcessImportPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProcessImport, data), nil
}

// DefaultCron is the scheduler table. Every entry carries asynq.Unique so
// a task type never overlaps itself; the TTL caps how long a missed lock
// blocks the next fire.
func DefaultCron() []CronRegistration {
	return []CronRegistration{
		{Spec: "* * * * *", Task: asynq.NewTask(TaskDispatchImports, nil), Options: []asynq.Option{asynq.Unique(time.Minute)}},
		{Spec: "*/15 * * * *", Task: asynq.NewTask(TaskSyncOrders, nil), Options: []asynq.Option{asynq.Unique(15 * time.Minute), asynq.MaxRetry(3)}},
		{Spec: "0 */6 * * *", Task: asynq.NewTask(TaskSyncCategories, nil), Options: []asynq.Option{asynq.Unique(6 * time.Hour), asynq.MaxRetry(3)}},
		{Spec: "30 0 * * *", Task: asynq.NewTask(TaskBIDaily, nil), Options: []asynq.Option{asynq.Unique(time.Hour), asynq.MaxRetry(3)}},
		{Spec: "0 5 * * 0", Task: asynq.NewTask(TaskBIWeekly, nil), Options: []asynq.Option{asynq.Unique(time.Hour), asynq.MaxRetry(3)}},
		{Spec: "0 11 1 * *", Task: asynq.NewTask(TaskBIMonthly, nil), Options: []asynq.Option{asynq.Unique(time.Hour), asynq.MaxRetry(3)}},
	}
}
