package jobs

import (
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

func hasOption(opts []asynq.Option, kind asynq.OptionType) bool {
	for _, opt := range opts {
		if opt.Type() == kind {
			return true
		}
	}
	return false
}

func TestDefaultCronCoversEveryScheduledTask(t *testing.T) {
	want := map[string]string{
		TaskDispatchImports: "* * * * *",
		TaskSyncOrders:      "*/15 * * * *",
		TaskSyncCategories:  "0 */6 * * *",
		TaskBIDaily:         "30 0 * * *",
		TaskBIWeekly:        "0 5 * * 0",
		TaskBIMonthly:       "0 11 1 * *",
	}

	entries := DefaultCron()
	require.Len(t, entries, len(want))
	for _, entry := range entries {
		spec, ok := want[entry.Task.Type()]
		require.True(t, ok, "unexpected task %s", entry.Task.Type())
		require.Equal(t, spec, entry.Spec, "spec for %s", entry.Task.Type())
	}
}

func TestDefaultCronEntriesNeverSelfOverlap(t *testing.T) {
	for _, entry := range DefaultCron() {
		require.True(t, hasOption(entry.Options, asynq.UniqueOpt),
			"%s must enqueue with asynq.Unique", entry.Task.Type())
	}
}
