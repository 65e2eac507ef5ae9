package tasks

import (
	"context"
)

// newDedupSweepTask creates the scheduled task that drops expired
// entries from the event deduplicator.
func newDedupSweepTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "dedup_sweep")

	return func(ctx context.Context) error {
		dropped := deps.Dedup.Sweep()
		if dropped > 0 {
			log.DebugContext(ctx, "Swept expired dedup entries", "dropped", dropped)
		}
		return nil
	}
}
