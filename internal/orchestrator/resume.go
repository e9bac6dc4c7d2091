package orchestrator

import (
	"context"
	"log"

	"github.com/umbrasol/umbrasol/internal/types"
)

// ResumePending reads every non-terminal task left behind by a previous
// run (crash, kill -9, power loss) and re-executes its request text, up
// to MaxTaskResume tasks. The original task row is marked failed with an
// "abandoned: resumed as new task (<summary>)" checkpoint rather than silently
// reused, since a checkpoint string alone can't reconstruct exactly where
// a streaming brain call or a mid-dispatch shell command left off —
// re-running the request from scratch is the only safe recovery,
// matching original_source/core/umbrasol.py's own resume_pending_tasks,
// which re-submits the stored request text rather than replaying state.
func (o *Orchestrator) ResumePending(ctx context.Context) {
	pending, err := o.store.GetPendingTasks(ctx)
	if err != nil {
		log.Printf("[orchestrator] resume: could not read pending tasks: %v", err)
		return
	}
	if len(pending) == 0 {
		return
	}

	n := len(pending)
	if n > o.cfg.MaxTaskResume {
		log.Printf("[orchestrator] resume: %d pending tasks found, resuming only the first %d", n, o.cfg.MaxTaskResume)
		n = o.cfg.MaxTaskResume
	}

	for _, t := range pending[:n] {
		log.Printf("[orchestrator] resuming task %s: %q", t.ID, t.Request)
		summary, err := o.Execute(ctx, t.Request)
		if err != nil {
			log.Printf("[orchestrator] resume of %s failed: %v", t.ID, err)
			_ = o.store.UpdateTaskCheckpoint(ctx, t.ID, types.TaskFailed, "abandoned: resume failed: "+err.Error())
			continue
		}
		_ = o.store.UpdateTaskCheckpoint(ctx, t.ID, types.TaskFailed, "abandoned: resumed as new task ("+summary+")")
	}
}
