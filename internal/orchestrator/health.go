package orchestrator

import (
	"context"
	"log"
	"time"
)

// RunHealthMonitor ticks every cfg.HealthCheckInterval and writes a
// non-mutating liveness heartbeat to the log — recent audit count and
// any currently in-flight dispatch slots. Grounded on
// original_source/core/umbrasol.py's background health-check loop;
// widened with a slot count since the Go version bounds dispatch
// concurrency explicitly via a semaphore the Python original doesn't have.
func (o *Orchestrator) RunHealthMonitor(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			recent, err := o.store.RecentAudit(ctx, 5)
			if err != nil {
				log.Printf("[health] audit query failed: %v", err)
				continue
			}
			log.Printf("[health] alive — %d recent actions, %d/%d dispatch slots in use",
				len(recent), len(o.sem), cap(o.sem))
		}
	}
}
