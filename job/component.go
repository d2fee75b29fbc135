package job

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/verbatim/component"
	"github.com/kbukum/verbatim/logger"
)

var (
	_ component.Component   = (*Orchestrator)(nil)
	_ component.Describable = (*Orchestrator)(nil)
)

func (o *Orchestrator) Name() string { return "jobs" }

// Start launches the retention janitor when a retention period is set.
func (o *Orchestrator) Start(context.Context) error {
	if o.cfg.Retention <= 0 {
		return nil
	}
	interval := min(o.cfg.Retention, time.Minute)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-o.ctx.Done():
				return
			case <-ticker.C:
				if n := o.registry.Prune(time.Now().Add(-o.cfg.Retention)); n > 0 {
					o.log.Debug("Pruned finished jobs", logger.Fields("count", n))
				}
			}
		}
	}()
	return nil
}

// Health is degraded while every worker slot is busy.
func (o *Orchestrator) Health(context.Context) component.Health {
	h := component.Health{
		Name:    o.Name(),
		Status:  component.StatusHealthy,
		Message: fmt.Sprintf("%d/%d workers busy, %d jobs tracked", o.bulkhead.InUse(), o.bulkhead.Capacity(), o.registry.Len()),
	}
	o.mu.Lock()
	stopped := o.stopped
	o.mu.Unlock()
	switch {
	case stopped:
		h.Status = component.StatusUnhealthy
		h.Message = "stopped"
	case o.bulkhead.Available() == 0:
		h.Status = component.StatusDegraded
	}
	return h
}

func (o *Orchestrator) Describe() component.Description {
	return component.Description{
		Name:    "Job Orchestrator",
		Type:    "workers",
		Details: fmt.Sprintf("max %d concurrent, recognizer %s", o.cfg.MaxConcurrent, o.deps.Recognizer.Name()),
	}
}
