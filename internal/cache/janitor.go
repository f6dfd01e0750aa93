package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const pruneTimeout = 30 * time.Second

// Janitor periodically prunes index members whose keys expired through TTL.
type Janitor struct {
	cron *cron.Cron
	gw   *Gateway
}

// NewJanitor schedules index pruning; schedule uses the six-field cron format (with seconds).
func NewJanitor(gw *Gateway, schedule string) (*Janitor, error) {
	j := &Janitor{
		cron: cron.New(cron.WithSeconds()),
		gw:   gw,
	}

	if _, err := j.cron.AddFunc(schedule, j.RunOnce); err != nil {
		return nil, fmt.Errorf("schedule cache janitor %q: %w", schedule, err)
	}

	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
	slog.Info("cache janitor started")
}

// Stop halts scheduling; the returned context is done once a running prune finishes.
func (j *Janitor) Stop() context.Context {
	return j.cron.Stop()
}

func (j *Janitor) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
	defer cancel()

	n, err := j.gw.PruneIndexes(ctx)
	if err != nil {
		slog.Warn("cache.prune failed", "pruned", n, "err", err)
		return
	}
	if n > 0 {
		slog.Info("cache.prune done", "pruned", n)
	}
}
