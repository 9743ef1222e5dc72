package service

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// Scheduler runs background syncs on a cron schedule. Used by the headless
// auto-sync mode; the TUI triggers syncs interactively instead.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates a scheduler that runs syncFn on the given cron spec
// (e.g. "@hourly").
func NewScheduler(spec string, syncFn func(ctx context.Context)) (*Scheduler, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { syncFn(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c}, nil
}

// Start begins running scheduled syncs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and returns a context that is done when any
// running job finishes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
