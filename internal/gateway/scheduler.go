package gateway

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/kasyifana/audit-ai/internal/config"
)

// Scheduler registers the configured re-audit schedules with robfig/cron.
// When a schedule fires it calls runFn with the target URL; results go out
// through notifications and SSE, not into a session.
type Scheduler struct {
	cron      *cron.Cron
	runFn     func(url string)
	broadcast func(SSEEvent)
	loaded    int
}

func newScheduler(runFn func(url string), broadcast func(SSEEvent)) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		runFn:     runFn,
		broadcast: broadcast,
	}
}

// Start registers every valid schedule and starts the cron runner. Invalid
// entries are skipped with a warning, never fatal.
func (s *Scheduler) Start(schedules []config.ScheduleConfig) error {
	for _, sched := range schedules {
		if err := s.register(sched); err != nil {
			slog.Warn("scheduler: skipping invalid schedule",
				"expr", sched.Expr, "url", sched.URL, "error", err)
			continue
		}
		s.loaded++
	}
	s.cron.Start()
	slog.Info("gateway scheduler started", "schedules_loaded", s.loaded)
	return nil
}

// Stop halts the cron runner gracefully.
func (s *Scheduler) Stop() { s.cron.Stop() }

// Count returns the number of successfully registered schedules.
func (s *Scheduler) Count() int { return s.loaded }

func (s *Scheduler) register(sched config.ScheduleConfig) error {
	url := strings.TrimSpace(sched.URL)
	if url == "" {
		return fmt.Errorf("schedule has no target URL")
	}
	_, err := s.cron.AddFunc(sched.Expr, func() {
		s.broadcast(SSEEvent{Type: "schedule.fired", Payload: map[string]any{"url": url}})
		s.runFn(url)
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", sched.Expr, err)
	}
	return nil
}
