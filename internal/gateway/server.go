// Package gateway is the HTTP control plane: orders, payment verification,
// audit runs, report retrieval, the validated scan proxy and an SSE event
// stream, plus a cron scheduler for recurring re-audits.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/kasyifana/audit-ai/internal/audit"
	"github.com/kasyifana/audit-ai/internal/config"
	"github.com/kasyifana/audit-ai/internal/notify"
	"github.com/kasyifana/audit-ai/internal/scanclient"
	"github.com/kasyifana/audit-ai/internal/session"
	"github.com/kasyifana/audit-ai/models"
)

// Gateway is the long-running daemon that combines:
//   - the audit Runner (scan, analyse, score, summarise)
//   - a cron Scheduler (recurring re-audits)
//   - a REST + SSE HTTP server
type Gateway struct {
	cfg         *config.Config
	store       session.Store
	runner      *audit.Runner
	scans       *scanclient.Client
	notifier    *notify.Dispatcher
	scheduler   *Scheduler
	broadcaster *Broadcaster

	mu           sync.RWMutex
	running      bool
	activeAudits int
	auditsRun    int64
	lastAuditAt  string
	startedAt    time.Time
}

// New creates a Gateway. Call Start() to begin serving.
func New(cfg *config.Config, store session.Store, runner *audit.Runner, scans *scanclient.Client) *Gateway {
	gw := &Gateway{
		cfg:         cfg,
		store:       store,
		runner:      runner,
		scans:       scans,
		notifier:    notify.NewDispatcher(cfg.Notify),
		broadcaster: newBroadcaster(),
		startedAt:   time.Now(),
	}
	gw.scheduler = newScheduler(gw.runScheduledAudit, gw.broadcaster.send)
	return gw
}

// Start runs the gateway until ctx is cancelled. It:
//  1. Registers and starts the cron scheduler
//  2. Binds the HTTP server (blocks until shutdown)
func (gw *Gateway) Start(ctx context.Context) error {
	port := gw.cfg.Gateway.Port
	if port == 0 {
		port = 6380
	}
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	if err := gw.scheduler.Start(gw.cfg.Schedules); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	gw.mu.Lock()
	gw.running = true
	gw.mu.Unlock()

	srv := &http.Server{
		Addr:    addr,
		Handler: buildHandler(gw),
	}

	// Shut down HTTP server when ctx is cancelled.
	go func() {
		<-ctx.Done()
		gw.scheduler.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("gateway: listening", "addr", "http://"+addr)
	gw.broadcaster.send(SSEEvent{
		Type:    "gateway.started",
		Payload: map[string]string{"addr": "http://" + addr},
	})

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (gw *Gateway) currentStatus() Status {
	gw.mu.RLock()
	defer gw.mu.RUnlock()
	return Status{
		Running:       gw.running,
		ActiveAudits:  gw.activeAudits,
		AuditsRun:     gw.auditsRun,
		LastAuditAt:   gw.lastAuditAt,
		Schedules:     gw.scheduler.Count(),
		SSEClients:    gw.broadcaster.count(),
		UptimeSeconds: int64(time.Since(gw.startedAt).Seconds()),
	}
}

// runAudit executes one audit for target, broadcasting per-scan progress
// events, and records the run in the status counters.
func (gw *Gateway) runAudit(ctx context.Context, target string, opts audit.Options) (*models.Report, error) {
	gw.mu.Lock()
	gw.activeAudits++
	gw.mu.Unlock()
	defer func() {
		now := time.Now().UTC().Format(time.RFC3339)
		gw.mu.Lock()
		gw.activeAudits--
		gw.auditsRun++
		gw.lastAuditAt = now
		gw.mu.Unlock()
	}()

	opts.OnScanStarted = func(key string) {
		gw.broadcaster.send(SSEEvent{Type: "scan.started", Payload: map[string]any{"scan": key, "target": target}})
	}
	opts.OnScanCompleted = func(key string, err error) {
		payload := map[string]any{"scan": key, "target": target}
		if err != nil {
			payload["error"] = err.Error()
		}
		gw.broadcaster.send(SSEEvent{Type: "scan.completed", Payload: payload})
	}

	gw.broadcaster.send(SSEEvent{Type: "audit.started", Payload: map[string]any{"target": target}})
	report, err := gw.runner.Run(ctx, target, opts)
	if err != nil {
		gw.broadcaster.send(SSEEvent{Type: "audit.failed", Payload: map[string]any{"target": target, "error": err.Error()}})
		return nil, err
	}

	gw.broadcaster.send(SSEEvent{Type: "audit.completed", Payload: map[string]any{
		"target":     target,
		"score":      report.Scoring.OverallScore,
		"risk_level": report.Scoring.RiskLevel,
		"warnings":   len(report.Warnings),
	}})
	gw.notifyAuditCompleted(ctx, report, "")
	return report, nil
}

// runScheduledAudit is the cron callback for recurring re-audits. The result
// is not attached to any session; it only goes out via notifications and SSE.
func (gw *Gateway) runScheduledAudit(url string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	slog.Info("gateway: scheduled re-audit", "url", url)
	if _, err := gw.runAudit(ctx, url, audit.Options{Mode: audit.ModeSequential}); err != nil {
		slog.Error("gateway: scheduled re-audit failed", "url", url, "error", err)
	}
}

func (gw *Gateway) notifyAuditCompleted(ctx context.Context, report *models.Report, recipient string) {
	gw.notifier.Notify(ctx, notify.Event{
		Type:      notify.EventAuditCompleted,
		Title:     fmt.Sprintf("Audit selesai: %s", report.TargetURL),
		Body:      report.Audit.Summary,
		TargetURL: report.TargetURL,
		Risk:      report.Scoring.RiskLevel,
		Score:     float64(report.Scoring.OverallScore) / 10,
		Recipient: recipient,
	})
}
