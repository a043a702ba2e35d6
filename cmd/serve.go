package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kasyifana/audit-ai/internal/analysis"
	"github.com/kasyifana/audit-ai/internal/audit"
	"github.com/kasyifana/audit-ai/internal/config"
	"github.com/kasyifana/audit-ai/internal/gateway"
	"github.com/kasyifana/audit-ai/internal/scanclient"
	"github.com/kasyifana/audit-ai/internal/session"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the auditai gateway daemon",
	Long: `Starts the auditai gateway: a long-running daemon exposing a local
HTTP API (default: http://127.0.0.1:6380) for the full audit lifecycle:

  • Create audit orders and verify their (simulated) payments
  • Run audits against the ordered website and store the results
  • Retrieve the scored report with its executive summary
  • Proxy validated scan requests to the backend (POST /api/scan)
  • Stream live audit progress via GET /events (Server-Sent Events)

Recurring re-audits come from the "schedules" config section, e.g.:
  {"expr": "0 2 * * 1", "url": "https://example.com"}

Quick API reference:
  GET    /health                      liveness check
  GET    /api/status                  gateway status snapshot
  POST   /api/orders                  create an order
  GET    /api/orders/{id}             fetch an order session
  POST   /api/orders/{id}/payment     verify or reject the payment
  POST   /api/orders/{id}/audit       run the audit
  GET    /api/orders/{id}/report      rebuild the full report
  DELETE /api/orders/{id}             reset the session
  POST   /api/scan                    validated scan proxy
  GET    /events                      SSE stream of live events`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0,
		"HTTP port to listen on (default 6380, overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		fmt.Println("\nShutting down gateway gracefully...")
		cancel()
	}()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if servePort > 0 {
		cfg.Gateway.Port = servePort
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = 6380
	}

	store, err := session.New(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer store.Close()

	scans := scanclient.New(cfg.Backend)
	runner := audit.NewRunner(scans, analysis.New(cfg.LLM))

	fmt.Printf("auditai gateway starting\n")
	fmt.Printf("  Backend   : %s\n", cfg.Backend.BaseURL)
	fmt.Printf("  LLM       : %s\n", llmLabel(cfg.LLM))
	fmt.Printf("  API       : http://127.0.0.1:%d\n", cfg.Gateway.Port)
	fmt.Printf("  Events    : http://127.0.0.1:%d/events\n\n", cfg.Gateway.Port)
	fmt.Println("Press Ctrl+C to stop gracefully.")
	fmt.Println()

	gw := gateway.New(cfg, store, runner, scans)
	return gw.Start(ctx)
}

func llmLabel(cfg config.LLMConfig) string {
	if !cfg.Enabled() {
		return "disabled (rule-based analysis)"
	}
	return fmt.Sprintf("%s (%s)", cfg.Endpoint, cfg.Model)
}
