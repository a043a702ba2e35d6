// Package audit orchestrates one full audit run: scan, analyse, score,
// summarise. Individual scan failures degrade the report instead of aborting
// it; the run only fails outright on invalid input.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kasyifana/audit-ai/internal/analysis"
	"github.com/kasyifana/audit-ai/internal/scanclient"
	"github.com/kasyifana/audit-ai/internal/scoring"
	"github.com/kasyifana/audit-ai/internal/summary"
	"github.com/kasyifana/audit-ai/models"
)

// Mode selects the scanning strategy.
type Mode string

const (
	// ModeSequential runs every individual scanner in a fixed order.
	ModeSequential Mode = "sequential"
	// ModeMulti asks the backend for one combined scan, falling back to
	// sequential when the combined endpoint fails.
	ModeMulti Mode = "multi"
)

// sequentialScans is the fixed per-scanner order. CDN-bypass data has no
// dedicated endpoint; it only arrives inside multi-scan results.
var sequentialScans = []string{
	models.ScanPorts,
	models.ScanSSL,
	models.ScanHeaders,
	models.ScanWeb,
	models.ScanXSS,
	models.ScanSQL,
	models.ScanTech,
	models.ScanSubdomains,
}

// Scanner is the slice of scanclient.Client the runner needs.
type Scanner interface {
	Scan(ctx context.Context, key, target string) (*scanclient.Result, error)
}

// Options tune a single run.
type Options struct {
	Mode      Mode
	FocusArea string
	Notes     string

	// OnScanStarted and OnScanCompleted, when set, are invoked around each
	// backend scan call. The gateway uses them for SSE progress events.
	OnScanStarted   func(key string)
	OnScanCompleted func(key string, err error)
}

func (o Options) scanStarted(key string) {
	if o.OnScanStarted != nil {
		o.OnScanStarted(key)
	}
}

func (o Options) scanCompleted(key string, err error) {
	if o.OnScanCompleted != nil {
		o.OnScanCompleted(key, err)
	}
}

// Runner wires the pipeline stages together.
type Runner struct {
	scanner    Scanner
	analyzer   analysis.Analyzer
	summarizer *summary.Generator
}

// NewRunner builds a Runner from its stages.
func NewRunner(scanner Scanner, analyzer analysis.Analyzer) *Runner {
	return &Runner{
		scanner:    scanner,
		analyzer:   analyzer,
		summarizer: summary.NewGenerator(),
	}
}

// Run performs a complete audit of target and assembles the report. The
// returned report is never nil on a nil error, even when every scan failed;
// the warnings list says what is missing.
func (r *Runner) Run(ctx context.Context, target string, opts Options) (*models.Report, error) {
	if strings.TrimSpace(target) == "" {
		return nil, fmt.Errorf("audit target is required")
	}

	bundle, warnings := r.collect(ctx, target, opts)

	// The analyzer treats a nil bundle as "nothing scanned yet" and emits
	// the minimal placeholder report.
	analysisBundle := bundle
	if bundle.IsEmpty() {
		analysisBundle = nil
	}

	auditResult, err := r.analyzer.Analyze(ctx, analysis.Request{
		URL:       target,
		Bundle:    analysisBundle,
		FocusArea: opts.FocusArea,
		Notes:     opts.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("analysing scan results: %w", err)
	}

	scoringResult := scoring.Calculate(bundle, auditResult.Findings)
	execSummary := r.summarizer.Generate(target, scoringResult, bundle)

	if len(warnings) > 0 {
		auditResult.Summary = fmt.Sprintf("Sebagian hasil scan tidak tersedia (%d peringatan). %s",
			len(warnings), auditResult.Summary)
	}

	return &models.Report{
		TargetURL: target,
		Audit:     auditResult,
		Scoring:   scoringResult,
		Summary:   execSummary,
		Raw:       bundle,
		Warnings:  warnings,
	}, nil
}

// collect gathers scan data per the selected mode, merging partial results
// and recording a warning per degraded or failed scan.
func (r *Runner) collect(ctx context.Context, target string, opts Options) (*models.RawScanBundle, []string) {
	if opts.Mode == ModeMulti {
		opts.scanStarted(models.ScanMulti)
		result, err := r.scanner.Scan(ctx, models.ScanMulti, target)
		opts.scanCompleted(models.ScanMulti, err)
		if err == nil {
			var warnings []string
			if result.Warning != "" {
				warnings = append(warnings, result.Warning)
			}
			return result.Bundle, warnings
		}
		slog.Warn("multi scan failed, falling back to sequential scans", "target", target, "error", err)
		warnings := []string{fmt.Sprintf("Multi scan gagal, menjalankan scan individual: %v", err)}
		bundle, seqWarnings := r.sequential(ctx, target, opts)
		return bundle, append(warnings, seqWarnings...)
	}
	return r.sequential(ctx, target, opts)
}

func (r *Runner) sequential(ctx context.Context, target string, opts Options) (*models.RawScanBundle, []string) {
	bundle := &models.RawScanBundle{}
	var warnings []string

	for _, key := range sequentialScans {
		if err := ctx.Err(); err != nil {
			warnings = append(warnings, fmt.Sprintf("Audit dihentikan sebelum scan %s: %v", key, err))
			break
		}

		opts.scanStarted(key)
		result, err := r.scanner.Scan(ctx, key, target)
		opts.scanCompleted(key, err)
		if err != nil {
			slog.Warn("scan failed, continuing", "scan", key, "target", target, "error", err)
			warnings = append(warnings, fmt.Sprintf("Scan %s gagal: %v", key, err))
			continue
		}
		if result.Warning != "" {
			warnings = append(warnings, fmt.Sprintf("Scan %s: %s", key, result.Warning))
		}
		bundle.Merge(result.Bundle)
	}

	return bundle, warnings
}
