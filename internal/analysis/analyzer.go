// Package analysis turns a raw scan bundle into a normalised AuditResult.
//
// Two strategies exist: Remote (LLM-backed) and RuleBased. The Fallback
// combinator tries the remote path first and silently falls back to the rules
// on any failure, so analysis never raises to the caller.
package analysis

import (
	"context"
	"log/slog"

	"github.com/kasyifana/audit-ai/internal/config"
	"github.com/kasyifana/audit-ai/models"
)

// Request carries one audit run's inputs into an Analyzer.
type Request struct {
	URL       string
	Bundle    *models.RawScanBundle
	FocusArea string
	Notes     string
}

// Analyzer produces an AuditResult from a raw scan bundle.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, req Request) (*models.AuditResult, error)
}

// Fallback tries primary and falls back to secondary on any error. The
// secondary is expected to be infallible (RuleBased never fails).
type Fallback struct {
	primary   Analyzer
	secondary Analyzer
}

// NewFallback wires primary with secondary as the fallback.
func NewFallback(primary, secondary Analyzer) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

func (f *Fallback) Name() string { return "fallback" }

func (f *Fallback) Analyze(ctx context.Context, req Request) (*models.AuditResult, error) {
	if f.primary != nil {
		result, err := f.primary.Analyze(ctx, req)
		if err == nil {
			return result, nil
		}
		slog.Warn("analysis: primary analyzer failed, falling back",
			"primary", f.primary.Name(), "fallback", f.secondary.Name(), "error", err)
	}
	return f.secondary.Analyze(ctx, req)
}

// New returns the configured Analyzer. With no LLM endpoint/key the
// rule-based analyzer runs alone; that is a valid disabled state, not an
// error.
func New(cfg config.LLMConfig) Analyzer {
	rules := NewRuleBased()
	if !cfg.Enabled() {
		return rules
	}
	return NewFallback(NewRemote(cfg), rules)
}
