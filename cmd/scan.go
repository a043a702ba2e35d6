package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kasyifana/audit-ai/internal/analysis"
	"github.com/kasyifana/audit-ai/internal/audit"
	"github.com/kasyifana/audit-ai/internal/config"
	"github.com/kasyifana/audit-ai/internal/scanclient"
	"github.com/kasyifana/audit-ai/models"
)

var (
	scanMulti     bool
	scanFocusArea string
	scanNotes     string
	scanOutputFmt string
)

var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Run a one-shot security audit against a website",
	Long: `Runs the full audit pipeline against the given URL: every scanner in
sequence, analysis (LLM when configured, rule-based otherwise), scoring and
the executive summary.

Examples:
  auditai scan https://example.com
  auditai scan https://example.com --multi
  auditai scan https://example.com --focus "payment flow" --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runScanCmd,
}

func init() {
	scanCmd.Flags().BoolVar(&scanMulti, "multi", false,
		"use the backend's combined multi-scan endpoint instead of individual scans")
	scanCmd.Flags().StringVar(&scanFocusArea, "focus", "", "area to emphasise in the analysis")
	scanCmd.Flags().StringVar(&scanNotes, "notes", "", "free-form notes passed to the analysis")
	scanCmd.Flags().StringVar(&scanOutputFmt, "output", "summary", "output format: summary|json")
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	target := args[0]

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	mode := audit.ModeSequential
	if scanMulti {
		mode = audit.ModeMulti
	}

	runner := audit.NewRunner(scanclient.New(cfg.Backend), analysis.New(cfg.LLM))
	report, err := runner.Run(context.Background(), target, audit.Options{
		Mode:      mode,
		FocusArea: scanFocusArea,
		Notes:     scanNotes,
	})
	if err != nil {
		return fmt.Errorf("running audit: %w", err)
	}

	if scanOutputFmt == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(report)
	return nil
}

func printReport(report *models.Report) {
	s := report.Summary
	fmt.Printf("Audit report for %s\n", report.TargetURL)
	fmt.Printf("  Date   : %s\n", s.AuditDate)
	fmt.Printf("  Score  : %d/%d (%s)\n", s.OverallScore, s.ScoreOutOf, report.Scoring.OverallGrade)
	fmt.Printf("  Risk   : %s\n\n", s.RiskStatus)

	if len(s.KeyFindings) > 0 {
		fmt.Println("Key findings:")
		for _, f := range s.KeyFindings {
			fmt.Printf("  - %s\n", f)
		}
		fmt.Println()
	}

	if len(report.Audit.Findings) > 0 {
		fmt.Printf("Findings (%d):\n", len(report.Audit.Findings))
		for _, f := range report.Audit.Findings {
			fmt.Printf("  [%s] %s\n", strings.ToUpper(string(f.Severity)), f.Title)
		}
		fmt.Println()
	}

	if len(report.Audit.ActionItems) > 0 {
		fmt.Println("Action items:")
		for _, a := range report.Audit.ActionItems {
			fmt.Printf("  - %s (by %s)\n", a.Task, a.Deadline)
		}
		fmt.Println()
	}

	if len(s.NextSteps) > 0 {
		fmt.Println("Next steps:")
		for _, step := range s.NextSteps {
			fmt.Printf("  - %s\n", step)
		}
		fmt.Println()
	}

	if len(report.Warnings) > 0 {
		fmt.Println("Warnings:")
		for _, w := range report.Warnings {
			fmt.Printf("  ! %s\n", w)
		}
	}
}
