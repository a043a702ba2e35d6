// Package summary renders an executive-level narrative view over a scoring
// result: the management-facing slice of the report, as opposed to the
// per-finding technical detail.
package summary

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kasyifana/audit-ai/models"
)

// indonesianMonths maps time.Month to the locale used throughout the report.
var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var methodology = []string{
	"OWASP Testing Framework",
	"NIST Cybersecurity Framework",
	"Multi-Tool Security Scanning",
}

// Generator builds executive summaries. Clock is injectable for tests.
type Generator struct {
	Clock func() time.Time
}

// NewGenerator returns a Generator with production defaults.
func NewGenerator() *Generator {
	return &Generator{Clock: time.Now}
}

// Generate derives the summary for one audit run. The bundle contributes
// infrastructure context (CDN, tech stack) to the key findings; everything
// else comes from the scoring result.
func (g *Generator) Generate(targetURL string, scoring *models.ScoringResult, bundle *models.RawScanBundle) *models.ExecutiveSummary {
	if bundle == nil {
		bundle = &models.RawScanBundle{}
	}

	var keyFindings []string
	for _, cat := range scoring.CategoryScores {
		switch {
		case cat.Score < 5:
			weakness := "Memerlukan perbaikan"
			if len(cat.Weaknesses) > 0 {
				weakness = cat.Weaknesses[0]
			}
			keyFindings = append(keyFindings,
				fmt.Sprintf("%s: Score rendah (%s/10) - %s", cat.Category, formatScore(cat.Score), weakness))
		case cat.Score >= 9:
			keyFindings = append(keyFindings,
				fmt.Sprintf("%s: Excellent (%s/10)", cat.Category, formatScore(cat.Score)))
		}
	}

	if cdn := bundle.CDN; cdn != nil && cdn.CDNDetected.Bool() {
		provider := cdn.CDNProvider
		if provider == "" {
			provider = "CDN"
		}
		keyFindings = append(keyFindings,
			fmt.Sprintf("Website menggunakan %s untuk proteksi dan performance", provider))
	}

	if tech := bundle.Tech; tech != nil && len(tech.Technologies) > 0 {
		names := make([]string, 0, len(tech.Technologies))
		for _, t := range tech.Technologies {
			names = append(names, t.Name)
		}
		keyFindings = append(keyFindings, "Technology Stack: "+strings.Join(names, ", "))
	}

	if scoring.CriticalIssuesCount > 0 {
		keyFindings = append(keyFindings,
			fmt.Sprintf("⚠️ %d kelemahan kritis terdeteksi yang memerlukan perbaikan segera", scoring.CriticalIssuesCount))
	}
	if len(keyFindings) > 5 {
		keyFindings = keyFindings[:5]
	}

	recommendations := topRecommendations(scoring.CategoryScores)
	if len(recommendations) == 0 {
		recommendations = []string{"Maintain current security posture"}
	}

	var nextSteps []string
	if scoring.RiskLevel == models.RiskCritical || scoring.RiskLevel == models.RiskHigh {
		nextSteps = append(nextSteps,
			"🔴 URGENT: Implementasi perbaikan kritis dalam 24-48 jam",
			"Fokus pada kelemahan dengan severity HIGH")
	}
	if cat, ok := findCategory(scoring.CategoryScores, "Security Headers"); ok && cat.Score < 3 {
		nextSteps = append(nextSteps, "Implementasi security headers sebagai prioritas utama")
	}
	if cat, ok := findCategory(scoring.CategoryScores, "SSL/TLS Configuration"); ok && cat.Score < 7 {
		nextSteps = append(nextSteps, "Perbaiki konfigurasi SSL/TLS untuk mencapai Grade A+")
	}
	nextSteps = append(nextSteps,
		"Setup monitoring berkelanjutan untuk deteksi dini",
		"Schedule audit ulang dalam 1 bulan")

	return &models.ExecutiveSummary{
		TargetURL:       targetURL,
		AuditDate:       formatIndonesianDate(g.Clock()),
		Auditor:         "Gemini Security Analysis",
		Methodology:     methodology,
		OverallScore:    scoring.OverallScore,
		ScoreOutOf:      100,
		RiskStatus:      RiskStatusDescription(scoring.RiskLevel, scoring.OverallScore),
		RiskLevel:       scoring.RiskLevel,
		KeyFindings:     keyFindings,
		CriticalIssues:  scoring.CriticalIssuesCount,
		Recommendations: recommendations,
		NextSteps:       nextSteps,
	}
}

// topRecommendations takes the first recommendation of each category scoring
// below 7, worst first, capped at three.
func topRecommendations(categories []models.CategoryScore) []string {
	weak := make([]models.CategoryScore, 0, len(categories))
	for _, cat := range categories {
		if cat.Score < 7 {
			weak = append(weak, cat)
		}
	}
	sort.SliceStable(weak, func(i, j int) bool { return weak[i].Score < weak[j].Score })
	if len(weak) > 3 {
		weak = weak[:3]
	}

	var recs []string
	for _, cat := range weak {
		if len(cat.Recommendations) > 0 {
			recs = append(recs, cat.Recommendations[0])
		}
	}
	return recs
}

func findCategory(categories []models.CategoryScore, name string) (models.CategoryScore, bool) {
	for _, cat := range categories {
		if cat.Category == name {
			return cat, true
		}
	}
	return models.CategoryScore{}, false
}

// RiskStatusDescription renders the headline status line for a risk level.
// Moderate and Low include the numeric score.
func RiskStatusDescription(risk models.RiskLevel, score int) string {
	switch risk {
	case models.RiskCritical:
		return "CRITICAL RISK - Memerlukan Tindakan Segera"
	case models.RiskHigh:
		return "HIGH RISK - Perbaikan Urgent Diperlukan"
	case models.RiskModerate:
		return fmt.Sprintf("MODERATE RISK - Memerlukan Perbaikan Segera (Score: %d/100)", score)
	case models.RiskLow:
		return fmt.Sprintf("LOW RISK - Security Posture Baik (Score: %d/100)", score)
	default:
		return "Status Unknown"
	}
}

// RiskLevelColor returns the UI style classes for a risk level badge.
func RiskLevelColor(risk models.RiskLevel) string {
	switch risk {
	case models.RiskCritical:
		return "text-red-700 bg-red-100 border-red-300"
	case models.RiskHigh:
		return "text-orange-700 bg-orange-100 border-orange-300"
	case models.RiskModerate:
		return "text-yellow-700 bg-yellow-100 border-yellow-300"
	case models.RiskLow:
		return "text-green-700 bg-green-100 border-green-300"
	default:
		return "text-gray-700 bg-gray-100 border-gray-300"
	}
}

// ScoreColor returns the UI text class for a 0-100 score.
func ScoreColor(score int) string {
	switch {
	case score >= 80:
		return "text-green-600"
	case score >= 60:
		return "text-yellow-600"
	case score >= 40:
		return "text-orange-600"
	default:
		return "text-red-600"
	}
}

func formatIndonesianDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), indonesianMonths[t.Month()-1], t.Year())
}

// formatScore renders 7.5 as "7.5" and 7.0 as "7", matching how scores read
// in the rest of the report.
func formatScore(score float64) string {
	return fmt.Sprintf("%g", score)
}
