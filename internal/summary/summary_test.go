package summary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasyifana/audit-ai/models"
)

func testGenerator() *Generator {
	return &Generator{Clock: func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }}
}

func moderateScoring() *models.ScoringResult {
	return &models.ScoringResult{
		OverallScore: 62,
		OverallGrade: models.GradeC,
		RiskLevel:    models.RiskModerate,
		CategoryScores: []models.CategoryScore{
			{Category: "Port Security", Score: 10, Weight: 10},
			{Category: "SSL/TLS Configuration", Score: 8, Weight: 20},
			{Category: "Security Headers", Score: 4, Weight: 30,
				Weaknesses:      []string{"3 security headers missing: CSP, HSTS, X-Frame-Options"},
				Recommendations: []string{"Implementasikan 3 security headers yang missing"}},
			{Category: "Web Vulnerabilities", Score: 6, Weight: 15,
				Recommendations: []string{"Fix 4 web vulnerabilities yang terdeteksi"}},
		},
	}
}

func TestGenerate(t *testing.T) {
	s := testGenerator().Generate("https://example.com", moderateScoring(), nil)

	assert.Equal(t, "https://example.com", s.TargetURL)
	assert.Equal(t, "1 Juni 2025", s.AuditDate)
	assert.Equal(t, "Gemini Security Analysis", s.Auditor)
	assert.Equal(t, []string{
		"OWASP Testing Framework",
		"NIST Cybersecurity Framework",
		"Multi-Tool Security Scanning",
	}, s.Methodology)
	assert.Equal(t, 62, s.OverallScore)
	assert.Equal(t, 100, s.ScoreOutOf)
	assert.Equal(t, models.RiskModerate, s.RiskLevel)
	assert.Equal(t, "MODERATE RISK - Memerlukan Perbaikan Segera (Score: 62/100)", s.RiskStatus)
}

func TestGenerateKeyFindings(t *testing.T) {
	bundle := &models.RawScanBundle{
		CDN: &models.CDNScan{CDNDetected: true, CDNProvider: "Cloudflare"},
		Tech: &models.TechScan{Technologies: []models.Technology{
			{Name: "nginx"}, {Name: "PHP"},
		}},
	}
	s := testGenerator().Generate("https://example.com", moderateScoring(), bundle)

	// Port Security scores >= 9, Security Headers < 5, plus CDN and tech.
	require.Len(t, s.KeyFindings, 4)
	assert.Equal(t, "Port Security: Excellent (10/10)", s.KeyFindings[0])
	assert.Equal(t, "Security Headers: Score rendah (4/10) - 3 security headers missing: CSP, HSTS, X-Frame-Options", s.KeyFindings[1])
	assert.Equal(t, "Website menggunakan Cloudflare untuk proteksi dan performance", s.KeyFindings[2])
	assert.Equal(t, "Technology Stack: nginx, PHP", s.KeyFindings[3])
}

func TestGenerateKeyFindingsCap(t *testing.T) {
	scoring := moderateScoring()
	scoring.CriticalIssuesCount = 4
	scoring.CategoryScores[1].Score = 4
	scoring.CategoryScores[1].Weaknesses = []string{"SSL Grade C - Needs improvement"}
	bundle := &models.RawScanBundle{
		CDN:  &models.CDNScan{CDNDetected: true},
		Tech: &models.TechScan{Technologies: []models.Technology{{Name: "Apache"}}},
	}
	s := testGenerator().Generate("https://example.com", scoring, bundle)

	// Six candidate lines; the cap drops the trailing critical-issue line.
	// The CDN line uses the generic name when no provider is known.
	require.Len(t, s.KeyFindings, 5)
	assert.Equal(t, "Website menggunakan CDN untuk proteksi dan performance", s.KeyFindings[3])
	for _, f := range s.KeyFindings {
		assert.NotContains(t, f, "kelemahan kritis")
	}
}

func TestGenerateRecommendationsWorstFirst(t *testing.T) {
	s := testGenerator().Generate("https://example.com", moderateScoring(), nil)

	// Headers (4) before web (6); SSL (8) and ports (10) excluded.
	assert.Equal(t, []string{
		"Implementasikan 3 security headers yang missing",
		"Fix 4 web vulnerabilities yang terdeteksi",
	}, s.Recommendations)
}

func TestGenerateRecommendationsFallback(t *testing.T) {
	scoring := &models.ScoringResult{
		RiskLevel: models.RiskModerate,
		CategoryScores: []models.CategoryScore{
			{Category: "Port Security", Score: 10},
			{Category: "SSL/TLS Configuration", Score: 9},
		},
	}
	s := testGenerator().Generate("https://example.com", scoring, nil)
	assert.Equal(t, []string{"Maintain current security posture"}, s.Recommendations)
}

func TestGenerateNextSteps(t *testing.T) {
	tests := []struct {
		name    string
		scoring *models.ScoringResult
		want    []string
	}{
		{
			name: "critical risk with broken headers and ssl",
			scoring: &models.ScoringResult{
				RiskLevel: models.RiskCritical,
				CategoryScores: []models.CategoryScore{
					{Category: "Security Headers", Score: 0},
					{Category: "SSL/TLS Configuration", Score: 3},
				},
			},
			want: []string{
				"🔴 URGENT: Implementasi perbaikan kritis dalam 24-48 jam",
				"Fokus pada kelemahan dengan severity HIGH",
				"Implementasi security headers sebagai prioritas utama",
				"Perbaiki konfigurasi SSL/TLS untuk mencapai Grade A+",
				"Setup monitoring berkelanjutan untuk deteksi dini",
				"Schedule audit ulang dalam 1 bulan",
			},
		},
		{
			name: "healthy moderate",
			scoring: &models.ScoringResult{
				RiskLevel: models.RiskModerate,
				CategoryScores: []models.CategoryScore{
					{Category: "Security Headers", Score: 10},
					{Category: "SSL/TLS Configuration", Score: 10},
				},
			},
			want: []string{
				"Setup monitoring berkelanjutan untuk deteksi dini",
				"Schedule audit ulang dalam 1 bulan",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testGenerator().Generate("https://example.com", tt.scoring, nil)
			assert.Equal(t, tt.want, s.NextSteps)
		})
	}
}

func TestRiskStatusDescription(t *testing.T) {
	assert.Equal(t, "CRITICAL RISK - Memerlukan Tindakan Segera", RiskStatusDescription(models.RiskCritical, 12))
	assert.Equal(t, "HIGH RISK - Perbaikan Urgent Diperlukan", RiskStatusDescription(models.RiskHigh, 45))
	assert.Equal(t, "LOW RISK - Security Posture Baik (Score: 85/100)", RiskStatusDescription(models.RiskLow, 85))
	assert.Equal(t, "Status Unknown", RiskStatusDescription(models.RiskLevel("weird"), 0))
}

func TestColors(t *testing.T) {
	assert.Equal(t, "text-red-700 bg-red-100 border-red-300", RiskLevelColor(models.RiskCritical))
	assert.Equal(t, "text-green-700 bg-green-100 border-green-300", RiskLevelColor(models.RiskLow))
	assert.Equal(t, "text-green-600", ScoreColor(80))
	assert.Equal(t, "text-yellow-600", ScoreColor(60))
	assert.Equal(t, "text-orange-600", ScoreColor(40))
	assert.Equal(t, "text-red-600", ScoreColor(39))
}
