// Package scoring derives weighted category scores and an overall risk
// rating from a raw scan bundle plus the analyzer's findings.
//
// Category scores work on the raw scanner data, never on the findings; the
// findings only feed the issue counts and the risk-level escalation. The four
// category weights sum to 75, not 100, which caps the overall score at 75 and
// makes "Low" risk unreachable from the score alone. That ceiling is part of
// the established rating scale and is kept as-is.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/kasyifana/audit-ai/models"
)

// Dangerous services when reachable from the internet: SSH, MySQL,
// PostgreSQL, MongoDB, Redis, RDP.
var dangerousPorts = map[int]bool{22: true, 3306: true, 5432: true, 27017: true, 6379: true, 3389: true}

var requiredHeaders = []string{
	"Strict-Transport-Security",
	"Content-Security-Policy",
	"X-Frame-Options",
	"X-Content-Type-Options",
	"Referrer-Policy",
}

// Calculate produces the full scoring result for one audit run. A nil bundle
// is scored as if every scanner section were absent.
func Calculate(bundle *models.RawScanBundle, findings []models.Finding) *models.ScoringResult {
	if bundle == nil {
		bundle = &models.RawScanBundle{}
	}

	categories := []models.CategoryScore{
		scorePorts(bundle.Ports),
		scoreSSL(bundle.SSL),
		scoreHeaders(bundle.Headers),
		scoreWeb(bundle.Web),
	}

	weighted := 0.0
	for _, cat := range categories {
		weighted += cat.Score * float64(cat.Weight) / 100
	}
	overall := int(math.Round(weighted * 10))

	critical, high, medium := 0, 0, 0
	for _, f := range findings {
		switch f.Severity {
		case models.SeverityHigh:
			critical++
		case models.SeverityMedium:
			high++
		case models.SeverityLow:
			medium++
		}
	}

	risk := models.RiskLow
	switch {
	case overall >= 80:
		risk = models.RiskLow
	case overall >= 60:
		risk = models.RiskModerate
	case overall >= 40:
		risk = models.RiskHigh
	default:
		risk = models.RiskCritical
	}
	// Finding-based escalation only ever raises the score-based level: five
	// High findings force Critical, three force at least High.
	if critical >= 5 {
		risk = models.RiskCritical
	} else if critical >= 3 && risk.Rank() < models.RiskHigh.Rank() {
		risk = models.RiskHigh
	}

	return &models.ScoringResult{
		OverallScore:        overall,
		OverallGrade:        models.GradeForScore(float64(overall) / 10),
		RiskLevel:           risk,
		CategoryScores:      categories,
		CriticalIssuesCount: critical,
		HighIssuesCount:     high,
		MediumIssuesCount:   medium,
	}
}

// scorePorts starts at 10, deducts 0.5 per port beyond 80/443 and a further
// 2 per dangerous service port.
func scorePorts(ports *models.PortScan) models.CategoryScore {
	cat := models.CategoryScore{Category: "Port Security", Weight: 10}
	score := 10.0

	if ports != nil {
		var extra, dangerous []string
		for _, p := range ports.OpenPorts {
			if p.Number != 80 && p.Number != 443 {
				extra = append(extra, fmt.Sprintf("%d", p.Number))
			}
			if dangerousPorts[p.Number] {
				dangerous = append(dangerous, p.Label())
			}
		}

		if len(extra) > 0 {
			score -= float64(len(extra)) * 0.5
			cat.Weaknesses = append(cat.Weaknesses,
				fmt.Sprintf("%d port tambahan terbuka: %s", len(extra), strings.Join(extra, ", ")))
			cat.Recommendations = append(cat.Recommendations,
				"Tutup port yang tidak diperlukan untuk mengurangi attack surface")
		} else {
			cat.Strengths = append(cat.Strengths, "Hanya port essential (80, 443) yang terbuka")
		}

		if len(dangerous) > 0 {
			score -= float64(len(dangerous)) * 2
			cat.Weaknesses = append(cat.Weaknesses,
				fmt.Sprintf("Port berbahaya terbuka: %s", strings.Join(dangerous, ", ")))
			cat.Recommendations = append(cat.Recommendations,
				"CRITICAL: Tutup port database dan management yang exposed")
		} else {
			cat.Strengths = append(cat.Strengths, "Tidak ada port database atau management yang exposed")
		}

		cat.Strengths = append(cat.Strengths, "Surface attack minimal")
	}

	cat.Score = clamp(score)
	cat.Grade = models.GradeForScore(score)
	return cat
}

// scoreSSL deducts for invalid certificates and low SSL Labs grades. Grade A
// or A+ floors the score at 9 even when the certificate deduction applied.
func scoreSSL(ssl *models.SSLScan) models.CategoryScore {
	cat := models.CategoryScore{Category: "SSL/TLS Configuration", Weight: 20}
	score := 10.0

	if ssl == nil {
		score = 0
		cat.Weaknesses = append(cat.Weaknesses, "SSL/TLS scan tidak tersedia")
	} else {
		if ssl.Valid.Bool() {
			cat.Strengths = append(cat.Strengths, "Sertifikat valid dan trusted")
		} else {
			score -= 5
			cat.Weaknesses = append(cat.Weaknesses, "Sertifikat tidak valid atau expired")
			cat.Recommendations = append(cat.Recommendations, "Perbarui sertifikat SSL segera")
		}

		switch grade := strings.ToUpper(ssl.Grade); grade {
		case "A+", "A":
			score = math.Max(score, 9)
			cat.Strengths = append(cat.Strengths, fmt.Sprintf("SSL Grade %s - Excellent configuration", grade))
		case "B":
			score -= 2
			cat.Weaknesses = append(cat.Weaknesses, "SSL Grade B - Good but could be better")
			cat.Recommendations = append(cat.Recommendations, "Upgrade ke Grade A dengan stronger ciphers")
		case "C":
			score -= 4
			cat.Weaknesses = append(cat.Weaknesses, "SSL Grade C - Needs improvement")
			cat.Recommendations = append(cat.Recommendations, "Enable TLS 1.2/1.3, disable old protocols")
		case "D", "F":
			score -= 7
			cat.Weaknesses = append(cat.Weaknesses, fmt.Sprintf("SSL Grade %s - Critical issues", grade))
			cat.Recommendations = append(cat.Recommendations, "URGENT: Fix SSL/TLS configuration immediately")
		}

		if len(ssl.Issues) > 0 {
			score -= float64(len(ssl.Issues)) * 0.5
			for i, issue := range ssl.Issues {
				if i == 3 {
					break
				}
				cat.Weaknesses = append(cat.Weaknesses, issue)
			}
		}
	}

	cat.Score = clamp(score)
	cat.Grade = models.GradeForScore(score)
	return cat
}

// scoreHeaders deducts 2 per missing canonical header. The backend's own
// score==0 signal additionally flags a fully unprotected site; it does not
// change the numeric score beyond the per-header deductions.
func scoreHeaders(hs *models.HeadersScan) models.CategoryScore {
	cat := models.CategoryScore{Category: "Security Headers", Weight: 30}
	score := 10.0

	if hs == nil {
		score = 0
		cat.Weaknesses = append(cat.Weaknesses, "Security headers scan tidak tersedia")
	} else {
		var missing []string
		for _, h := range requiredHeaders {
			if !hs.Headers.Has(h) {
				missing = append(missing, h)
			}
		}

		if len(missing) == 0 {
			score = 10
			cat.Strengths = append(cat.Strengths, "Semua security headers essential dikonfigurasi")
		} else {
			score = 10 - float64(len(missing))*2
			cat.Weaknesses = append(cat.Weaknesses,
				fmt.Sprintf("%d security headers missing: %s", len(missing), strings.Join(missing, ", ")))
			cat.Recommendations = append(cat.Recommendations,
				fmt.Sprintf("Implementasikan %d security headers yang missing", len(missing)))
		}

		if hs.Score != nil && hs.Score.Int() == 0 {
			cat.Weaknesses = append(cat.Weaknesses, "Tidak ada security headers sama sekali - CRITICAL")
			cat.Recommendations = append(cat.Recommendations, "Implementasikan minimal HSTS, CSP, dan X-Frame-Options")
		}
	}

	cat.Score = clamp(score)
	cat.Grade = models.GradeForScore(score)
	return cat
}

// scoreWeb deducts 1 per reported vulnerability. A missing web section is
// neutral (5), not zero: the scan frequently times out and its absence says
// nothing about the site.
func scoreWeb(web *models.WebScan) models.CategoryScore {
	cat := models.CategoryScore{Category: "Web Vulnerabilities", Weight: 15}
	score := 10.0

	if web == nil {
		score = 5
	} else {
		count := web.VulnerabilityCount.Int()
		if count == 0 {
			score = 10
			cat.Strengths = append(cat.Strengths, "Tidak ada kerentanan web yang terdeteksi oleh Nikto")
			cat.Strengths = append(cat.Strengths, "Website bersih dari kerentanan umum")
		} else {
			score = math.Max(0, 10-float64(count))
			cat.Weaknesses = append(cat.Weaknesses, fmt.Sprintf("%d vulnerabilities detected", count))
			for i, vuln := range web.Vulnerabilities {
				if i == 3 {
					break
				}
				desc := vuln.Description
				if desc == "" {
					desc = vuln.Title
				}
				if desc != "" {
					cat.Weaknesses = append(cat.Weaknesses, desc)
				}
			}
			cat.Recommendations = append(cat.Recommendations,
				fmt.Sprintf("Fix %d web vulnerabilities yang terdeteksi", count))
		}

		if web.ScanDepth == "standard" {
			cat.Recommendations = append(cat.Recommendations, "Consider deep scan untuk comprehensive analysis")
		}
	}

	cat.Score = clamp(score)
	cat.Grade = models.GradeForScore(score)
	return cat
}

func clamp(score float64) float64 {
	return math.Max(0, math.Min(10, score))
}
