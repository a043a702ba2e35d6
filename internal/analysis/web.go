package analysis

import (
	"fmt"

	"github.com/kasyifana/audit-ai/models"
)

// processWeb handles the Nikto-style scan. Some runs carry a populated
// vulnerabilities array, some only an issues_count integer; in the latter
// case placeholder findings are synthesised so the count is not lost.
func (b *reportBuilder) processWeb(web *models.WebScan) {
	if web == nil {
		return
	}

	vulns := web.Vulnerabilities
	if len(vulns) == 0 && web.IssuesCount.Int() > 0 {
		for i := 0; i < web.IssuesCount.Int(); i++ {
			vulns = append(vulns, models.Vulnerability{
				Title:       fmt.Sprintf("Web Vulnerability #%d", i+1),
				Severity:    "Medium",
				Description: "Vulnerability ditemukan pada web scan (detail tidak tersedia)",
			})
		}
	}
	if len(vulns) == 0 {
		return
	}

	// Buckets count normalized severities, so an unrecognized token lands in
	// the Medium bucket along with the finding it produces.
	highCount, mediumCount := 0, 0
	for i, vuln := range vulns {
		severity := models.NormalizeSeverity(vuln.Severity)
		switch severity {
		case models.SeverityHigh:
			highCount++
		case models.SeverityMedium:
			mediumCount++
		}

		title := vuln.Title
		if title == "" {
			title = fmt.Sprintf("Web Vulnerability #%d", i+1)
		}
		description := vuln.Description
		if description == "" {
			description = fmt.Sprintf("Vulnerability ditemukan: %s", title)
		}
		impact := vuln.Impact
		if impact == "" {
			switch severity {
			case models.SeverityHigh:
				impact = "Website rentan terhadap serangan dan eksploitasi."
			case models.SeverityMedium:
				impact = "Dapat menjadi celah keamanan jika tidak ditangani."
			default:
				impact = "Risiko rendah, namun sebaiknya tetap diperbaiki."
			}
		}

		b.findings = append(b.findings, models.Finding{
			ID:          fmt.Sprintf("web-%d", i+1),
			Title:       title,
			Severity:    severity,
			Description: description,
			Impact:      impact,
		})
	}

	if highCount > 0 {
		b.recommend(fmt.Sprintf("Segera perbaiki %d vulnerability berisiko tinggi yang ditemukan", highCount))
		b.actionItems = append(b.actionItems, models.ActionItem{
			ID:       "web-action-1",
			Task:     fmt.Sprintf("Review dan perbaiki %d vulnerability berisiko tinggi", highCount),
			Priority: models.SeverityHigh,
			Deadline: b.deadline(7),
		})
	}
	if mediumCount > 0 {
		b.recommend(fmt.Sprintf("Tangani %d vulnerability berisiko sedang", mediumCount))
		b.actionItems = append(b.actionItems, models.ActionItem{
			ID:       "web-action-2",
			Task:     fmt.Sprintf("Review dan perbaiki %d vulnerability berisiko sedang", mediumCount),
			Priority: models.SeverityMedium,
			Deadline: b.deadline(14),
		})
	}
}
