package extract

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kasyifana/audit-ai/models"
)

// Section bodies run until a horizontal rule; the trailing sections may also
// run to end-of-document.
var (
	portSectionRe    = regexp.MustCompile(`(?s)## Port Scan\n\n(.+?)\n\n---`)
	webSectionRe     = regexp.MustCompile(`(?s)## Web Vulnerabilities\n\n(.+?)\n\n---`)
	sslSectionRe     = regexp.MustCompile(`(?s)## SSL Check\n\n(.+?)\n\n---`)
	headersSectionRe = regexp.MustCompile(`(?s)## Security Headers\n\n(.+?)(?:\n\n---|\z)`)
	techSectionRe    = regexp.MustCompile(`(?s)## Technology Detection\n\n(.+?)(?:\n\n---|\z)`)

	pyTrueRe  = regexp.MustCompile(`\bTrue\b`)
	pyFalseRe = regexp.MustCompile(`\bFalse\b`)
	pyNoneRe  = regexp.MustCompile(`\bNone\b`)
)

// FromMarkdownReport parses the composite markdown document the multi-scan
// endpoint emits instead of strict JSON. Each "## Section" body is a
// Python-dict literal; sections that fail to parse are dropped silently and
// an empty object substituted, never a fatal error.
func FromMarkdownReport(report string) *models.RawScanBundle {
	b := &models.RawScanBundle{}

	if m := portSectionRe.FindStringSubmatch(report); m != nil {
		var ps models.PortScan
		if unmarshalSection("ports", m[1], &ps) {
			b.Ports = &ps
		}
	}

	if m := webSectionRe.FindStringSubmatch(report); m != nil {
		var ws models.WebScan
		if unmarshalSection("web", m[1], &ws) {
			if ws.ScanDepth == "" {
				ws.ScanDepth = "standard"
			}
			b.Web = &ws
		}
	}

	if m := sslSectionRe.FindStringSubmatch(report); m != nil {
		var raw struct {
			Grade       string              `json:"grade"`
			Issues      []string            `json:"issues"`
			Certificate *models.Certificate `json:"certificate"`
		}
		if unmarshalSection("ssl", m[1], &raw) {
			grade := raw.Grade
			if grade == "" {
				grade = "Unknown"
			}
			// Validity is inferred from the certificate in this mode: the
			// backend only flags expiry, not chain trust.
			valid := raw.Certificate == nil || !raw.Certificate.Expired.Bool()
			b.SSL = &models.SSLScan{
				Grade:       grade,
				Valid:       models.FlexBool(valid),
				Issues:      raw.Issues,
				Certificate: raw.Certificate,
			}
		}
	}

	if m := headersSectionRe.FindStringSubmatch(report); m != nil {
		var raw struct {
			Score   models.FlexInt   `json:"score"`
			Headers models.HeaderMap `json:"headers"`
			Issues  []string         `json:"issues"`
		}
		if unmarshalSection("headers", m[1], &raw) {
			score := raw.Score
			headers := raw.Headers
			if headers == nil {
				headers = models.HeaderMap{}
			}
			b.Headers = &models.HeadersScan{
				Score:   &score,
				Headers: headers,
				Issues:  raw.Issues,
				Missing: missingFromIssues(raw.Issues),
			}
		}
	}

	if m := techSectionRe.FindStringSubmatch(report); m != nil {
		var ts models.TechScan
		if unmarshalSection("tech", m[1], &ts) {
			b.Tech = &ts
		}
	}

	return b
}

// PythonDictToJSON converts a Python-dict-literal string into a
// JSON-parseable one: True/False/None become true/false/null and single
// quotes become double quotes. Apostrophes inside strings will corrupt the
// result; callers must treat parse failures as an empty section.
func PythonDictToJSON(body string) []byte {
	s := pyTrueRe.ReplaceAllString(body, "true")
	s = pyFalseRe.ReplaceAllString(s, "false")
	s = pyNoneRe.ReplaceAllString(s, "null")
	s = strings.ReplaceAll(s, "'", `"`)
	return []byte(s)
}

// unmarshalSection converts body from Python literal syntax and decodes it
// into dest. On failure it logs a warning and reports false so the section is
// skipped; extraction itself never fails.
func unmarshalSection(name, body string, dest any) bool {
	data := PythonDictToJSON(body)
	if err := json.Unmarshal(data, dest); err != nil {
		slog.Warn("extract: dropping unparsable markdown section",
			"section", name, "error", err)
		return false
	}
	return true
}

var missingIssueRe = regexp.MustCompile(`Missing (.+)`)

// missingFromIssues derives the missing-header list from issue strings like
// "Missing Content-Security-Policy".
func missingFromIssues(issues []string) []string {
	var missing []string
	for _, issue := range issues {
		if m := missingIssueRe.FindStringSubmatch(issue); m != nil {
			missing = append(missing, m[1])
		}
	}
	return missing
}
