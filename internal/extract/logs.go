// Package extract recovers partial scan data from free text. The scanning
// backend sometimes finishes a scan but fails to deliver a structured
// response; the evidence survives either as completion markers in error logs
// or as a composite markdown report with Python-dict section bodies.
//
// Extraction is best effort and side-effect free: it never returns an error,
// only whatever sections could be recovered.
package extract

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kasyifana/audit-ai/models"
)

var (
	sslLogRe     = regexp.MustCompile(`(?i)SSL analysis completed for (.+?): Grade ([A-F])`)
	portsLogRe   = regexp.MustCompile(`(?i)Scan completed for (.+?): (\d+) open ports found`)
	niktoLogRe   = regexp.MustCompile(`(?i)Nikto scan completed: (\d+) issues found`)
	headersLogRe = regexp.MustCompile(`(?i)Header analysis completed for (.+?): Score (\d+)/100`)
	techLogRe    = regexp.MustCompile(`(?i)Technologies found for (.+?):\s*(\{[^}]+\})`)

	serverKVRe = regexp.MustCompile(`(?i)['"]?server['"]?\s*:\s*['"]([^'"]+)['"]`)
	poweredRe  = regexp.MustCompile(`(?i)['"]x-powered-by['"]\s*:\s*['"]([^'"]+)['"]`)
)

// FromLogs scans an error log for per-scanner completion markers and rebuilds
// the sections they evidence. Markers are matched independently; a missing
// marker just means that scanner contributes nothing. The result may be an
// empty bundle, never nil.
func FromLogs(errorLog, target string) *models.RawScanBundle {
	b := &models.RawScanBundle{}

	if m := sslLogRe.FindStringSubmatch(errorLog); m != nil {
		host := m[1]
		if host == "" {
			host = target
		}
		grade := strings.ToUpper(m[2])
		b.SSL = &models.SSLScan{
			Grade: grade,
			Valid: models.FlexBool(grade != "F"),
			Host:  host,
		}
	}

	if m := portsLogRe.FindStringSubmatch(errorLog); m != nil {
		host := m[1]
		if host == "" {
			host = target
		}
		count, _ := strconv.Atoi(m[2])
		// Exact port numbers are gone at this point; the log only says how
		// many were open. Assume the web-facing pair when count > 0. This is
		// a deliberate approximation, not a guess to refine further.
		open := []models.Port{}
		if count > 0 {
			open = []models.Port{{Number: 80}, {Number: 443}}
		}
		b.Ports = &models.PortScan{OpenPorts: open, Host: host}
	}

	if m := niktoLogRe.FindStringSubmatch(errorLog); m != nil {
		count, _ := strconv.Atoi(m[1])
		web := &models.WebScan{IssuesCount: models.FlexInt(count)}
		if count > 0 {
			web.Vulnerabilities = models.VulnList{{
				Title:    "Web vulnerabilities found",
				Severity: "Medium",
			}}
		}
		b.Web = web
	}

	if m := headersLogRe.FindStringSubmatch(errorLog); m != nil {
		score, _ := strconv.Atoi(m[2])
		fs := models.FlexInt(score)
		hs := &models.HeadersScan{Score: &fs, Headers: models.HeaderMap{}}
		if score < 50 {
			hs.Missing = []string{"Content-Security-Policy", "Strict-Transport-Security"}
		}
		b.Headers = hs
	}

	if tech := extractTechnologies(errorLog); tech != nil {
		b.Tech = tech
	}

	return b
}

// extractTechnologies handles both the dict marker form
// ("Technologies found for HOST: {'server': 'nginx', ...}") and bare
// key:value fragments left over in the log.
func extractTechnologies(errorLog string) *models.TechScan {
	if m := techLogRe.FindStringSubmatch(errorLog); m != nil {
		jsonStr := strings.ReplaceAll(m[2], "'", `"`)
		var techMap map[string]any
		if err := json.Unmarshal([]byte(jsonStr), &techMap); err == nil {
			techs := make([]models.Technology, 0, len(techMap))
			for _, name := range sortedKeys(techMap) {
				version := ""
				if s, ok := techMap[name].(string); ok {
					version = s
				}
				techs = append(techs, models.Technology{Name: name, Version: version})
			}
			return &models.TechScan{Technologies: techs}
		}
		slog.Warn("extract: technologies dict did not parse, probing key fragments")

		var techs []models.Technology
		if sm := serverKVRe.FindStringSubmatch(m[2]); sm != nil {
			techs = append(techs, models.Technology{Name: sm[1]})
		}
		if pm := poweredRe.FindStringSubmatch(m[2]); pm != nil {
			techs = append(techs, models.Technology{Name: pm[1]})
		}
		if len(techs) > 0 {
			return &models.TechScan{Technologies: techs}
		}
		return nil
	}

	if sm := serverKVRe.FindStringSubmatch(errorLog); sm != nil {
		return &models.TechScan{Technologies: []models.Technology{{Name: sm[1]}}}
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Stable output for a deterministic pipeline.
	sort.Strings(keys)
	return keys
}
