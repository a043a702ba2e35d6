package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kasyifana/audit-ai/models"
)

// Ports commonly abused when left exposed: FTP, Telnet, MySQL, PostgreSQL,
// MSSQL, RDP.
var riskyPorts = map[int]bool{21: true, 23: true, 3306: true, 5432: true, 1433: true, 3389: true}

// RuleBased is the deterministic analyzer. It processes each scanner section
// independently in a fixed order (ssl, headers, web, xss, sql, ports, tech,
// subdomains, cdn), each contributing zero or more findings, recommendations
// and action items. It never returns an error.
type RuleBased struct {
	// Clock is injectable for deterministic deadlines in tests.
	Clock func() time.Time
	// NewID generates the report ID.
	NewID func() string
}

// NewRuleBased returns a RuleBased analyzer with production defaults.
func NewRuleBased() *RuleBased {
	return &RuleBased{Clock: time.Now, NewID: uuid.NewString}
}

func (r *RuleBased) Name() string { return "rules" }

func (r *RuleBased) Analyze(_ context.Context, req Request) (*models.AuditResult, error) {
	now := r.Clock().UTC()

	if req.Bundle == nil {
		return &models.AuditResult{
			ID:              r.NewID(),
			Date:            now.Format(time.RFC3339),
			Type:            "Website Blackbox Audit",
			Summary:         "Audit selesai. Hasil scan sedang diproses.",
			Findings:        []models.Finding{},
			Recommendations: []string{},
			ActionItems:     []models.ActionItem{},
		}, nil
	}

	// Slices start empty rather than nil so a bundle with no triggered rules
	// still serializes as [] like the nil-bundle report above.
	b := &reportBuilder{
		now:             now,
		findings:        []models.Finding{},
		recommendations: []string{},
		actionItems:     []models.ActionItem{},
	}
	b.processSSL(req.Bundle.SSL)
	b.processHeaders(req.Bundle.Headers)
	b.processWeb(req.Bundle.Web)
	b.processXSS(req.Bundle.XSS)
	b.processSQL(req.Bundle.SQL)
	b.processPorts(req.Bundle.Ports)
	b.processTech(req.Bundle.Tech)
	b.processSubdomains(req.Bundle.Subdomains)
	b.processCDN(req.Bundle.CDN)

	return &models.AuditResult{
		ID:              r.NewID(),
		Date:            now.Format(time.RFC3339),
		Type:            "Website Blackbox Audit",
		Summary:         b.summary(),
		Findings:        b.findings,
		Recommendations: b.recommendations,
		ActionItems:     b.actionItems,
	}, nil
}

// reportBuilder accumulates one run's findings in scanner-processing order,
// keeping output deterministic for a given bundle.
type reportBuilder struct {
	now             time.Time
	findings        []models.Finding
	recommendations []string
	actionItems     []models.ActionItem
}

// deadline renders "now + days" as a date-only string. Offsets are fixed per
// priority bucket (3/7/14 days), never taken from scanner data.
func (b *reportBuilder) deadline(days int) string {
	return b.now.AddDate(0, 0, days).Format("2006-01-02")
}

func (b *reportBuilder) recommend(rec string) {
	for _, existing := range b.recommendations {
		if existing == rec {
			return
		}
	}
	b.recommendations = append(b.recommendations, rec)
}

func (b *reportBuilder) summary() string {
	total := len(b.findings)
	high := 0
	for _, f := range b.findings {
		if f.Severity == models.SeverityHigh {
			high++
		}
	}
	closing := "Website relatif aman, namun masih ada beberapa area yang dapat ditingkatkan."
	if high > 0 {
		closing = "Segera perbaiki temuan berisiko tinggi untuk meningkatkan keamanan website."
	}
	return fmt.Sprintf("Audit website selesai. Ditemukan %d temuan, dengan %d temuan berisiko tinggi. %s",
		total, high, closing)
}

func (b *reportBuilder) processSSL(ssl *models.SSLScan) {
	if ssl == nil {
		return
	}
	grade := ssl.Grade
	if grade == "" {
		grade = "Unknown"
	}

	if ssl.Valid.Bool() && grade != "F" && grade != "D" && grade != "C" {
		return
	}

	severity := models.SeverityMedium
	if grade == "F" || grade == "D" {
		severity = models.SeverityHigh
	}

	var desc strings.Builder
	fmt.Fprintf(&desc, "SSL/TLS Certificate mendapat grade %s.", grade)

	if cert := ssl.Certificate; cert != nil {
		desc.WriteString("\n\n**Certificate Details:**")
		fmt.Fprintf(&desc, "\n- Subject: %s", cert.Subject)
		fmt.Fprintf(&desc, "\n- Issuer: %s", cert.Issuer)
		fmt.Fprintf(&desc, "\n- Valid From: %s", cert.NotBefore)
		fmt.Fprintf(&desc, "\n- Valid Until: %s", cert.NotAfter)
		fmt.Fprintf(&desc, "\n- Algorithm: %s", cert.SignatureAlgorithm)
		fmt.Fprintf(&desc, "\n- Key Size: %d bits", cert.KeySize.Int())
		if len(cert.SAN) > 0 {
			fmt.Fprintf(&desc, "\n- Subject Alternative Names: %s", strings.Join(cert.SAN, ", "))
		}
	}

	if len(ssl.Issues) > 0 {
		desc.WriteString("\n\n**Issues Detected:**")
		for i, issue := range ssl.Issues {
			fmt.Fprintf(&desc, "\n%d. %s", i+1, issue)
		}
	}

	fmt.Fprintf(&desc, "\n\n**Security Impact:**\nSSL/TLS configuration yang lemah memungkinkan attacker melakukan man-in-the-middle attacks, decrypt encrypted traffic, dan intercept sensitive data seperti passwords dan credit card information. Grade %s menunjukkan ada protocol/cipher yang outdated atau insecure yang masih di-support, atau key size yang insufficient.", grade)
	desc.WriteString("\n\n**Remediation Steps:**\n1. Disable semua protocol lama (SSLv2, SSLv3, TLS 1.0, TLS 1.1)\n2. Enable hanya TLS 1.2 dan TLS 1.3\n3. Gunakan strong cipher suites (ECDHE+AESGCM, ChaCha20-Poly1305)\n4. Upgrade ke certificate dengan key size minimum 2048 bits (recommended 4096 bits untuk RSA)\n5. Untuk ECC certificates, gunakan minimum 256-bit ECDSA keys\n6. Enable OCSP Stapling untuk faster certificate validation\n7. Test configuration di SSL Labs (ssllabs.com/ssltest/)")

	b.findings = append(b.findings, models.Finding{
		ID:          "ssl-1",
		Title:       fmt.Sprintf("SSL/TLS Configuration Issue - Grade %s", grade),
		Severity:    severity,
		Description: desc.String(),
		Impact:      fmt.Sprintf("Website tidak menggunakan encryption yang optimal. Risiko: man-in-the-middle attacks, traffic decryption, data interception. Grade %s tidak memenuhi standar security modern dan dapat mengurangi trust indicator di browser.", grade),
	})

	b.recommend("Upgrade SSL/TLS configuration untuk mencapai Grade A atau A+ di SSL Labs")
	b.recommend("Implementasikan TLS 1.3 untuk performance dan security yang optimal")

	b.actionItems = append(b.actionItems, models.ActionItem{
		ID:       "ssl-action-1",
		Task:     "Perbaiki SSL/TLS configuration: disable old protocols, enable TLS 1.3, use strong ciphers, upgrade certificate key size",
		Priority: severity,
		Deadline: b.deadline(7),
	})
}

func (b *reportBuilder) processXSS(xss *models.ProbeScan) {
	if xss == nil || !xss.Vulnerable.Bool() {
		return
	}
	b.findings = append(b.findings, models.Finding{
		ID:          "xss-1",
		Title:       "Vulnerability XSS Ditemukan",
		Severity:    models.SeverityHigh,
		Description: "Website rentan terhadap serangan Cross-Site Scripting (XSS).",
		Impact:      "Penyerang dapat mengeksekusi script berbahaya di browser pengguna.",
	})
	b.recommend("Implementasikan input validation dan output encoding untuk mencegah XSS")
	b.actionItems = append(b.actionItems, models.ActionItem{
		ID:       "xss-action-1",
		Task:     "Perbaiki vulnerability XSS dengan input validation",
		Priority: models.SeverityHigh,
		Deadline: b.deadline(7),
	})
}

func (b *reportBuilder) processSQL(sqlScan *models.ProbeScan) {
	if sqlScan == nil || !sqlScan.Vulnerable.Bool() {
		return
	}
	b.findings = append(b.findings, models.Finding{
		ID:          "sql-1",
		Title:       "Vulnerability SQL Injection Ditemukan",
		Severity:    models.SeverityHigh,
		Description: "Website rentan terhadap serangan SQL Injection.",
		Impact:      "Penyerang dapat mengakses atau memanipulasi database.",
	})
	b.recommend("Gunakan prepared statements dan parameterized queries")
	b.actionItems = append(b.actionItems, models.ActionItem{
		ID:       "sql-action-1",
		Task:     "Perbaiki vulnerability SQL Injection dengan prepared statements",
		Priority: models.SeverityHigh,
		Deadline: b.deadline(7),
	})
}

func (b *reportBuilder) processPorts(ports *models.PortScan) {
	if ports == nil || len(ports.OpenPorts) == 0 {
		return
	}
	var risky []string
	for _, p := range ports.OpenPorts {
		if riskyPorts[p.Number] {
			risky = append(risky, p.Label())
		}
	}
	if len(risky) == 0 {
		return
	}
	list := strings.Join(risky, ", ")
	b.findings = append(b.findings, models.Finding{
		ID:          "ports-1",
		Title:       fmt.Sprintf("Port Berisiko Terbuka: %s", list),
		Severity:    models.SeverityMedium,
		Description: fmt.Sprintf("Port %s terbuka dan dapat menjadi celah keamanan.", list),
		Impact:      "Port terbuka dapat dieksploitasi jika tidak dikonfigurasi dengan benar.",
	})
	b.recommend(fmt.Sprintf("Tutup atau amankan port yang tidak diperlukan: %s", list))
}

func (b *reportBuilder) processTech(tech *models.TechScan) {
	if tech == nil || len(tech.Technologies) == 0 {
		return
	}
	labels := make([]string, 0, len(tech.Technologies))
	for _, t := range tech.Technologies {
		labels = append(labels, t.Label())
	}
	b.recommend(fmt.Sprintf("Pastikan semua teknologi terdeteksi (%s) selalu up-to-date", strings.Join(labels, ", ")))
}

func (b *reportBuilder) processSubdomains(sub *models.SubdomainScan) {
	if sub == nil || len(sub.Subdomains) == 0 {
		return
	}
	b.recommend(fmt.Sprintf("Monitor dan audit %d subdomain yang ditemukan", len(sub.Subdomains)))
}
