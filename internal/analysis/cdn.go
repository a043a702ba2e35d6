package analysis

import (
	"fmt"
	"strings"

	"github.com/kasyifana/audit-ai/models"
)

// cdnHeaderDetails holds the technical deep-dive appended to origin-server
// header findings, keyed by the backend's lower-case header name.
var cdnHeaderDetails = map[string]string{
	"strict-transport-security": "**Technical Details:**\nHTTP Strict Transport Security (HSTS) memproteksi website dari protocol downgrade attacks dan cookie hijacking. Tanpa HSTS:\n- Browser dapat di-redirect ke HTTP version (SSL stripping)\n- Man-in-the-middle attacker dapat intercept initial HTTP request\n- User dapat membuka insecure HTTP link secara manual\n\n**Configuration Example:**\n```\nStrict-Transport-Security: max-age=31536000; includeSubDomains; preload\n```\n\n**Best Practices:**\n- Set max-age minimal 1 tahun (31536000 detik)\n- Include subdomains jika semua subdomain support HTTPS\n- Submit ke HSTS preload list untuk proteksi built-in browser",

	"content-security-policy": "**Technical Details:**\nContent Security Policy (CSP) adalah defense-in-depth mechanism untuk mencegah XSS, data injection, dan clickjacking. CSP bekerja dengan:\n- Whitelist sources untuk content (scripts, styles, images, fonts)\n- Block inline scripts/styles by default\n- Disable fitur berbahaya seperti eval()\n- Report violations untuk monitoring\n\n**Configuration Example:**\n```\nContent-Security-Policy: default-src 'self'; script-src 'self' https://trusted-cdn.com; frame-ancestors 'none'; base-uri 'self'; form-action 'self'; report-uri /csp-report\n```\n\n**Phased Implementation:**\n1. Mulai dengan Content-Security-Policy-Report-Only mode\n2. Monitor violations via report-uri\n3. Sesuaikan policy berdasarkan violations\n4. Pindah ke enforcement mode",

	"x-frame-options": "**Technical Details:**\nX-Frame-Options memproteksi dari clickjacking attacks dimana attacker meng-embed website dalam invisible iframe untuk menipu users. Attack scenarios:\n- Overlay transparent iframe di atas situs yang sah\n- User mengira mereka mengklik tombol A, padahal tombol B\n- Dapat digunakan untuk unauthorized transactions atau privilege escalation\n\n**Configuration Options:**\n- `DENY` - larang semua framing (recommended)\n- `SAMEORIGIN` - izinkan framing hanya dari origin yang sama\n\n**Modern Alternative:**\n```\nContent-Security-Policy: frame-ancestors 'none'\n```",

	"x-content-type-options": "**Technical Details:**\nX-Content-Type-Options: nosniff mencegah MIME type sniffing yang dapat berujung XSS. Browser biasanya \"sniff\" content untuk menentukan type, yang berbahaya karena:\n- File yang di-upload sebagai image bisa berisi HTML/JavaScript\n- Browser mendeteksi lalu mengeksekusi malicious code\n- Bypass file upload restrictions\n\n**Configuration:**\n```\nX-Content-Type-Options: nosniff\n```\n\n**Critical untuk:**\n- File upload functionality\n- User-generated content\n- Dynamic content serving",
}

// processCDN handles the CDN-bypass scan. When real_vulnerabilities is
// present (even empty) the origin-server path runs: one contextual Low
// finding when a CDN is detected, one finding per origin vulnerability, and
// priority-bucketed action items. Without real_vulnerabilities the legacy
// bypassed/real_ip fallback applies.
func (b *reportBuilder) processCDN(cdn *models.CDNScan) {
	if cdn == nil {
		return
	}

	if cdn.RealVulnerabilities != nil {
		b.processCDNOriginVulns(cdn)
		return
	}

	if cdn.Bypassed.Bool() || cdn.RealIP != "" {
		description := "CDN dapat di-bypass untuk mengakses server langsung."
		if cdn.RealIP != "" {
			description = fmt.Sprintf("Real IP server ditemukan: %s", cdn.RealIP)
		}
		b.findings = append(b.findings, models.Finding{
			ID:          "cdn-1",
			Title:       "CDN Bypass Terdeteksi",
			Severity:    models.SeverityMedium,
			Description: description,
			Impact:      "Penyerang dapat menemukan IP server asli dan melakukan serangan langsung.",
		})
		b.recommend("Pastikan server origin tidak dapat diakses langsung, hanya melalui CDN")
		b.actionItems = append(b.actionItems, models.ActionItem{
			ID:       "cdn-action-1",
			Task:     "Konfigurasi firewall untuk hanya menerima traffic dari CDN",
			Priority: models.SeverityMedium,
			Deadline: b.deadline(14),
		})
	}
}

func (b *reportBuilder) processCDNOriginVulns(cdn *models.CDNScan) {
	vulns := *cdn.RealVulnerabilities

	if cdn.CDNDetected.Bool() {
		provider := cdn.CDNProvider
		if provider == "" {
			provider = "CDN"
		}
		var desc strings.Builder
		fmt.Fprintf(&desc, "**CDN Detected:** %s\n\n", provider)
		desc.WriteString("Website menggunakan CDN (Content Delivery Network) untuk protection dan performance. Namun, CDN tidak menggantikan security measures di origin server.")
		if len(cdn.OriginIPs) > 0 {
			fmt.Fprintf(&desc, "\n**Origin Server IPs:** %s", strings.Join(cdn.OriginIPs, ", "))
		}
		desc.WriteString("\n\n**PENTING:** Vulnerabilities berikut terdeteksi di ORIGIN SERVER dan tetap exploitable meskipun ada CDN protection. Jika attacker bypass CDN dan mengakses origin server langsung, semua vulnerabilities ini dapat dieksploitasi.")
		desc.WriteString("\n\n**Attack Vector:** Attacker dapat menemukan origin IP melalui:\n- Historical DNS records (SecurityTrails, DNSdumpster)\n- Certificate transparency logs\n- Subdomain enumeration\n- Email headers dari server\n- Direct IP scanning\n\nSetelah origin IP ditemukan, attacker dapat bypass CDN dengan:\n1. Modify local hosts file\n2. Direct HTTP request ke IP\n3. DNS rebinding attacks")

		b.findings = append(b.findings, models.Finding{
			ID:          "cdn-context",
			Title:       fmt.Sprintf("CDN Protection Active - %s Detected", provider),
			Severity:    models.SeverityLow,
			Description: desc.String(),
			Impact:      "CDN protection dapat di-bypass. Origin server harus memiliki security measures sendiri.",
		})
	}

	highCount, mediumCount := 0, 0
	for i, vuln := range vulns {
		severity := models.MapBackendSeverity(vuln.Severity)
		switch severity {
		case models.SeverityHigh:
			highCount++
		case models.SeverityMedium:
			mediumCount++
		}

		headerName := vuln.Header
		if headerName == "" {
			headerName = "unknown"
		}
		formatted := formatHeaderName(headerName)

		var desc strings.Builder
		fmt.Fprintf(&desc, "Security header %q tidak ditemukan di origin server.\n\n", formatted)
		if vuln.Description != "" {
			fmt.Fprintf(&desc, "**%s**\n\n", vuln.Description)
		}
		if vuln.Impact != "" {
			fmt.Fprintf(&desc, "**Detailed Impact:** %s\n\n", vuln.Impact)
		}
		if details, ok := cdnHeaderDetails[strings.ToLower(headerName)]; ok {
			desc.WriteString(details)
		}
		desc.WriteString("\n\n**OWASP Reference:** Missing security headers masuk OWASP Top 10 2021 - A05: Security Misconfiguration")
		desc.WriteString("\n\n**Compliance Impact:** Beberapa compliance standards (PCI DSS, HIPAA, SOC 2) mensyaratkan proper security headers")

		b.findings = append(b.findings, models.Finding{
			ID:          fmt.Sprintf("cdn-vuln-%d", i+1),
			Title:       fmt.Sprintf("[ORIGIN SERVER] Missing %s Header (%s Severity)", formatted, severity),
			Severity:    severity,
			Description: desc.String(),
			Impact:      fmt.Sprintf("%s\n\nCRITICAL: Vulnerability ini ada di ORIGIN SERVER. CDN tidak menambahkan header ini, sehingga jika CDN di-bypass, vulnerability langsung exploitable. Origin server harus memiliki security measures sendiri.", vuln.Impact),
		})
	}

	if highCount > 0 {
		b.recommend(fmt.Sprintf("URGENT: %d HIGH severity security headers missing di origin server - implementasi segera diperlukan", highCount))
		b.recommend("Configure security headers di application level (nginx, Apache, middleware) - tidak cukup rely on CDN")
		b.actionItems = append(b.actionItems, models.ActionItem{
			ID:       "cdn-headers-action-high",
			Task:     fmt.Sprintf("Implementasi %d critical security headers di origin server configuration (nginx/Apache/application middleware)", highCount),
			Priority: models.SeverityHigh,
			Deadline: b.deadline(3),
		})
	}
	if mediumCount > 0 {
		b.recommend(fmt.Sprintf("Tambahkan %d security headers tambahan untuk defense-in-depth protection", mediumCount))
		b.actionItems = append(b.actionItems, models.ActionItem{
			ID:       "cdn-headers-action-medium",
			Task:     fmt.Sprintf("Implementasi %d MEDIUM severity security headers untuk comprehensive protection", mediumCount),
			Priority: models.SeverityMedium,
			Deadline: b.deadline(7),
		})
	}

	if cdn.SecurityAnalysis != nil {
		for _, rec := range cdn.SecurityAnalysis.Recommendation {
			b.recommend(rec)
		}
	}

	b.actionItems = append(b.actionItems, models.ActionItem{
		ID:       "cdn-comprehensive-action",
		Task:     "Setup comprehensive origin server security: (1) implement semua missing headers, (2) firewall hanya menerima CDN IPs, (3) rate limiting, (4) origin authentication",
		Priority: models.SeverityHigh,
		Deadline: b.deadline(14),
	})
}

// formatHeaderName renders "strict-transport-security" as
// "Strict-Transport-Security".
func formatHeaderName(name string) string {
	parts := strings.Split(name, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "-")
}
