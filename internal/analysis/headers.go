package analysis

import (
	"fmt"

	"github.com/kasyifana/audit-ai/models"
)

// headerRule describes one of the five canonical security headers, with the
// narrative used when it is missing. CSP and HSTS are High; the rest Medium.
type headerRule struct {
	name        string
	severity    models.Severity
	impact      string
	remediation string
}

var recommendedHeaders = []headerRule{
	{
		name:        "Content-Security-Policy",
		severity:    models.SeverityHigh,
		impact:      "Tanpa CSP, website rentan terhadap XSS attacks, data injection, clickjacking, dan code execution. Attacker dapat inject malicious scripts yang dieksekusi di browser user untuk mencuri cookies, session tokens, atau melakukan phishing. CSP memungkinkan Anda menentukan sumber yang diizinkan untuk scripts, styles, images, dan content lainnya.",
		remediation: `Implementasikan Content-Security-Policy header dengan directive yang ketat. Contoh: "default-src 'self'; script-src 'self' https://trusted-cdn.com; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; frame-ancestors 'none'; base-uri 'self'; form-action 'self'".`,
	},
	{
		name:        "Strict-Transport-Security",
		severity:    models.SeverityHigh,
		impact:      "Tanpa HSTS, website rentan terhadap man-in-the-middle attacks, SSL stripping, dan protocol downgrade attacks. Attacker dapat memaksa browser menggunakan HTTP, mengintercept traffic, dan mencuri credentials atau sensitive data. HSTS memastikan browser selalu menggunakan HTTPS.",
		remediation: `Set Strict-Transport-Security dengan max-age yang cukup lama dan includeSubDomains. Contoh: "max-age=31536000; includeSubDomains; preload". Pertimbangkan mendaftar ke HSTS preload list di hstspreload.org.`,
	},
	{
		name:        "X-Frame-Options",
		severity:    models.SeverityMedium,
		impact:      "Tanpa X-Frame-Options, website dapat di-embed dalam iframe oleh attacker untuk clickjacking. User bisa ditipu mengklik elemen tersembunyi yang melakukan aksi tidak diinginkan seperti transfer uang, ubah password, atau grant permissions.",
		remediation: `Gunakan "X-Frame-Options: DENY" untuk melarang semua framing, atau "SAMEORIGIN" jika perlu embed dari origin yang sama. Alternatif modern: CSP frame-ancestors directive.`,
	},
	{
		name:        "X-Content-Type-Options",
		severity:    models.SeverityMedium,
		impact:      "Tanpa nosniff, browser dapat melakukan MIME type sniffing sehingga file yang di-upload sebagai image bisa diinterpretasikan sebagai HTML/JavaScript dan dieksekusi. Ini membuka celah XSS dan code injection.",
		remediation: `Set "X-Content-Type-Options: nosniff" agar browser respect declared Content-Type. Critical terutama untuk aplikasi yang menerima user uploads.`,
	},
	{
		name:        "Referrer-Policy",
		severity:    models.SeverityMedium,
		impact:      "Tanpa Referrer-Policy yang proper, sensitive information di URL (session tokens, user IDs, search queries) dapat bocor ke third-party sites melalui Referer header. Information disclosure ini dapat dieksploitasi untuk tracking, profiling, atau session hijacking.",
		remediation: `Gunakan "Referrer-Policy: strict-origin-when-cross-origin" untuk balance antara functionality dan security, atau "no-referrer" untuk maximum privacy.`,
	},
}

// processHeaders emits one finding per missing canonical header plus one
// combined recommendation and action item.
func (b *reportBuilder) processHeaders(hs *models.HeadersScan) {
	if hs == nil {
		return
	}

	var missing []headerRule
	for _, rule := range recommendedHeaders {
		if !hs.Headers.Has(rule.name) {
			missing = append(missing, rule)
		}
	}
	if len(missing) == 0 {
		return
	}

	highPriority := false
	for i, rule := range missing {
		if rule.severity == models.SeverityHigh {
			highPriority = true
		}
		b.findings = append(b.findings, models.Finding{
			ID:       fmt.Sprintf("headers-%d", i+1),
			Title:    fmt.Sprintf("Missing Critical Security Header: %s", rule.name),
			Severity: rule.severity,
			Description: fmt.Sprintf("Header %q tidak ditemukan di response server. %s\n\n**Remediation:** %s\n\n**OWASP Reference:** Security headers adalah bagian dari OWASP Top 10 - A05:2021 Security Misconfiguration. Missing security headers merupakan misconfiguration yang sangat umum dan easily exploitable.",
				rule.name, rule.impact, rule.remediation),
			Impact: rule.impact,
		})
	}

	b.recommend(fmt.Sprintf("CRITICAL: Implementasikan %d security headers yang missing untuk proteksi terhadap common web attacks (XSS, Clickjacking, MITM, Information Disclosure)", len(missing)))

	priority := models.SeverityMedium
	if highPriority {
		priority = models.SeverityHigh
	}
	b.actionItems = append(b.actionItems, models.ActionItem{
		ID:       "headers-action-comprehensive",
		Task:     fmt.Sprintf("Konfigurasi %d security headers di web server atau application level (nginx.conf, middleware, dll)", len(missing)),
		Priority: priority,
		Deadline: b.deadline(7),
	})
}
