package models

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Scanner keys used throughout the pipeline. A RawScanBundle maps each of
// these to a loosely-typed result, or nothing if that scan did not run.
const (
	ScanPorts      = "ports"
	ScanSQL        = "sql"
	ScanWeb        = "web"
	ScanXSS        = "xss"
	ScanSSL        = "ssl"
	ScanHeaders    = "headers"
	ScanTech       = "tech"
	ScanSubdomains = "subdomains"
	ScanCDN        = "cdn"
	ScanMulti      = "multi"
)

// RawScanBundle holds one audit run's raw scanner payloads. No schema is
// enforced upstream: every field of every section may be absent, renamed, or
// typed unexpectedly, so the section structs below tolerate both shapes.
// A bundle is constructed fresh per run and read-only once handed to the
// analysis and scoring stages.
type RawScanBundle struct {
	Ports      *PortScan      `json:"ports,omitempty"`
	SQL        *ProbeScan     `json:"sql,omitempty"`
	Web        *WebScan       `json:"web,omitempty"`
	XSS        *ProbeScan     `json:"xss,omitempty"`
	SSL        *SSLScan       `json:"ssl,omitempty"`
	Headers    *HeadersScan   `json:"headers,omitempty"`
	Tech       *TechScan      `json:"tech,omitempty"`
	Subdomains *SubdomainScan `json:"subdomains,omitempty"`
	CDN        *CDNScan       `json:"cdn,omitempty"`
}

// IsEmpty reports whether no scanner contributed any data.
func (b *RawScanBundle) IsEmpty() bool {
	if b == nil {
		return true
	}
	return b.Ports == nil && b.SQL == nil && b.Web == nil && b.XSS == nil &&
		b.SSL == nil && b.Headers == nil && b.Tech == nil &&
		b.Subdomains == nil && b.CDN == nil
}

// Merge fills sections missing from b with sections from other. Existing
// sections are never overwritten; primary scan data wins over recovered data.
func (b *RawScanBundle) Merge(other *RawScanBundle) {
	if other == nil {
		return
	}
	if b.Ports == nil {
		b.Ports = other.Ports
	}
	if b.SQL == nil {
		b.SQL = other.SQL
	}
	if b.Web == nil {
		b.Web = other.Web
	}
	if b.XSS == nil {
		b.XSS = other.XSS
	}
	if b.SSL == nil {
		b.SSL = other.SSL
	}
	if b.Headers == nil {
		b.Headers = other.Headers
	}
	if b.Tech == nil {
		b.Tech = other.Tech
	}
	if b.Subdomains == nil {
		b.Subdomains = other.Subdomains
	}
	if b.CDN == nil {
		b.CDN = other.CDN
	}
}

// DecodeBundle parses a raw multi-scan JSON object into a bundle. Sections
// that fail to decode are dropped, never propagated as errors.
func DecodeBundle(data []byte) *RawScanBundle {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return &RawScanBundle{}
	}
	b := &RawScanBundle{}
	for key, raw := range sections {
		b.DecodeSection(key, raw)
	}
	return b
}

// DecodeSection parses a single scanner's raw JSON into the bundle. Unknown
// keys and malformed payloads are ignored.
func (b *RawScanBundle) DecodeSection(key string, raw []byte) {
	switch key {
	case ScanPorts:
		v := &PortScan{}
		if json.Unmarshal(raw, v) == nil {
			b.Ports = v
		}
	case ScanSQL:
		v := &ProbeScan{}
		if json.Unmarshal(raw, v) == nil {
			b.SQL = v
		}
	case ScanWeb:
		v := &WebScan{}
		if json.Unmarshal(raw, v) == nil {
			b.Web = v
		}
	case ScanXSS:
		v := &ProbeScan{}
		if json.Unmarshal(raw, v) == nil {
			b.XSS = v
		}
	case ScanSSL:
		v := &SSLScan{}
		if json.Unmarshal(raw, v) == nil {
			b.SSL = v
		}
	case ScanHeaders:
		v := &HeadersScan{}
		if json.Unmarshal(raw, v) == nil {
			b.Headers = v
		}
	case ScanTech:
		v := &TechScan{}
		if json.Unmarshal(raw, v) == nil {
			b.Tech = v
		}
	case ScanSubdomains:
		v := &SubdomainScan{}
		if json.Unmarshal(raw, v) == nil {
			b.Subdomains = v
		}
	case ScanCDN:
		v := &CDNScan{}
		if json.Unmarshal(raw, v) == nil {
			b.CDN = v
		}
	}
}

// --- Flexible JSON primitives ---
//
// Scanner backends serialise the same field as a number in one run and a
// string in the next. These wrappers absorb that without failing the whole
// section decode.

// FlexBool unmarshals from a JSON bool, string ("true"/"false"/"1"/"0") or
// number (non-zero = true). Anything unrecognised decodes to false.
type FlexBool bool

func (f *FlexBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*f = false
		return nil
	}
	switch t := v.(type) {
	case bool:
		*f = FlexBool(t)
	case float64:
		*f = t != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		*f = s == "true" || s == "1" || s == "yes"
	default:
		*f = false
	}
	return nil
}

func (f FlexBool) Bool() bool { return bool(f) }

// FlexInt unmarshals from a JSON number or a numeric string.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*f = 0
		return nil
	}
	switch t := v.(type) {
	case float64:
		*f = FlexInt(int(t))
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			*f = FlexInt(n)
		} else {
			*f = 0
		}
	default:
		*f = 0
	}
	return nil
}

func (f FlexInt) Int() int { return int(f) }

// Port is one open port. Backends report ports as bare numbers, numeric
// strings, or objects like {"port": 3306, "service": "mysql"}.
type Port struct {
	Number  int    `json:"port"`
	Service string `json:"service,omitempty"`
}

func (p *Port) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case float64:
		p.Number = int(t)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			p.Number = n
		}
	case map[string]any:
		switch n := t["port"].(type) {
		case float64:
			p.Number = int(n)
		case string:
			if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
				p.Number = i
			}
		}
		if s, ok := t["service"].(string); ok {
			p.Service = s
		}
	}
	return nil
}

// Label renders "3306 (mysql)" or just "3306" when the service is unknown.
func (p Port) Label() string {
	if p.Service != "" {
		return strconv.Itoa(p.Number) + " (" + p.Service + ")"
	}
	return strconv.Itoa(p.Number)
}

// Vulnerability is a single scanner-reported vulnerability. Field names vary
// per backend (title/Title/id/Id, description/Description/message/Message),
// so decoding resolves the alternates in that order.
type Vulnerability struct {
	Title       string
	Severity    string
	Description string
	Impact      string
	Header      string
}

func (v *Vulnerability) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		// A bare string is treated as a description-only entry.
		var s string
		if json.Unmarshal(data, &s) == nil {
			v.Description = s
		}
		return nil
	}
	v.Title = pickString(m, "title", "Title", "id", "Id")
	v.Severity = pickString(m, "severity", "Severity")
	v.Description = pickString(m, "description", "Description", "message", "Message")
	v.Impact = pickString(m, "impact", "Impact")
	v.Header = pickString(m, "header", "Header")
	return nil
}

func pickString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// VulnList unmarshals a vulnerabilities field that may be an array or an
// object (converted via its values, sorted by key for determinism). Any other
// shape decodes to an empty list.
type VulnList []Vulnerability

func (l *VulnList) UnmarshalJSON(data []byte) error {
	var arr []Vulnerability
	if err := json.Unmarshal(data, &arr); err == nil {
		*l = arr
		return nil
	}
	var obj map[string]Vulnerability
	if err := json.Unmarshal(data, &obj); err == nil {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Vulnerability, 0, len(obj))
		for _, k := range keys {
			out = append(out, obj[k])
		}
		*l = out
		return nil
	}
	*l = nil
	return nil
}

// HeaderMap holds observed response headers. Values may be plain strings,
// booleans, or objects like {"present": false, "value": "..."}.
type HeaderMap map[string]HeaderValue

// HeaderValue records whether one header was observed.
type HeaderValue struct {
	Present bool
}

func (h HeaderValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]bool{"present": h.Present})
}

func (h *HeaderValue) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		h.Present = false
		return nil
	}
	switch t := v.(type) {
	case string:
		h.Present = t != ""
	case bool:
		h.Present = t
	case map[string]any:
		if p, ok := t["present"].(bool); ok {
			h.Present = p
		} else {
			h.Present = true
		}
	case nil:
		h.Present = false
	default:
		h.Present = true
	}
	return nil
}

// Has reports whether the named header was observed and not explicitly
// flagged absent.
func (m HeaderMap) Has(name string) bool {
	v, ok := m[name]
	return ok && v.Present
}

// Technology is a detected technology. Backends emit either plain name
// strings or {"name": ..., "version": ...} objects.
type Technology struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

func (t *Technology) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		t.Name = s
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	t.Name = pickString(m, "name", "Name")
	switch v := m["version"].(type) {
	case string:
		t.Version = v
	case float64:
		t.Version = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return nil
}

// Label renders "nginx 1.18" or just "nginx" when no version is known.
func (t Technology) Label() string {
	if t.Version != "" {
		return t.Name + " " + t.Version
	}
	return t.Name
}

// --- Per-scanner payloads ---

// PortScan is the nmap-style port scan result.
type PortScan struct {
	OpenPorts     []Port `json:"open_ports"`
	ClosedPorts   []Port `json:"closed_ports"`
	FilteredPorts []Port `json:"filtered_ports"`
	Host          string `json:"host"`
}

// ProbeScan is the shared shape of the XSS and SQL injection probes.
type ProbeScan struct {
	Vulnerable FlexBool `json:"vulnerable"`
	Payloads   []string `json:"payloads"`
	Locations  []string `json:"locations"`
}

// WebScan is the Nikto-style web vulnerability scan result. Some runs carry a
// populated vulnerabilities array, others only an issues_count integer.
type WebScan struct {
	Vulnerabilities    VulnList `json:"vulnerabilities"`
	VulnerabilityCount FlexInt  `json:"vulnerability_count"`
	IssuesCount        FlexInt  `json:"issues_count"`
	ScanDepth          string   `json:"scan_depth"`
	Server             string   `json:"server"`
}

// Certificate holds SSL certificate details when the backend provides them.
type Certificate struct {
	Subject            string   `json:"subject"`
	Issuer             string   `json:"issuer"`
	NotBefore          string   `json:"not_before"`
	NotAfter           string   `json:"not_after"`
	SignatureAlgorithm string   `json:"signature_algorithm"`
	KeySize            FlexInt  `json:"key_size"`
	SAN                []string `json:"san"`
	Expired            FlexBool `json:"expired"`
}

// SSLScan is the SSL/TLS analysis result.
type SSLScan struct {
	Grade       string       `json:"grade"`
	Valid       FlexBool     `json:"valid"`
	Issues      []string     `json:"issues"`
	Certificate *Certificate `json:"certificate"`
	Host        string       `json:"host"`
}

// HeadersScan is the security-header analysis result. Score is a pointer so
// "score exactly 0" can be told apart from "no score field".
type HeadersScan struct {
	Score   *FlexInt  `json:"score"`
	Headers HeaderMap `json:"headers"`
	Issues  []string  `json:"issues"`
	Missing []string  `json:"missing"`
}

// TechScan is the technology detection result.
type TechScan struct {
	Technologies []Technology `json:"technologies"`
}

// SubdomainScan is the subdomain enumeration result.
type SubdomainScan struct {
	Subdomains []string `json:"subdomains"`
	Total      FlexInt  `json:"total"`
}

// CDNSecurityAnalysis carries the backend's own recommendations.
type CDNSecurityAnalysis struct {
	Recommendation []string `json:"recommendation"`
}

// CDNScan is the CDN-bypass check result. RealVulnerabilities is a pointer so
// the legacy (bypassed/real_ip) fallback only applies when the field is
// genuinely absent.
type CDNScan struct {
	CDNDetected         FlexBool             `json:"cdn_detected"`
	CDNProvider         string               `json:"cdn_provider"`
	OriginIPs           []string             `json:"origin_ips"`
	RealVulnerabilities *VulnList            `json:"real_vulnerabilities"`
	SecurityAnalysis    *CDNSecurityAnalysis `json:"security_analysis"`
	Bypassed            FlexBool             `json:"bypassed"`
	RealIP              string               `json:"real_ip"`
}
