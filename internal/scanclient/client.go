// Package scanclient talks to the remote scanning backend. The backend is
// flaky in well-known ways: it returns scan data inside HTTP error responses,
// and sometimes only its log output survives a crashed response. The client
// recovers data from both cases instead of failing the scan.
package scanclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/kasyifana/audit-ai/internal/config"
	"github.com/kasyifana/audit-ai/internal/extract"
	"github.com/kasyifana/audit-ai/models"
)

// allowedEndpoints is the fixed set of backend scan paths. Anything else is
// rejected before a request is made, which also guards the gateway's proxy
// against SSRF.
var allowedEndpoints = map[string]bool{
	"/scan/ports":      true,
	"/scan/sql":        true,
	"/scan/web":        true,
	"/scan/xss":        true,
	"/scan/ssl":        true,
	"/scan/headers":    true,
	"/scan/tech":       true,
	"/scan/subdomains": true,
	"/scan/multi":      true,
}

// Allowed reports whether endpoint is a valid backend scan path.
func Allowed(endpoint string) bool {
	return allowedEndpoints[endpoint]
}

// Endpoints returns the allow list in a stable order.
func Endpoints() []string {
	return []string{
		"/scan/ports", "/scan/sql", "/scan/web", "/scan/xss", "/scan/ssl",
		"/scan/headers", "/scan/tech", "/scan/subdomains", "/scan/multi",
	}
}

// Result is one scan call's outcome. Bundle carries whichever sections the
// call produced; Warning is set when data was recovered from an error
// response, and Partial when it came out of log extraction rather than a
// proper payload.
type Result struct {
	Bundle  *models.RawScanBundle
	Warning string
	Partial bool
}

// Client wraps the backend HTTP API.
type Client struct {
	httpc *resty.Client
}

// New builds a Client from cfg. Scans are slow; the per-request timeout
// defaults to five minutes.
func New(cfg config.BackendConfig) *Client {
	timeout := time.Duration(cfg.ScanTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	httpc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetHeader("Content-Type", "application/json")
	return &Client{httpc: httpc}
}

// Scan runs the scanner named by key ("ports", "ssl", ... or "multi")
// against target and decodes whatever usable data comes back.
func (c *Client) Scan(ctx context.Context, key, target string) (*Result, error) {
	endpoint := "/scan/" + key
	if !Allowed(endpoint) {
		return nil, fmt.Errorf("unknown scan type %q", key)
	}

	resp, err := c.httpc.R().
		SetContext(ctx).
		SetBody(requestBody(key, target)).
		Post(endpoint)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", endpoint, err)
	}

	body := resp.Body()
	if resp.IsSuccess() {
		return c.decodeSuccess(key, body)
	}
	return c.recoverFromError(key, target, endpoint, resp.StatusCode(), body)
}

// Proxy forwards an arbitrary allow-listed endpoint with a caller-supplied
// body, returning the raw backend response. Used by the gateway's scan proxy.
func (c *Client) Proxy(ctx context.Context, endpoint string, payload json.RawMessage) (int, []byte, error) {
	if !Allowed(endpoint) {
		return 0, nil, fmt.Errorf("invalid endpoint %q", endpoint)
	}
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	resp, err := c.httpc.R().
		SetContext(ctx).
		SetBody(payload).
		Post(endpoint)
	if err != nil {
		return 0, nil, fmt.Errorf("calling %s: %w", endpoint, err)
	}
	return resp.StatusCode(), resp.Body(), nil
}

// requestBody mirrors the field aliases each backend scanner expects. The
// port scanner reads host, subdomain enumeration reads domain, the rest read
// url; target is always sent alongside. Multi only takes the bare hostname.
func requestBody(key, target string) map[string]string {
	switch key {
	case models.ScanPorts:
		return map[string]string{"target": target, "host": target}
	case models.ScanSubdomains:
		return map[string]string{"domain": target, "target": target}
	case models.ScanMulti:
		return map[string]string{"target": hostname(target)}
	default:
		return map[string]string{"url": target, "target": target}
	}
}

func hostname(target string) string {
	if u, err := url.Parse(target); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	return target
}

func (c *Client) decodeSuccess(key string, body []byte) (*Result, error) {
	if key == models.ScanMulti {
		return decodeMulti(unwrapEnvelope(body))
	}

	bundle := &models.RawScanBundle{}
	bundle.DecodeSection(key, unwrapEnvelope(body))
	if bundle.IsEmpty() {
		return nil, fmt.Errorf("scan %s returned no usable data", key)
	}
	return &Result{Bundle: bundle}, nil
}

// envelopeData extracts the data field of the backend's {success, data,
// error} envelope. A data field wins regardless of the success flag.
func envelopeData(body []byte) ([]byte, bool) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if json.Unmarshal(body, &envelope) == nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		return envelope.Data, true
	}
	return nil, false
}

// unwrapEnvelope returns the envelope's data when present, otherwise the bare
// payload unchanged.
func unwrapEnvelope(body []byte) []byte {
	if data, ok := envelopeData(body); ok {
		return data
	}
	return body
}

// decodeMulti handles the two shapes /scan/multi produces: a JSON object with
// per-scanner sections, or a markdown report (sometimes wrapped in a JSON
// string or a {"report": ...} envelope).
func decodeMulti(body []byte) (*Result, error) {
	trimmed := strings.TrimSpace(string(body))

	if strings.HasPrefix(trimmed, "{") {
		var envelope struct {
			Report string `json:"report"`
		}
		if json.Unmarshal(body, &envelope) == nil && envelope.Report != "" {
			return markdownResult(envelope.Report)
		}
		bundle := models.DecodeBundle(body)
		if !bundle.IsEmpty() {
			return &Result{Bundle: bundle}, nil
		}
		return nil, fmt.Errorf("multi scan returned no usable data")
	}

	var s string
	if json.Unmarshal(body, &s) == nil {
		trimmed = s
	}
	return markdownResult(trimmed)
}

func markdownResult(report string) (*Result, error) {
	bundle := extract.FromMarkdownReport(report)
	if bundle.IsEmpty() {
		return nil, fmt.Errorf("multi scan report contained no recognisable sections")
	}
	return &Result{
		Bundle:  bundle,
		Warning: "Multi-scan returned a markdown report; structured data was parsed from it",
		Partial: true,
	}, nil
}

// recoverFromError inspects a failed response for salvageable scan data:
// first a structured payload with scanner sections, then log lines embedded
// in the error detail.
func (c *Client) recoverFromError(key, target, endpoint string, status int, body []byte) (*Result, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err == nil {
		bundle := models.DecodeBundle(body)
		if bundle.IsEmpty() {
			if data, ok := envelopeData(body); ok {
				bundle = models.DecodeBundle(data)
				if bundle.IsEmpty() && key != models.ScanMulti {
					// A single-scanner payload inside the envelope has no
					// section key.
					bundle.DecodeSection(key, data)
				}
			}
		}
		if !bundle.IsEmpty() {
			slog.Warn("scan backend errored but returned data", "endpoint", endpoint, "status", status)
			return &Result{
				Bundle:  bundle,
				Warning: "Scan completed but server reported an error during response",
			}, nil
		}

		detail := errorDetail(payload, body)
		if strings.Contains(detail, "analysis completed") {
			extracted := extract.FromLogs(detail, target)
			if !extracted.IsEmpty() {
				slog.Warn("extracted partial scan data from error logs", "endpoint", endpoint, "status", status)
				return &Result{
					Bundle:  extracted,
					Warning: "Scan completed but server error occurred. Partial data extracted from logs.",
					Partial: true,
				}, nil
			}
		}
	}

	return nil, fmt.Errorf("scan %s failed: HTTP %d: %s", key, status, truncate(string(body), 500))
}

func errorDetail(payload map[string]json.RawMessage, body []byte) string {
	for _, field := range []string{"detail", "error"} {
		var s string
		if raw, ok := payload[field]; ok && json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
	}
	return string(body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
