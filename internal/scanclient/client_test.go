package scanclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasyifana/audit-ai/internal/config"
	"github.com/kasyifana/audit-ai/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.BackendConfig{BaseURL: srv.URL, ScanTimeoutSeconds: 5}), srv
}

func TestScanSuccess(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"grade": "B", "valid": true, "host": "example.com"}`))
	})

	result, err := client.Scan(context.Background(), models.ScanSSL, "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, "/scan/ssl", gotPath)
	assert.Equal(t, map[string]string{"url": "https://example.com", "target": "https://example.com"}, gotBody)

	require.NotNil(t, result.Bundle.SSL)
	assert.Equal(t, "B", result.Bundle.SSL.Grade)
	assert.Empty(t, result.Warning)
	assert.False(t, result.Partial)
}

func TestScanRequestBodies(t *testing.T) {
	tests := []struct {
		key    string
		target string
		want   map[string]string
	}{
		{models.ScanPorts, "example.com", map[string]string{"target": "example.com", "host": "example.com"}},
		{models.ScanSubdomains, "example.com", map[string]string{"domain": "example.com", "target": "example.com"}},
		{models.ScanMulti, "https://example.com/path", map[string]string{"target": "example.com"}},
		{models.ScanXSS, "https://example.com", map[string]string{"url": "https://example.com", "target": "https://example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, requestBody(tt.key, tt.target))
		})
	}
}

func TestScanUnknownKey(t *testing.T) {
	client := New(config.BackendConfig{BaseURL: "http://localhost:1"})
	_, err := client.Scan(context.Background(), "dns", "example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown scan type")
}

func TestScanErrorWithEmbeddedData(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"ssl": {"grade": "C", "valid": true}, "error": "response serialisation failed"}`))
	})

	result, err := client.Scan(context.Background(), models.ScanSSL, "https://example.com")
	require.NoError(t, err)
	require.NotNil(t, result.Bundle.SSL)
	assert.Equal(t, "C", result.Bundle.SSL.Grade)
	assert.Equal(t, "Scan completed but server reported an error during response", result.Warning)
	assert.False(t, result.Partial)
}

func TestScanErrorWithLogExtraction(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"detail": "worker crashed after SSL analysis completed for example.com: Grade B"}`))
	})

	result, err := client.Scan(context.Background(), models.ScanSSL, "example.com")
	require.NoError(t, err)
	require.NotNil(t, result.Bundle.SSL)
	assert.Equal(t, "B", result.Bundle.SSL.Grade)
	assert.True(t, result.Partial)
	assert.Contains(t, result.Warning, "Partial data extracted from logs")
}

func TestScanErrorNoRecoverableData(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"detail": "scanner pool exhausted"}`))
	})

	_, err := client.Scan(context.Background(), models.ScanPorts, "example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 503")
}

func TestScanMultiStructured(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"ports": {"open_ports": [80, 443]},
			"ssl": {"grade": "A", "valid": true}
		}`))
	})

	result, err := client.Scan(context.Background(), models.ScanMulti, "https://example.com")
	require.NoError(t, err)
	require.NotNil(t, result.Bundle.Ports)
	require.NotNil(t, result.Bundle.SSL)
	assert.Len(t, result.Bundle.Ports.OpenPorts, 2)
	assert.False(t, result.Partial)
}

func TestScanMultiMarkdownReport(t *testing.T) {
	report := "# Security Scan Report\n\n## SSL Check\n\n{'grade': 'B', 'valid': True}\n\n---\n"
	envelope, err := json.Marshal(map[string]string{"report": report})
	require.NoError(t, err)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(envelope)
	})

	result, err := client.Scan(context.Background(), models.ScanMulti, "https://example.com")
	require.NoError(t, err)
	require.NotNil(t, result.Bundle.SSL)
	assert.Equal(t, "B", result.Bundle.SSL.Grade)
	assert.True(t, result.Partial)
}

func TestScanMultiBareMarkdown(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# Report\n\n## SSL Check\n\n{'grade': 'A', 'valid': True}\n\n---\n"))
	})

	result, err := client.Scan(context.Background(), models.ScanMulti, "https://example.com")
	require.NoError(t, err)
	require.NotNil(t, result.Bundle.SSL)
	assert.Equal(t, "A", result.Bundle.SSL.Grade)
}

func TestProxy(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scan/tech", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"technologies": ["nginx"]}`))
	})

	status, body, err := client.Proxy(context.Background(), "/scan/tech", json.RawMessage(`{"url": "https://example.com"}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"technologies": ["nginx"]}`, string(body))

	_, _, err = client.Proxy(context.Background(), "/admin/users", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid endpoint")
}

func TestAllowed(t *testing.T) {
	for _, endpoint := range Endpoints() {
		assert.True(t, Allowed(endpoint), endpoint)
	}
	assert.False(t, Allowed("/scan/dns"))
	assert.False(t, Allowed("scan/ports"))
}

func TestScanSuccessEnvelope(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "data": {"grade": "A", "valid": true}}`))
	})

	result, err := client.Scan(context.Background(), models.ScanSSL, "https://example.com")
	require.NoError(t, err)
	require.NotNil(t, result.Bundle.SSL)
	assert.Equal(t, "A", result.Bundle.SSL.Grade)
}

func TestScanErrorEnvelopeWithData(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success": false, "data": {"grade": "C", "valid": true}, "error": "backend hiccup"}`))
	})

	result, err := client.Scan(context.Background(), models.ScanSSL, "https://example.com")
	require.NoError(t, err)
	require.NotNil(t, result.Bundle.SSL)
	assert.Equal(t, "C", result.Bundle.SSL.Grade)
	assert.Equal(t, "Scan completed but server reported an error during response", result.Warning)
}
