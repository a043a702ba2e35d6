package analysis

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

func chatCompletion(t *testing.T, content any) string {
	t.Helper()
	inner, err := json.Marshal(content)
	require.NoError(t, err)
	outer, err := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": string(inner)}},
		},
	})
	require.NoError(t, err)
	return string(outer)
}

func TestRemoteAnalyze(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatCompletion(t, map[string]any{
			"summary": "Website memiliki beberapa celah keamanan.",
			"findings": []map[string]any{
				{"title": "XSS pada form login", "severity": "High", "description": "Input tidak disanitasi", "impact": "Session hijacking"},
				{"title": "Header HSTS hilang", "severity": "medium", "description": "HSTS tidak diset", "impact": "Downgrade attack"},
			},
			"recommendations": []string{"Sanitasi semua input"},
			"actionItems": []map[string]any{
				{"task": "Perbaiki XSS", "priority": "High", "deadline": "2025-06-08"},
			},
		})))
	}))
	defer srv.Close()

	remote := NewRemote(config.LLMConfig{Endpoint: srv.URL, APIKey: "test-key", Model: "gpt-4"})
	result, err := remote.Analyze(context.Background(), Request{
		URL:    "https://example.com",
		Bundle: &models.RawScanBundle{SSL: &models.SSLScan{Grade: "B", Valid: true}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "gpt-4", gotBody["model"])
	rf, ok := gotBody["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", rf["type"])

	assert.Equal(t, "Website Blackbox Audit (AI-Powered)", result.Type)
	assert.Equal(t, "Website memiliki beberapa celah keamanan.", result.Summary)
	require.Len(t, result.Findings, 2)
	assert.Equal(t, "llm-finding-0", result.Findings[0].ID)
	assert.Equal(t, models.SeverityHigh, result.Findings[0].Severity)
	assert.Equal(t, models.SeverityMedium, result.Findings[1].Severity)
	require.Len(t, result.ActionItems, 1)
	assert.Equal(t, "llm-action-0", result.ActionItems[0].ID)
	assert.Equal(t, "2025-06-08", result.ActionItems[0].Deadline)
}

func TestRemoteAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "upstream down", http.StatusBadGateway)
			},
		},
		{
			name: "no choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"choices": []}`))
			},
		},
		{
			name: "content is not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"choices": [{"message": {"content": "Here is your analysis..."}}]}`))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			remote := NewRemote(config.LLMConfig{Endpoint: srv.URL, APIKey: "k"})
			_, err := remote.Analyze(context.Background(), Request{URL: "https://example.com"})
			assert.Error(t, err)
		})
	}
}

func TestFallbackUsesRulesWhenRemoteFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	remote := NewRemote(config.LLMConfig{Endpoint: srv.URL, APIKey: "k"})
	analyzer := NewFallback(remote, testAnalyzer())

	result, err := analyzer.Analyze(context.Background(), Request{
		Bundle: &models.RawScanBundle{XSS: &models.ProbeScan{Vulnerable: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Website Blackbox Audit", result.Type)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, "xss-1", result.Findings[0].ID)
}

func TestFallbackPrefersRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(chatCompletion(t, map[string]any{
			"summary":         "Semua aman.",
			"findings":        []any{},
			"recommendations": []string{},
			"actionItems":     []any{},
		})))
	}))
	defer srv.Close()

	remote := NewRemote(config.LLMConfig{Endpoint: srv.URL, APIKey: "k"})
	analyzer := NewFallback(remote, testAnalyzer())

	result, err := analyzer.Analyze(context.Background(), Request{Bundle: &models.RawScanBundle{}})
	require.NoError(t, err)
	assert.Equal(t, "Website Blackbox Audit (AI-Powered)", result.Type)
	assert.Equal(t, "Semua aman.", result.Summary)
}

func TestNewDisabledConfig(t *testing.T) {
	analyzer := New(config.LLMConfig{})
	assert.Equal(t, "rules", analyzer.Name())

	analyzer = New(config.LLMConfig{Endpoint: "https://api.openai.com/v1/chat/completions", APIKey: "k"})
	assert.Equal(t, "fallback", analyzer.Name())
}
