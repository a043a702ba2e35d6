package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasyifana/audit-ai/internal/config"
	"github.com/kasyifana/audit-ai/models"
)

func TestDispatcherRiskFilter(t *testing.T) {
	var got []Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Type string           `json:"type"`
			Risk models.RiskLevel `json:"risk_level"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		got = append(got, Event{Type: payload.Type, Risk: payload.Risk})
	}))
	defer srv.Close()

	d := NewDispatcher(config.NotifyConfig{
		Webhook: config.WebhookNotifyConfig{URL: srv.URL},
		MinRisk: "High",
	})
	require.True(t, d.IsAnyConfigured())

	ctx := context.Background()
	d.Notify(ctx, Event{Type: EventAuditCompleted, Risk: models.RiskModerate})
	d.Notify(ctx, Event{Type: EventAuditCompleted, Risk: models.RiskCritical})
	d.Notify(ctx, Event{Type: EventPaymentVerified})

	require.Len(t, got, 2)
	assert.Equal(t, models.RiskCritical, got[0].Risk)
	assert.Equal(t, EventPaymentVerified, got[1].Type)
}

func TestDispatcherNoChannels(t *testing.T) {
	d := NewDispatcher(config.NotifyConfig{})
	assert.False(t, d.IsAnyConfigured())
	// Must not panic with nothing configured.
	d.Notify(context.Background(), Event{Type: EventAuditCompleted, Risk: models.RiskCritical})
}

func TestWebhookSignature(t *testing.T) {
	const secret = "audit-secret"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
		assert.Equal(t, want, r.Header.Get("X-Auditai-Signature"))

		var payload map[string]any
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "https://example.com", payload["target_url"])
		assert.Equal(t, "High", payload["risk_level"])
	}))
	defer srv.Close()

	ch := NewWebhook(config.WebhookNotifyConfig{URL: srv.URL, Secret: secret})
	err := ch.Send(context.Background(), Event{
		Type:      EventAuditCompleted,
		Title:     "Audit selesai",
		TargetURL: "https://example.com",
		Risk:      models.RiskHigh,
		Score:     4.5,
	})
	require.NoError(t, err)
}

func TestWebhookServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ch := NewWebhook(config.WebhookNotifyConfig{URL: srv.URL})
	err := ch.Send(context.Background(), Event{Type: EventAuditCompleted})
	assert.ErrorContains(t, err, "webhook returned 502")
}
