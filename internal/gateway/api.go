package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kasyifana/audit-ai/internal/audit"
	"github.com/kasyifana/audit-ai/internal/notify"
	"github.com/kasyifana/audit-ai/internal/scanclient"
	"github.com/kasyifana/audit-ai/internal/scoring"
	"github.com/kasyifana/audit-ai/internal/session"
	"github.com/kasyifana/audit-ai/internal/summary"
	"github.com/kasyifana/audit-ai/models"
)

// buildHandler wires all REST and SSE routes onto a new ServeMux.
// Uses Go 1.22+ method-prefixed patterns ("GET /path", "POST /path").
func buildHandler(gw *Gateway) http.Handler {
	mux := http.NewServeMux()

	// Root/help
	mux.HandleFunc("GET /", gw.handleRoot)

	// Health / status
	mux.HandleFunc("GET /health", gw.handleHealth)
	mux.HandleFunc("GET /api/status", gw.handleStatus)

	// Orders and their lifecycle
	mux.HandleFunc("POST /api/orders", gw.handleCreateOrder)
	mux.HandleFunc("GET /api/orders/{id}", gw.handleGetOrder)
	mux.HandleFunc("POST /api/orders/{id}/payment", gw.handlePayment)
	mux.HandleFunc("POST /api/orders/{id}/audit", gw.handleRunAudit)
	mux.HandleFunc("GET /api/orders/{id}/report", gw.handleGetReport)
	mux.HandleFunc("DELETE /api/orders/{id}", gw.handleResetOrder)

	// Validated scan proxy
	mux.HandleFunc("POST /api/scan", gw.handleScanProxy)

	// Server-Sent Events stream
	mux.HandleFunc("GET /events", gw.handleEvents)

	return mux
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// loadSession resolves the {id} path parameter to a stored session, writing
// the error response itself on failure.
func (gw *Gateway) loadSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing order id")
		return nil, false
	}
	sess, err := gw.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("order %s not found", id))
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return nil, false
	}
	return sess, true
}

// --- handlers ---

func (gw *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (gw *Gateway) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":   "auditai gateway",
		"status": "running",
		"endpoints": []string{
			"GET /health",
			"GET /api/status",
			"POST /api/orders",
			"GET /api/orders/{id}",
			"POST /api/orders/{id}/payment",
			"POST /api/orders/{id}/audit",
			"GET /api/orders/{id}/report",
			"DELETE /api/orders/{id}",
			"POST /api/scan",
			"GET /events",
		},
	})
}

func (gw *Gateway) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, gw.currentStatus())
}

func (gw *Gateway) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var order session.Order
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(order.Name) == "" || strings.TrimSpace(order.Email) == "" {
		writeError(w, http.StatusBadRequest, "name and email are required")
		return
	}
	sess, err := gw.store.Create(r.Context(), &order)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	gw.broadcaster.send(SSEEvent{Type: "order.created", Payload: map[string]any{"id": sess.ID}})
	writeJSON(w, http.StatusCreated, sess)
}

func (gw *Gateway) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := gw.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type paymentRequest struct {
	Status string `json:"status"`
}

func (gw *Gateway) handlePayment(w http.ResponseWriter, r *http.Request) {
	sess, ok := gw.loadSession(w, r)
	if !ok {
		return
	}
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Status != session.StatusVerified && req.Status != session.StatusRejected {
		writeError(w, http.StatusBadRequest, "status must be verified or rejected")
		return
	}
	if err := gw.store.SetPaymentStatus(r.Context(), sess.ID, req.Status); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	gw.broadcaster.send(SSEEvent{Type: "payment." + req.Status, Payload: map[string]any{"id": sess.ID}})

	if req.Status == session.StatusVerified && sess.Order != nil {
		gw.notifier.Notify(r.Context(), notify.Event{
			Type:      notify.EventPaymentVerified,
			Title:     "Pembayaran terverifikasi",
			Body:      fmt.Sprintf("Pembayaran untuk paket %s telah diverifikasi. Audit Anda siap dijalankan.", sess.Order.Package),
			Recipient: sess.Order.Email,
		})
	}

	writeJSON(w, http.StatusOK, map[string]string{"id": sess.ID, "paymentStatus": req.Status})
}

type auditRequest struct {
	Target    string `json:"target"`
	Mode      string `json:"mode"`
	FocusArea string `json:"focusArea"`
	Notes     string `json:"notes"`
}

func (gw *Gateway) handleRunAudit(w http.ResponseWriter, r *http.Request) {
	sess, ok := gw.loadSession(w, r)
	if !ok {
		return
	}
	if !sess.Paid() {
		writeError(w, http.StatusPaymentRequired, "payment has not been verified for this order")
		return
	}

	var req auditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	target := strings.TrimSpace(req.Target)
	if target == "" && sess.Order != nil {
		target = sess.Order.WebsiteURL
	}
	if target == "" {
		writeError(w, http.StatusBadRequest, "no target URL on the order; pass one in the request body")
		return
	}

	mode := audit.ModeSequential
	if req.Mode == string(audit.ModeMulti) {
		mode = audit.ModeMulti
	}

	report, err := gw.runAudit(r.Context(), target, audit.Options{
		Mode:      mode,
		FocusArea: req.FocusArea,
		Notes:     req.Notes,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := gw.store.SetAuditResult(r.Context(), sess.ID, report.Audit); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if report.Raw != nil {
		if err := gw.store.SetScanResults(r.Context(), sess.ID, report.Raw); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	writeJSON(w, http.StatusOK, report)
}

func (gw *Gateway) handleGetReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := gw.loadSession(w, r)
	if !ok {
		return
	}
	if sess.AuditResult == nil {
		writeError(w, http.StatusNotFound, "no audit has been run for this order")
		return
	}

	target := ""
	if sess.Order != nil {
		target = sess.Order.WebsiteURL
	}
	scoringResult := scoring.Calculate(sess.ScanResults, sess.AuditResult.Findings)
	execSummary := summary.NewGenerator().Generate(target, scoringResult, sess.ScanResults)

	writeJSON(w, http.StatusOK, &models.Report{
		TargetURL: target,
		Audit:     sess.AuditResult,
		Scoring:   scoringResult,
		Summary:   execSummary,
		Raw:       sess.ScanResults,
	})
}

func (gw *Gateway) handleResetOrder(w http.ResponseWriter, r *http.Request) {
	sess, ok := gw.loadSession(w, r)
	if !ok {
		return
	}
	if err := gw.store.Reset(r.Context(), sess.ID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	gw.broadcaster.send(SSEEvent{Type: "order.reset", Payload: map[string]any{"id": sess.ID}})
	writeJSON(w, http.StatusOK, map[string]string{"id": sess.ID, "status": "reset"})
}

type scanProxyRequest struct {
	Endpoint string          `json:"endpoint"`
	Payload  json.RawMessage `json:"payload"`
}

// handleScanProxy forwards a request to one of the allow-listed backend scan
// endpoints and relays the backend's status and body unchanged.
func (gw *Gateway) handleScanProxy(w http.ResponseWriter, r *http.Request) {
	var req scanProxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !scanclient.Allowed(req.Endpoint) {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("invalid endpoint %q; allowed: %s", req.Endpoint, strings.Join(scanclient.Endpoints(), ", ")))
		return
	}
	status, body, err := gw.scans.Proxy(r.Context(), req.Endpoint, req.Payload)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// handleEvents streams SSE to the client. Each line is a JSON SSEEvent.
// Clients receive a "connected" event immediately, then live updates.
func (gw *Gateway) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering if behind a proxy

	ch := gw.broadcaster.subscribe()
	defer gw.broadcaster.unsubscribe(ch)

	// Send initial connected event with current status.
	connected, _ := json.Marshal(SSEEvent{Type: "connected", Payload: gw.currentStatus()})
	fmt.Fprintf(w, "data: %s\n\n", connected)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case frame, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(frame)
			flusher.Flush()
		}
	}
}
