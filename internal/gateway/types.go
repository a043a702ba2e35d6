package gateway

// SSEEvent is serialised as JSON and pushed over the GET /events SSE stream.
type SSEEvent struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Status is a live snapshot of the gateway state.
type Status struct {
	Running       bool   `json:"running"`
	ActiveAudits  int    `json:"active_audits"`
	AuditsRun     int64  `json:"audits_run"`
	LastAuditAt   string `json:"last_audit_at,omitempty"`
	Schedules     int    `json:"schedules"`
	SSEClients    int    `json:"sse_clients"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}
