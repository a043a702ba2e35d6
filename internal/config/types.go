package config

// Config is the root configuration structure for auditai.
// Serialised to ~/.auditai/config.json.
type Config struct {
	Backend   BackendConfig    `mapstructure:"backend"   json:"backend"`
	LLM       LLMConfig        `mapstructure:"llm"       json:"llm"`
	Database  DatabaseConfig   `mapstructure:"database"  json:"database"`
	Gateway   GatewayConfig    `mapstructure:"gateway"   json:"gateway"`
	Notify    NotifyConfig     `mapstructure:"notify"    json:"notify"`
	Schedules []ScheduleConfig `mapstructure:"schedules" json:"schedules"`
}

// BackendConfig points at the remote scanning service.
type BackendConfig struct {
	// BaseURL is the scanning backend root (e.g. http://localhost:3000).
	BaseURL string `mapstructure:"base_url" json:"base_url"`
	// ScanTimeoutSeconds bounds each individual scan call. Scans are slow
	// (nmap, Nikto); the original service allowed five minutes.
	ScanTimeoutSeconds int `mapstructure:"scan_timeout_seconds" json:"scan_timeout_seconds"`
	// RetryCount is the number of transport-level retries per scan call.
	RetryCount int `mapstructure:"retry_count" json:"retry_count"`
}

// LLMConfig controls the optional LLM analysis step. An empty Endpoint or
// APIKey is a valid "feature disabled" state, not an error.
type LLMConfig struct {
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
	APIKey   string `mapstructure:"api_key"  json:"api_key"`
	Model    string `mapstructure:"model"    json:"model"`
	// TimeoutSeconds bounds the analysis call; failures fall back to the
	// rule-based analyzer.
	TimeoutSeconds int `mapstructure:"timeout_seconds" json:"timeout_seconds"`
}

// Enabled reports whether the remote analysis path is configured.
func (c LLMConfig) Enabled() bool {
	return c.Endpoint != "" && c.APIKey != ""
}

// DatabaseConfig controls the session store backend.
type DatabaseConfig struct {
	// Driver is "sqlite" (default) or "mysql".
	Driver string `mapstructure:"driver" json:"driver"`
	// Path is the SQLite file path (expanded at runtime).
	Path string `mapstructure:"path"   json:"path"`
	// DSN is the MySQL data source name (used when Driver == "mysql").
	DSN string `mapstructure:"dsn"    json:"dsn"`
}

// GatewayConfig controls the HTTP API server.
type GatewayConfig struct {
	// Port is the localhost HTTP port the gateway listens on (default: 6380).
	Port int `mapstructure:"port" json:"port"`
}

// NotifyConfig configures audit-completion notifications.
type NotifyConfig struct {
	Slack   SlackNotifyConfig   `mapstructure:"slack"   json:"slack"`
	Webhook WebhookNotifyConfig `mapstructure:"webhook" json:"webhook"`
	Email   EmailNotifyConfig   `mapstructure:"email"   json:"email"`
	// MinRisk is the minimum risk level to notify on ("", "Low", "Moderate",
	// "High", "Critical"). Empty means notify on every completed audit.
	MinRisk string `mapstructure:"min_risk" json:"min_risk"`
}

// SlackNotifyConfig holds the incoming-webhook URL for Slack notifications.
type SlackNotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url" json:"webhook_url"`
}

// WebhookNotifyConfig holds a generic HTTP endpoint with optional HMAC signing.
type WebhookNotifyConfig struct {
	URL    string `mapstructure:"url"    json:"url"`
	Secret string `mapstructure:"secret" json:"secret"`
}

// EmailNotifyConfig holds SMTP settings for email notifications. The customer
// address comes from the session order; To is an optional fixed copy for the
// operator.
type EmailNotifyConfig struct {
	SMTPHost string `mapstructure:"smtp_host" json:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port" json:"smtp_port"`
	Username string `mapstructure:"username"  json:"username"`
	Password string `mapstructure:"password"  json:"password"`
	From     string `mapstructure:"from"      json:"from"`
	To       string `mapstructure:"to"        json:"to"`
	UseTLS   bool   `mapstructure:"use_tls"   json:"use_tls"`
}

// ScheduleConfig is one recurring re-audit: a cron expression plus target URL.
type ScheduleConfig struct {
	Expr string `mapstructure:"expr" json:"expr"`
	URL  string `mapstructure:"url"  json:"url"`
}
