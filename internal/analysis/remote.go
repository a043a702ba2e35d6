package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kasyifana/audit-ai/internal/config"
	"github.com/kasyifana/audit-ai/models"
)

// Remote calls an OpenAI-compatible chat completions endpoint and asks the
// model for a structured audit report. Any failure (network, non-200, bad
// JSON in the completion) is returned as an error so the Fallback combinator
// can run the rules instead.
type Remote struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	newID    func() string
}

// NewRemote builds the LLM analyzer from cfg. The endpoint is used as-is; it
// must already point at a chat completions URL.
func NewRemote(cfg config.LLMConfig) *Remote {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4"
	}
	return &Remote{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    model,
		client:   &http.Client{Timeout: timeout},
		newID:    uuid.NewString,
	}
}

func (r *Remote) Name() string { return "llm" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// llmReport is the structure the prompt asks the model to emit.
type llmReport struct {
	Summary  string `json:"summary"`
	Findings []struct {
		Title       string `json:"title"`
		Severity    string `json:"severity"`
		Description string `json:"description"`
		Impact      string `json:"impact"`
	} `json:"findings"`
	Recommendations []string `json:"recommendations"`
	ActionItems     []struct {
		Task     string `json:"task"`
		Priority string `json:"priority"`
		Deadline string `json:"deadline"`
	} `json:"actionItems"`
}

func (r *Remote) Analyze(ctx context.Context, req Request) (*models.AuditResult, error) {
	if _, err := url.ParseRequestURI(r.endpoint); err != nil {
		return nil, fmt.Errorf("invalid LLM endpoint: %w", err)
	}

	payload := chatRequest{
		Model: r.model,
		Messages: []chatMessage{
			{Role: "system", Content: "Anda adalah ahli keamanan siber dan audit website. Analisis hasil scan dan berikan insight yang actionable."},
			{Role: "user", Content: buildPrompt(req)},
		},
		Temperature: 0.7,
	}
	payload.ResponseFormat.Type = "json_object"

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshalling LLM request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating LLM request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling LLM API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading LLM response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("LLM API error: %s", resp.Status)
	}

	var chat chatResponse
	if err := json.Unmarshal(respBody, &chat); err != nil {
		return nil, fmt.Errorf("decoding LLM response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("LLM response has no choices")
	}

	var report llmReport
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &report); err != nil {
		return nil, fmt.Errorf("decoding LLM analysis content: %w", err)
	}

	result := &models.AuditResult{
		ID:              r.newID(),
		Date:            time.Now().UTC().Format(time.RFC3339),
		Type:            "Website Blackbox Audit (AI-Powered)",
		Summary:         report.Summary,
		Findings:        make([]models.Finding, 0, len(report.Findings)),
		Recommendations: report.Recommendations,
		ActionItems:     make([]models.ActionItem, 0, len(report.ActionItems)),
	}
	if result.Recommendations == nil {
		result.Recommendations = []string{}
	}
	for i, f := range report.Findings {
		result.Findings = append(result.Findings, models.Finding{
			ID:          fmt.Sprintf("llm-finding-%d", i),
			Title:       f.Title,
			Severity:    models.NormalizeSeverity(f.Severity),
			Description: f.Description,
			Impact:      f.Impact,
		})
	}
	for i, a := range report.ActionItems {
		result.ActionItems = append(result.ActionItems, models.ActionItem{
			ID:       fmt.Sprintf("llm-action-%d", i),
			Task:     a.Task,
			Priority: models.NormalizeSeverity(a.Priority),
			Deadline: a.Deadline,
		})
	}
	return result, nil
}

func buildPrompt(req Request) string {
	scanJSON, err := json.MarshalIndent(req.Bundle, "", "  ")
	if err != nil {
		scanJSON = []byte("{}")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analisis hasil audit website blackbox untuk %s dan berikan laporan yang komprehensif.\n\n", req.URL)
	if req.FocusArea != "" {
		fmt.Fprintf(&b, "Fokus Area: %s\n", req.FocusArea)
	}
	if req.Notes != "" {
		fmt.Fprintf(&b, "Catatan: %s\n", req.Notes)
	}
	fmt.Fprintf(&b, "\nHasil Scan:\n%s\n\n", scanJSON)
	b.WriteString(`Berdasarkan hasil scan di atas, berikan analisis dalam format JSON dengan struktur berikut:
{
  "summary": "Ringkasan eksekutif singkat (2-3 kalimat) tentang temuan utama dan status keamanan website",
  "findings": [
    {
      "title": "Judul temuan",
      "severity": "High|Medium|Low",
      "description": "Penjelasan detail temuan",
      "impact": "Dampak terhadap bisnis/keamanan"
    }
  ],
  "recommendations": [
    "Rekomendasi actionable untuk perbaikan"
  ],
  "actionItems": [
    {
      "task": "Tugas spesifik yang perlu dilakukan",
      "priority": "High|Medium|Low",
      "deadline": "YYYY-MM-DD"
    }
  ]
}

Panduan:
- Prioritaskan temuan yang paling kritis dan berdampak tinggi
- Berikan rekomendasi yang spesifik dan dapat diimplementasikan
- Tentukan deadline yang realistis untuk action items
- Gunakan bahasa Indonesia yang profesional
- Fokus pada aspek keamanan, performa, dan best practices`)
	return b.String()
}
