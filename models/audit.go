package models

// Finding is a single security issue surfaced by the audit. Description may
// contain markdown-like sections (certificate details, remediation steps).
type Finding struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Impact      string   `json:"impact"`
}

// ActionItem is a concrete remediation task with a fixed-offset deadline
// (deadline is always "now + 3/7/14 days" chosen by priority and category,
// never taken from scanner data).
type ActionItem struct {
	ID       string   `json:"id"`
	Task     string   `json:"task"`
	Priority Severity `json:"priority"`
	Deadline string   `json:"deadline"` // YYYY-MM-DD
}

// AuditResult is the normalised audit report. It is produced entirely by the
// LLM analysis path or entirely by the rule-based path, never merged, and is
// immutable once produced.
type AuditResult struct {
	ID              string       `json:"id"`
	Date            string       `json:"date"` // RFC 3339
	Type            string       `json:"type"`
	Summary         string       `json:"summary"`
	Findings        []Finding    `json:"findings"`
	Recommendations []string     `json:"recommendations"`
	ActionItems     []ActionItem `json:"actionItems"`
}

// HighCount returns the number of High-severity findings.
func (a *AuditResult) HighCount() int {
	n := 0
	for _, f := range a.Findings {
		if f.Severity == SeverityHigh {
			n++
		}
	}
	return n
}

// CategoryScore is a 0-10 weighted score for one audit category, derived
// purely from that category's raw scanner data.
type CategoryScore struct {
	Category        string   `json:"category"`
	Score           float64  `json:"score"` // clamped to [0,10]
	Grade           Grade    `json:"grade"`
	Weight          int      `json:"weight"` // percentage
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`
}

// ScoringResult folds the category scores into a single 0-100 score, letter
// grade and risk level. The issue counts are keyed off finding severity:
// criticalIssuesCount counts High findings, highIssuesCount Medium, and
// mediumIssuesCount Low.
type ScoringResult struct {
	OverallScore        int             `json:"overallScore"` // 0-100
	OverallGrade        Grade           `json:"overallGrade"`
	RiskLevel           RiskLevel       `json:"riskLevel"`
	CategoryScores      []CategoryScore `json:"categoryScores"`
	CriticalIssuesCount int             `json:"criticalIssuesCount"`
	HighIssuesCount     int             `json:"highIssuesCount"`
	MediumIssuesCount   int             `json:"mediumIssuesCount"`
}

// ExecutiveSummary is a derived, read-only narrative view over a
// ScoringResult plus select raw scan metadata (CDN, tech stack).
type ExecutiveSummary struct {
	TargetURL       string    `json:"targetUrl"`
	AuditDate       string    `json:"auditDate"`
	Auditor         string    `json:"auditor"`
	Methodology     []string  `json:"methodology"`
	OverallScore    int       `json:"overallScore"`
	ScoreOutOf      int       `json:"scoreOutOf"`
	RiskStatus      string    `json:"riskStatus"`
	RiskLevel       RiskLevel `json:"riskLevel"`
	KeyFindings     []string  `json:"keyFindings"`
	CriticalIssues  int       `json:"criticalIssues"`
	Recommendations []string  `json:"recommendations"`
	NextSteps       []string  `json:"nextSteps"`
}

// Report bundles everything the report consumer (UI / PDF export) needs.
type Report struct {
	TargetURL string            `json:"target_url"`
	Audit     *AuditResult      `json:"audit"`
	Scoring   *ScoringResult    `json:"scoring"`
	Summary   *ExecutiveSummary `json:"executive_summary"`
	Raw       *RawScanBundle    `json:"raw,omitempty"`
	Warnings  []string          `json:"warnings,omitempty"`
}
