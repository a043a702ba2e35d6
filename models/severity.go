package models

import "strings"

// Severity is the canonical finding severity. Scanner tools report severity
// in wildly inconsistent vocabularies ("High", "HIGH", "critical", "moderate",
// "info", ...); everything is reduced to exactly these three values.
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
	SeverityLow    Severity = "Low"
)

// Weight returns a numeric weight for sorting (higher = more severe).
func (s Severity) Weight() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

func (s Severity) String() string {
	return string(s)
}

// NormalizeSeverity maps a free-text severity token to a canonical Severity
// by case-insensitive substring match. Unrecognised strings map to Medium.
func NormalizeSeverity(raw string) Severity {
	t := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(t, "high"), strings.Contains(t, "critical"):
		return SeverityHigh
	case strings.Contains(t, "medium"), strings.Contains(t, "moderate"):
		return SeverityMedium
	case strings.Contains(t, "low"), strings.Contains(t, "info"):
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// MapBackendSeverity maps the CDN bypass backend's upper-case severity tokens
// (HIGH/CRITICAL/MEDIUM/MODERATE/LOW/INFO) to a canonical Severity.
// Unknown tokens default to Medium.
func MapBackendSeverity(raw string) Severity {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "HIGH", "CRITICAL":
		return SeverityHigh
	case "MEDIUM", "MODERATE":
		return SeverityMedium
	case "LOW", "INFO":
		return SeverityLow
	default:
		return SeverityMedium
	}
}

// RiskLevel classifies the overall audit risk.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// Rank returns a numeric rank for comparisons (higher = riskier).
func (r RiskLevel) Rank() int {
	switch r {
	case RiskCritical:
		return 4
	case RiskHigh:
		return 3
	case RiskModerate:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

// Grade is the letter grade used for category and overall scores.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// GradeForScore converts a 0-10 score to a letter grade. The same ladder is
// used for category scores and the overall score (divided by 10 first).
func GradeForScore(score float64) Grade {
	switch {
	case score >= 9.5:
		return GradeAPlus
	case score >= 8.5:
		return GradeA
	case score >= 7:
		return GradeB
	case score >= 5:
		return GradeC
	case score >= 3:
		return GradeD
	default:
		return GradeF
	}
}
