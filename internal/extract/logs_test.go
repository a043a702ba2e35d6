package extract

import "testing"

func TestFromLogsSSLGradeOnly(t *testing.T) {
	b := FromLogs("ERROR: response dropped. SSL analysis completed for example.com: Grade C", "example.com")
	if b.SSL == nil {
		t.Fatal("expected ssl section")
	}
	if b.SSL.Grade != "C" || !b.SSL.Valid.Bool() || b.SSL.Host != "example.com" {
		t.Errorf("unexpected ssl: %+v", b.SSL)
	}
	// No other markers present: nothing else recovered.
	if b.Ports != nil || b.Web != nil || b.Headers != nil || b.Tech != nil {
		t.Errorf("unexpected extra sections: %+v", b)
	}
}

func TestFromLogsGradeFInvalid(t *testing.T) {
	b := FromLogs("SSL analysis completed for bad.example: Grade F", "bad.example")
	if b.SSL == nil || b.SSL.Valid.Bool() {
		t.Fatalf("grade F must be invalid: %+v", b.SSL)
	}
}

func TestFromLogsPortCountApproximation(t *testing.T) {
	b := FromLogs("Scan completed for example.com: 4 open ports found", "example.com")
	if b.Ports == nil {
		t.Fatal("expected ports section")
	}
	// Exact numbers are unrecoverable; the extractor assumes 80/443.
	if len(b.Ports.OpenPorts) != 2 || b.Ports.OpenPorts[0].Number != 80 || b.Ports.OpenPorts[1].Number != 443 {
		t.Errorf("unexpected approximation: %+v", b.Ports.OpenPorts)
	}

	b = FromLogs("Scan completed for example.com: 0 open ports found", "example.com")
	if b.Ports == nil || len(b.Ports.OpenPorts) != 0 {
		t.Errorf("zero count should give empty open ports: %+v", b.Ports)
	}
}

func TestFromLogsNikto(t *testing.T) {
	b := FromLogs("Nikto scan completed: 3 issues found", "example.com")
	if b.Web == nil {
		t.Fatal("expected web section")
	}
	if b.Web.IssuesCount.Int() != 3 || len(b.Web.Vulnerabilities) != 1 {
		t.Errorf("unexpected web: %+v", b.Web)
	}
	if b.Web.Vulnerabilities[0].Severity != "Medium" {
		t.Errorf("placeholder severity = %q", b.Web.Vulnerabilities[0].Severity)
	}
}

func TestFromLogsHeaderScore(t *testing.T) {
	b := FromLogs("Header analysis completed for example.com: Score 30/100", "example.com")
	if b.Headers == nil || b.Headers.Score == nil {
		t.Fatal("expected headers section with score")
	}
	if b.Headers.Score.Int() != 30 {
		t.Errorf("score = %d", b.Headers.Score.Int())
	}
	if len(b.Headers.Missing) != 2 {
		t.Errorf("score < 50 should flag CSP and HSTS missing: %+v", b.Headers.Missing)
	}

	b = FromLogs("Header analysis completed for example.com: Score 80/100", "example.com")
	if len(b.Headers.Missing) != 0 {
		t.Errorf("score >= 50 should not flag missing headers: %+v", b.Headers.Missing)
	}
}

func TestFromLogsTechnologiesDict(t *testing.T) {
	b := FromLogs("Technologies found for example.com: {'server': 'nginx/1.18.0', 'x-powered-by': 'PHP/8.1'}", "example.com")
	if b.Tech == nil {
		t.Fatal("expected tech section")
	}
	if len(b.Tech.Technologies) != 2 {
		t.Fatalf("got %d technologies", len(b.Tech.Technologies))
	}
	// Keys are emitted sorted.
	if b.Tech.Technologies[0].Name != "server" || b.Tech.Technologies[0].Version != "nginx/1.18.0" {
		t.Errorf("tech[0] = %+v", b.Tech.Technologies[0])
	}
}

func TestFromLogsTechnologiesFragmentFallback(t *testing.T) {
	b := FromLogs(`worker crashed after 'server': 'Apache/2.4' header probe`, "example.com")
	if b.Tech == nil || len(b.Tech.Technologies) != 1 || b.Tech.Technologies[0].Name != "Apache/2.4" {
		t.Errorf("expected server fragment recovery, got %+v", b.Tech)
	}
}

func TestFromLogsEmptyInput(t *testing.T) {
	b := FromLogs("", "example.com")
	if b == nil || !b.IsEmpty() {
		t.Fatalf("empty log should yield empty bundle, got %+v", b)
	}
}

func TestFromLogsMultipleMarkers(t *testing.T) {
	log := `Job log:
SSL analysis completed for example.com: Grade B
Scan completed for example.com: 2 open ports found
Header analysis completed for example.com: Score 60/100
Nikto scan completed: 0 issues found`
	b := FromLogs(log, "example.com")
	if b.SSL == nil || b.Ports == nil || b.Headers == nil || b.Web == nil {
		t.Fatalf("expected four sections, got %+v", b)
	}
	if b.SSL.Grade != "B" || len(b.Web.Vulnerabilities) != 0 {
		t.Errorf("unexpected contents: ssl=%+v web=%+v", b.SSL, b.Web)
	}
}
