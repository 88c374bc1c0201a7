package assemble

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"opsboard/internal/payload"
)

func testDocument(t *testing.T) *payload.Document {
	t.Helper()
	date, err := payload.ParseDate("2025-12-01")
	if err != nil {
		t.Fatalf("ParseDate returned error: %v", err)
	}
	month, err := payload.ParseMonth("2025-12")
	if err != nil {
		t.Fatalf("ParseMonth returned error: %v", err)
	}
	return &payload.Document{
		GeneratedAt: time.Date(2025, 12, 2, 8, 30, 0, 0, time.UTC),
		BuildID:     "b-test-1",
		Operational: []payload.OperationalRecord{
			{Date: date, Team: "Service Desk", Employee: "mills", Hours: 7.5, Tickets: 12, Visits: 1},
		},
		Clients: []payload.ClientRecord{
			{Month: month, Client: "Acme", HoursBilled: 40, TicketsOpened: 9, TicketsClosed: 8, SlaMet: 8, SlaTotal: 9},
		},
		Calendar: map[payload.Month]int{month: 22},
	}
}

func TestGenerateEmbedsPayload(t *testing.T) {
	html, err := Generate(testDocument(t))
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	for _, want := range []string{
		"<!DOCTYPE html>",
		`http-equiv="refresh" content="60"`,
		"chart.js@4.4.1",
		"const D = ",
		`"team":"Service Desk"`,
		`"client":"Acme"`,
		`"2025-12":22`,
		`"build_id":"b-test-1"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("generated page does not contain %q", want)
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(html), "</html>") {
		t.Error("generated page is not terminated by </html>")
	}
}

func TestGenerateSelfContained(t *testing.T) {
	html, err := Generate(testDocument(t))
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	// One external script tag for Chart.js, nothing else fetched.
	if got := strings.Count(html, "<script src="); got != 1 {
		t.Errorf("expected 1 external script, got %d", got)
	}
	if strings.Contains(html, `<link `) {
		t.Error("expected no external stylesheet links")
	}
}

func TestWriteCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out", "dashboard.html")

	if err := Write(path, "<html></html>"); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written artifact: %v", err)
	}
	if string(data) != "<html></html>" {
		t.Errorf("artifact content = %q, want %q", string(data), "<html></html>")
	}
}

func TestPublishCopiesArtifact(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "dashboard.html")
	if err := os.WriteFile(src, []byte("payload"), 0644); err != nil {
		t.Fatalf("writing source artifact: %v", err)
	}

	publishDir := filepath.Join(dir, "share", "dash")
	dest, err := Publish(src, publishDir)
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if want := filepath.Join(publishDir, "dashboard.html"); dest != want {
		t.Errorf("dest = %q, want %q", dest, want)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading published copy: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("published content = %q, want %q", string(data), "payload")
	}
}

func TestPublishMissingArtifact(t *testing.T) {
	dir := t.TempDir()
	if _, err := Publish(filepath.Join(dir, "absent.html"), dir); err == nil {
		t.Error("expected error for missing artifact, got nil")
	}
}
