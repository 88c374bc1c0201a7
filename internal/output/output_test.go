// # internal/output/output_test.go
package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"opsboard/internal/engine"
	"opsboard/internal/filter"
	"opsboard/internal/payload"
)

func mustDate(t *testing.T, s string) payload.Date {
	t.Helper()
	d, err := payload.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q) returned error: %v", s, err)
	}
	return d
}

func mustMonth(t *testing.T, s string) payload.Month {
	t.Helper()
	m, err := payload.ParseMonth(s)
	if err != nil {
		t.Fatalf("ParseMonth(%q) returned error: %v", s, err)
	}
	return m
}

func TestTSVGeneratorOperational(t *testing.T) {
	view := engine.View{
		Mode: filter.ModeOperational,
		Operational: &engine.OperationalView{
			GroupBy:     filter.GroupTeam,
			Granularity: filter.GranularityDay,
			Buckets: []engine.OperationalBucket{
				{Date: mustDate(t, "2025-12-01"), Team: "Service Desk", Hours: 7.5, Tickets: 12, Visits: 1, Employees: 2},
				{Date: mustDate(t, "2025-12-02"), Team: "Field Ops", Hours: 4, Tickets: 3, Visits: 5, Employees: 1},
			},
		},
	}

	gen := NewTSVGenerator(view)
	tsv, err := gen.Generate()
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(tsv), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines in TSV, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Date\tTeam\tEmployee\tHours") {
		t.Errorf("Unexpected TSV header: %s", lines[0])
	}
	if lines[1] != "2025-12-01\tService Desk\t\t7.50\t12\t1\t2\t\t" {
		t.Errorf("Unexpected TSV line: %s", lines[1])
	}
}

func TestTSVGeneratorMonthGranularity(t *testing.T) {
	view := engine.View{
		Mode: filter.ModeOperational,
		Operational: &engine.OperationalView{
			GroupBy:     filter.GroupTeam,
			Granularity: filter.GranularityMonth,
			Buckets: []engine.OperationalBucket{
				{
					Date: mustDate(t, "2025-12-01"), Team: "Service Desk",
					Hours: 160, Employees: 2, NormHours: 352, Utilization: 160.0 / 352.0,
				},
			},
		},
	}

	tsv, err := NewTSVGenerator(view).Generate()
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(tsv), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines in TSV, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[1], "2025-12\t") {
		t.Errorf("Month bucket should carry a month label, got: %s", lines[1])
	}
	if !strings.HasSuffix(lines[1], "\t352.0\t0.4545") {
		t.Errorf("Expected norm and utilization cells, got: %s", lines[1])
	}
}

func TestTSVGeneratorClient(t *testing.T) {
	view := engine.View{
		Mode: filter.ModeClient,
		Client: &engine.ClientView{
			Buckets: []engine.ClientBucket{
				{
					Month: mustMonth(t, "2025-12"), Client: "Acme", HoursBilled: 40,
					TicketsOpened: 9, TicketsClosed: 8, Backlog: 1, Incidents: 2,
					SlaMet: 8, SlaTotal: 10, SlaRatio: 0.8, HasSla: true,
				},
				{Month: mustMonth(t, "2025-12"), Client: "Westbrook Clinic"},
			},
		},
	}

	tsv, err := NewTSVGenerator(view).Generate()
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(tsv), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines in TSV, got %d", len(lines))
	}
	if lines[1] != "2025-12\tAcme\t40.00\t9\t8\t1\t2\t8\t10\t0.8000" {
		t.Errorf("Unexpected TSV line: %s", lines[1])
	}
	if !strings.HasSuffix(lines[2], "\tno data") {
		t.Errorf("Zero-denominator SLA should read 'no data', got: %s", lines[2])
	}
}

func TestWritePayloadCompact(t *testing.T) {
	month := mustMonth(t, "2025-12")
	doc := &payload.Document{
		GeneratedAt: time.Date(2025, 12, 2, 8, 0, 0, 0, time.UTC),
		BuildID:     "b-1",
		Operational: []payload.OperationalRecord{
			{Date: mustDate(t, "2025-12-01"), Team: "Service Desk", Employee: "mills", Hours: 7.5},
		},
		Clients:  []payload.ClientRecord{},
		Calendar: map[payload.Month]int{month: 22},
	}

	path := filepath.Join(t.TempDir(), "out", "payload.json")
	if err := WritePayload(path, doc); err != nil {
		t.Fatalf("WritePayload returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading payload: %v", err)
	}
	var decoded payload.Document
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if decoded.BuildID != "b-1" {
		t.Errorf("build_id = %q, want b-1", decoded.BuildID)
	}
	if len(decoded.Operational) != 1 || decoded.Operational[0].Team != "Service Desk" {
		t.Errorf("operational records did not round-trip: %+v", decoded.Operational)
	}
	if strings.Contains(string(data), "\n") {
		t.Error("payload should be compact, found newline")
	}
}

func TestHoursLeaders(t *testing.T) {
	buckets := []engine.OperationalBucket{
		{Date: mustDate(t, "2025-12-01"), Team: "Service Desk", Hours: 4},
		{Date: mustDate(t, "2025-12-02"), Team: "Service Desk", Hours: 8},
		{Date: mustDate(t, "2025-12-01"), Team: "Field Ops", Hours: 20},
		{Date: mustDate(t, "2025-12-01"), Team: "App Support", Hours: 1},
	}

	top := hoursLeaders(buckets, 2)
	if len(top) != 2 {
		t.Fatalf("Expected 2 leaders, got %d", len(top))
	}
	if top[0] != "Field Ops(20.0)" {
		t.Errorf("top[0] = %q, want Field Ops(20.0)", top[0])
	}
	if top[1] != "Service Desk(12.0)" {
		t.Errorf("top[1] = %q, want Service Desk(12.0)", top[1])
	}
}
