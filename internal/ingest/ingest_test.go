package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"opsboard/internal/config"
	"opsboard/internal/core/errors"
	"opsboard/internal/payload"
)

func writeTestSources(t *testing.T, operational, clients string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "operational.csv"), []byte(operational), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "clients.csv"), []byte(clients), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.DataDir = dir
	return cfg
}

const operationalCSV = `date,team,employee,hours,tickets,visits
2025-12-01,Service Desk,Mills,7.5,12,0
2025-12-01,Service Desk,Итого за месяц,99,99,99
2025-12-02,Field Ops,Ortega,"8,25",3,4
2025-12-02,Field Ops,Chen,,0,
not-a-date,Field Ops,Chen,8,1,0
`

const clientsCSV = `month,client,hours_billed,tickets_opened,tickets_closed,sla_met,sla_total,incidents
2025-12,ООО Акме,40.5,10,8,7,8,1
2025-12,Westbrook Clinic,12,2,2,2,2,0
2025-13,Westbrook Clinic,1,1,1,1,1,0
`

func TestLoadParsesAndFilters(t *testing.T) {
	cfg := writeTestSources(t, operationalCSV, clientsCSV)
	cfg.Ingest.ExcludeRows = []string{"итого*"}
	cfg.Ingest.Aliases = map[string]string{"ооо акме": "Acme"}

	loader, err := NewLoader(cfg)
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}
	doc, report, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if report.OperationalRows != 3 {
		t.Errorf("OperationalRows = %d, want 3", report.OperationalRows)
	}
	if report.ExcludedRows != 1 {
		t.Errorf("ExcludedRows = %d, want 1 (the summary row)", report.ExcludedRows)
	}
	// One bad date in operational, one bad month in clients.
	if len(report.BadRows) != 2 {
		t.Errorf("BadRows = %+v, want 2", report.BadRows)
	}

	if len(doc.Operational) != 3 {
		t.Fatalf("operational records = %+v", doc.Operational)
	}
	ortega := doc.Operational[1]
	if ortega.Hours != 8.25 {
		t.Errorf("comma decimal parsed as %v, want 8.25", ortega.Hours)
	}
	chen := doc.Operational[2]
	if chen.Hours != 0 || chen.Visits != 0 {
		t.Errorf("blank cells should parse as zero: %+v", chen)
	}

	if len(doc.Clients) != 2 {
		t.Fatalf("client records = %+v", doc.Clients)
	}
	if doc.Clients[0].Client != "Acme" {
		t.Errorf("alias not applied: %q", doc.Clients[0].Client)
	}
	if doc.Clients[0].Incidents != 1 {
		t.Errorf("incidents column not read: %+v", doc.Clients[0])
	}

	if doc.BuildID == "" {
		t.Error("build id not assigned")
	}
	if doc.GeneratedAt.IsZero() || doc.GeneratedAt.Location() != time.UTC {
		t.Errorf("generated_at = %v, want a UTC timestamp", doc.GeneratedAt)
	}
}

func TestLoadWithoutIncidentsColumn(t *testing.T) {
	clients := `month,client,hours_billed,tickets_opened,tickets_closed,sla_met,sla_total
2025-12,Acme,1,1,1,1,1
`
	cfg := writeTestSources(t, operationalCSV, clients)
	loader, err := NewLoader(cfg)
	if err != nil {
		t.Fatal(err)
	}
	doc, _, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(doc.Clients) != 1 || doc.Clients[0].Incidents != 0 {
		t.Errorf("clients = %+v", doc.Clients)
	}
}

func TestLoadRejectsMissingColumn(t *testing.T) {
	ops := `date,team,hours,tickets,visits
2025-12-01,Service Desk,8,1,0
`
	cfg := writeTestSources(t, ops, clientsCSV)
	loader, err := NewLoader(cfg)
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = loader.Load()
	if !errors.IsCode(err, errors.CodeIngest) {
		t.Errorf("expected ingest error for missing employee column, got %v", err)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	loader, err := NewLoader(cfg)
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = loader.Load()
	if !errors.IsCode(err, errors.CodeIngest) {
		t.Errorf("expected ingest error for missing source file, got %v", err)
	}
}

func TestNewLoaderRejectsBadPattern(t *testing.T) {
	cfg := config.Default()
	cfg.Ingest.ExcludeRows = []string{"[unclosed"}
	if _, err := NewLoader(cfg); !errors.IsCode(err, errors.CodeIngest) {
		t.Errorf("expected ingest error for a bad glob, got %v", err)
	}
}

func TestCalendarFlowsIntoDocument(t *testing.T) {
	cfg := writeTestSources(t, operationalCSV, clientsCSV)
	cfg.Calendar = map[string]int{"2025-12": 22}

	loader, err := NewLoader(cfg)
	if err != nil {
		t.Fatal(err)
	}
	doc, _, err := loader.Load()
	if err != nil {
		t.Fatal(err)
	}
	if doc.Calendar[payload.Month{Year: 2025, Month: time.December}] != 22 {
		t.Errorf("calendar = %v", doc.Calendar)
	}
}
