package cliapp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	coreapp "opsboard/internal/app"
	"opsboard/internal/config"
	"opsboard/internal/engine"
	"opsboard/internal/filter"
	"opsboard/internal/payload"

	tea "github.com/charmbracelet/bubbletea"
)

const operationalCSV = `date,team,employee,hours,tickets,visits
2025-12-01,Service Desk,mills,7.5,12,1
2025-12-01,Field Ops,ortega,8,3,4
2025-12-02,Service Desk,chen,6,9,0
`

const clientsCSV = `month,client,hours_billed,tickets_opened,tickets_closed,sla_met,sla_total
2025-12,Acme,40,9,8,8,10
2025-12,Westbrook Clinic,12,2,2,0,0
`

func mustDate(t *testing.T, s string) payload.Date {
	t.Helper()
	d, err := payload.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestModel_PanelCycleAndTrendToggle(t *testing.T) {
	m := initialModel(nil, nil)

	view := engine.View{
		Mode: filter.ModeOperational,
		Operational: &engine.OperationalView{
			GroupBy:     filter.GroupTeam,
			Granularity: filter.GranularityDay,
			Buckets: []engine.OperationalBucket{
				{Date: mustDate(t, "2025-12-01"), Team: "Service Desk", Hours: 7.5, Tickets: 12, Visits: 1},
				{Date: mustDate(t, "2025-12-01"), Team: "Field Ops", Hours: 8, Tickets: 3, Visits: 4},
			},
			Totals: engine.OperationalTotals{Hours: 15.5, Tickets: 15, Visits: 5},
		},
	}
	snap := filter.Snapshot{
		PeriodStart: mustDate(t, "2025-12-01"),
		PeriodEnd:   mustDate(t, "2025-12-31"),
	}

	updated, _ := m.Update(updateMsg{
		buildID:     "b-1",
		operational: 3,
		clients:     2,
		view:        view,
		snapshot:    snap,
		teams:       []string{"Service Desk", "Field Ops"},
		clientIDs:   []string{"Acme", "Westbrook Clinic"},
	})
	state, ok := updated.(model)
	if !ok {
		t.Fatalf("expected model type, got %T", updated)
	}
	if len(state.teamList.Items()) != 2 {
		t.Fatalf("expected 2 team items, got %d", len(state.teamList.Items()))
	}
	if len(state.clientList.Items()) != 2 {
		t.Fatalf("expected 2 client items, got %d", len(state.clientList.Items()))
	}

	rendered := state.View()
	if !strings.Contains(rendered, "Service Desk") {
		t.Fatalf("expected table to list Service Desk, got:\n%s", rendered)
	}
	if !strings.Contains(rendered, "b-1") {
		t.Fatalf("expected build id in header, got:\n%s", rendered)
	}

	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyTab})
	state = updated.(model)
	if state.mode != panelChart {
		t.Fatalf("expected chart panel after tab, got %v", state.mode)
	}
	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyTab})
	state = updated.(model)
	if state.mode != panelFilters {
		t.Fatalf("expected filters panel after second tab, got %v", state.mode)
	}
	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyTab})
	state = updated.(model)
	if state.mode != panelTable {
		t.Fatalf("expected table panel after third tab, got %v", state.mode)
	}

	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'t'}})
	state = updated.(model)
	if !state.showTrend {
		t.Fatal("expected trend overlay toggled on")
	}
}

func newUITestApp(t *testing.T) *coreapp.App {
	t.Helper()
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "operational.csv"), []byte(operationalCSV), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "clients.csv"), []byte(clientsCSV), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.DataDir = dir
	cfg.Output.HTML = filepath.Join(dir, "dist", "dashboard.html")
	cfg.Output.Payload = filepath.Join(dir, "dist", "payload.json")
	cfg.History.Enabled = false
	cfg.Alerts.Terminal = false

	app, err := coreapp.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = app.Close() })

	if err := app.Build(context.Background()); err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	return app
}

func TestModel_FilterActionsDriveController(t *testing.T) {
	app := newUITestApp(t)

	m := initialModel(app, nil)
	updated, _ := m.Update(buildUpdateMsg(app, app.CurrentUpdate()))
	state := updated.(model)

	if len(state.teamList.Items()) != 2 {
		t.Fatalf("expected 2 team items, got %d", len(state.teamList.Items()))
	}

	// Two tabs reach the filters panel; space toggles the first team.
	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyTab})
	state = updated.(model)
	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyTab})
	state = updated.(model)
	if state.mode != panelFilters {
		t.Fatalf("expected filters panel, got %v", state.mode)
	}

	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}})
	state = updated.(model)

	snap := app.Filter.Snapshot()
	if len(snap.Teams) != 1 || snap.Teams[0] != "Service Desk" {
		t.Fatalf("expected Service Desk selected, got %v", snap.Teams)
	}
	if state.view.Operational == nil || len(state.view.Operational.Buckets) != 2 {
		t.Fatalf("expected 2 buckets after team filter, got %+v", state.view.Operational)
	}

	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'m'}})
	state = updated.(model)
	if state.view.Mode != filter.ModeClient {
		t.Fatalf("expected client view, got %v", state.view.Mode)
	}
	if state.view.Client == nil || len(state.view.Client.Buckets) != 2 {
		t.Fatalf("expected 2 client buckets, got %+v", state.view.Client)
	}

	// An inverted range is rejected and the previous period survives.
	start := mustDate(t, "2025-12-01")
	if err := app.Filter.SetPeriod(start, start); err != nil {
		t.Fatal(err)
	}
	state = refreshFromApp(state)

	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'{'}})
	state = updated.(model)
	if state.filterErr == "" {
		t.Fatal("expected range error message")
	}
	after := app.Filter.Snapshot()
	if after.PeriodStart != start || after.PeriodEnd != start {
		t.Fatalf("expected period retained, got %s to %s", after.PeriodStart, after.PeriodEnd)
	}

	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	state = updated.(model)
	reset := app.Filter.Snapshot()
	if len(reset.Teams) != 0 || reset.Mode != filter.ModeOperational {
		t.Fatalf("unexpected snapshot after reset: %+v", reset)
	}
	// Bounds reach the client months' last day, not just the last
	// operational date.
	if reset.PeriodStart != mustDate(t, "2025-12-01") || reset.PeriodEnd != mustDate(t, "2025-12-31") {
		t.Fatalf("expected full period after reset, got %s to %s", reset.PeriodStart, reset.PeriodEnd)
	}
	if state.filterErr != "" {
		t.Fatalf("expected error cleared after reset, got %q", state.filterErr)
	}
}
