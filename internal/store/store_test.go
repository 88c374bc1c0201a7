package store

import (
	"testing"
	"time"

	"opsboard/internal/core/errors"
	"opsboard/internal/payload"
)

func date(y int, m time.Month, d int) payload.Date {
	return payload.Date{Year: y, Month: m, Day: d}
}

func month(y int, m time.Month) payload.Month {
	return payload.Month{Year: y, Month: m}
}

func testDocument() *payload.Document {
	return &payload.Document{
		BuildID:     "build-1",
		GeneratedAt: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
		Operational: []payload.OperationalRecord{
			{Date: date(2025, 2, 3), Team: "Service Desk", Employee: "Mills", Hours: 7.5, Tickets: 12, Visits: 0},
			{Date: date(2025, 1, 10), Team: "Field Ops", Employee: "Ortega", Hours: 8, Tickets: 3, Visits: 4},
			{Date: date(2025, 3, 5), Team: "App Support", Employee: "Chen", Hours: 6, Tickets: 9, Visits: 1},
			{Date: date(2025, 2, 4), Team: "Service Desk", Employee: "Adeyemi", Hours: 8, Tickets: 15, Visits: 0},
		},
		Clients: []payload.ClientRecord{
			{Month: month(2025, 2), Client: "Westbrook Clinic", HoursBilled: 40, TicketsOpened: 10, TicketsClosed: 8, SlaMet: 7, SlaTotal: 8},
			{Month: month(2024, 12), Client: "Acme Logistics", HoursBilled: 12, TicketsOpened: 2, TicketsClosed: 2, SlaMet: 2, SlaTotal: 2},
		},
		Calendar: map[payload.Month]int{
			month(2025, 2): 20,
		},
	}
}

func TestFromDocumentEncounterOrder(t *testing.T) {
	st, report := FromDocument(testDocument())

	if report.SkippedTotal() != 0 {
		t.Fatalf("expected no skips, got %v", report.Skipped)
	}
	if report.OperationalLoaded != 4 || report.ClientsLoaded != 2 {
		t.Fatalf("unexpected load counts: %d operational, %d clients", report.OperationalLoaded, report.ClientsLoaded)
	}

	// First appearance in the payload wins, never alphabetical order.
	wantTeams := []string{"Service Desk", "Field Ops", "App Support"}
	gotTeams := st.Teams()
	if len(gotTeams) != len(wantTeams) {
		t.Fatalf("teams = %v, want %v", gotTeams, wantTeams)
	}
	for i := range wantTeams {
		if gotTeams[i] != wantTeams[i] {
			t.Errorf("teams[%d] = %q, want %q", i, gotTeams[i], wantTeams[i])
		}
	}

	wantClients := []string{"Westbrook Clinic", "Acme Logistics"}
	for i, c := range st.ClientIDs() {
		if c != wantClients[i] {
			t.Errorf("clients[%d] = %q, want %q", i, c, wantClients[i])
		}
	}

	if idx, ok := st.TeamIndex("App Support"); !ok || idx != 2 {
		t.Errorf("TeamIndex(App Support) = %d, %v", idx, ok)
	}
	if _, ok := st.TeamIndex("Nonexistent"); ok {
		t.Error("TeamIndex returned ok for unknown team")
	}
	if idx, ok := st.EmployeeIndex("Adeyemi"); !ok || idx != 3 {
		t.Errorf("EmployeeIndex(Adeyemi) = %d, %v", idx, ok)
	}
	if !st.HasTeam("Field Ops") || st.HasClient("Initech") {
		t.Error("membership lookups disagree with loaded identifiers")
	}

	// Accessors hand out copies.
	gotTeams[0] = "mutated"
	if st.Teams()[0] != "Service Desk" {
		t.Error("Teams() exposed internal slice")
	}
}

func TestFromDocumentSkipsInvalidRecords(t *testing.T) {
	doc := testDocument()
	doc.Operational = append(doc.Operational,
		payload.OperationalRecord{Team: "Service Desk", Employee: "Mills", Hours: 8},
		payload.OperationalRecord{Date: date(2025, 2, 5), Team: "", Employee: "Mills", Hours: 8},
		payload.OperationalRecord{Date: date(2025, 2, 6), Team: "Service Desk", Employee: "Mills", Hours: -1},
	)
	doc.Clients = append(doc.Clients,
		payload.ClientRecord{Month: month(2025, 1), Client: "Acme Logistics", SlaMet: 5, SlaTotal: 3},
		payload.ClientRecord{Month: month(2025, 1), Client: ""},
	)

	st, report := FromDocument(doc)

	if report.OperationalLoaded != 4 || report.ClientsLoaded != 2 {
		t.Errorf("load counts = %d, %d; want 4, 2", report.OperationalLoaded, report.ClientsLoaded)
	}
	if report.SkippedTotal() != 5 {
		t.Fatalf("SkippedTotal = %d, want 5: %v", report.SkippedTotal(), report.Skipped)
	}

	byReason := report.SkippedByReason()
	for reason, want := range map[string]int{
		payload.ReasonBadDate:            1,
		payload.ReasonEmptyTeam:          1,
		payload.ReasonNegativeMetric:     1,
		payload.ReasonSlaMetExceedsTotal: 1,
		payload.ReasonEmptyClient:        1,
	} {
		if byReason[reason] != want {
			t.Errorf("skips for %q = %d, want %d", reason, byReason[reason], want)
		}
	}

	// A skip never widens the identifier sets or the record slices.
	if st.OperationalCount() != 4 || st.ClientCount() != 2 {
		t.Errorf("store kept %d/%d records, want 4/2", st.OperationalCount(), st.ClientCount())
	}
	if len(st.Teams()) != 3 {
		t.Errorf("teams = %v, want the 3 valid ones", st.Teams())
	}
}

func TestLoadResilientPerRecord(t *testing.T) {
	data := []byte(`{
		"build_id": "build-7",
		"generated_at": "2025-03-10T12:00:00Z",
		"operational": [
			{"date": "2025-02-03", "team": "Service Desk", "employee": "Mills", "hours": 7.5, "tickets": 12, "visits": 0},
			{"date": "2025-02-04", "team": "Service Desk", "employee": "Mills", "hours": "lots", "tickets": 1, "visits": 0},
			{"date": "2025-02-05", "team": "Field Ops", "employee": "Ortega", "hours": 8, "tickets": 3, "visits": 2}
		],
		"clients": [
			{"month": "2025-02", "client": "Westbrook Clinic", "hours_billed": 40, "tickets_opened": 10, "tickets_closed": 8, "sla_met": 7, "sla_total": 8}
		],
		"calendar": {"2025-02": 20, "February": 19}
	}`)

	st, report, err := Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if report.OperationalLoaded != 2 {
		t.Errorf("OperationalLoaded = %d, want 2", report.OperationalLoaded)
	}
	if got := report.SkippedByReason()[payload.ReasonUndecodable]; got != 1 {
		t.Errorf("undecodable skips = %d, want 1", got)
	}
	if st.BuildID() != "build-7" {
		t.Errorf("BuildID = %q", st.BuildID())
	}

	if days, ok := st.WorkingDays(month(2025, 2)); !ok || days != 20 {
		t.Errorf("WorkingDays(2025-02) = %d, %v; want 20, true", days, ok)
	}
	if _, ok := st.WorkingDays(month(2025, 1)); ok {
		t.Error("WorkingDays returned ok for a month without calendar data")
	}
}

func TestLoadRejectsMalformedEnvelope(t *testing.T) {
	_, _, err := Load([]byte(`{"operational": "not an array"}`))
	if err == nil {
		t.Fatal("expected an error for a malformed envelope")
	}
	if !errors.IsCode(err, errors.CodeMalformedPayload) {
		t.Errorf("error code mismatch: %v", err)
	}
}

func TestBoundsUnionOfBothCollections(t *testing.T) {
	st, _ := FromDocument(testDocument())

	lo, hi, ok := st.DateRange()
	if !ok || lo != date(2025, 1, 10) || hi != date(2025, 3, 5) {
		t.Errorf("DateRange = %v..%v, %v", lo, hi, ok)
	}

	mlo, mhi, ok := st.MonthRange()
	if !ok || mlo != month(2024, 12) || mhi != month(2025, 2) {
		t.Errorf("MonthRange = %v..%v, %v", mlo, mhi, ok)
	}

	// Client months reach further back than the operational dates, so
	// the lower bound comes from 2024-12; the upper stays operational.
	blo, bhi, ok := st.Bounds()
	if !ok {
		t.Fatal("Bounds not ok")
	}
	if blo != date(2024, 12, 1) {
		t.Errorf("Bounds lo = %v, want 2024-12-01", blo)
	}
	if bhi != date(2025, 3, 5) {
		t.Errorf("Bounds hi = %v, want 2025-03-05", bhi)
	}
}

func TestEmptyStore(t *testing.T) {
	st, report := FromDocument(&payload.Document{})

	if !st.Empty() {
		t.Error("store with no records should be empty")
	}
	if report.SkippedTotal() != 0 {
		t.Errorf("unexpected skips: %v", report.Skipped)
	}
	if _, _, ok := st.Bounds(); ok {
		t.Error("Bounds reported ok for an empty store")
	}
	if _, _, ok := st.DateRange(); ok {
		t.Error("DateRange reported ok for an empty store")
	}
	if len(st.Teams()) != 0 || len(st.ClientIDs()) != 0 {
		t.Error("identifier lists should be empty")
	}
}
