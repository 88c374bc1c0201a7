package store

import (
	"encoding/json"
	"log/slog"
	"time"

	"opsboard/internal/core/errors"
	"opsboard/internal/payload"
)

// Store holds the loaded record collections. It is immutable after
// construction; a data refresh builds a new Store rather than mutating
// one, so readers never need locking.
type Store struct {
	buildID     string
	generatedAt time.Time

	operational []payload.OperationalRecord
	clients     []payload.ClientRecord
	calendar    map[payload.Month]int

	// Identifier lists in order of first appearance in the payload.
	// Renderers and the aggregation engine rely on this order for
	// deterministic tie-breaking; it is never alphabetized.
	teams         []string
	teamIndex     map[string]int
	employees     []string
	employeeIndex map[string]int
	clientIDs     []string
	clientIndex   map[string]int

	opsMin, opsMax payload.Date
	hasOps         bool
	clMin, clMax   payload.Month
	hasClients     bool
}

// Skip records one rejected record and why.
type Skip struct {
	Collection string
	Index      int
	Reason     string
}

// LoadReport summarizes a load: how much survived and what was skipped.
// Malformed records never abort a load.
type LoadReport struct {
	OperationalLoaded int
	ClientsLoaded     int
	Skipped           []Skip
}

func (r *LoadReport) SkippedTotal() int {
	return len(r.Skipped)
}

func (r *LoadReport) SkippedByReason() map[string]int {
	counts := make(map[string]int, len(r.Skipped))
	for _, s := range r.Skipped {
		counts[s.Reason]++
	}
	return counts
}

func (r *LoadReport) skip(collection string, index int, reason string) {
	r.Skipped = append(r.Skipped, Skip{Collection: collection, Index: index, Reason: reason})
	slog.Warn("skipping malformed record", "collection", collection, "index", index, "reason", reason)
}

type rawDocument struct {
	GeneratedAt time.Time         `json:"generated_at"`
	BuildID     string            `json:"build_id"`
	Operational []json.RawMessage `json:"operational"`
	Clients     []json.RawMessage `json:"clients"`
	Calendar    map[string]int    `json:"calendar"`
}

// Load decodes a payload document and builds the store. Decoding is
// resilient per record: a record that fails to decode or validate is
// skipped and counted, only an undecodable envelope is an error.
func Load(data []byte) (*Store, *LoadReport, error) {
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, errors.Wrap(err, errors.CodeMalformedPayload, "decode payload document")
	}

	report := &LoadReport{}
	doc := payload.Document{
		GeneratedAt: raw.GeneratedAt,
		BuildID:     raw.BuildID,
	}

	for i, msg := range raw.Operational {
		var rec payload.OperationalRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			report.skip("operational", i, payload.ReasonUndecodable)
			continue
		}
		doc.Operational = append(doc.Operational, rec)
	}
	for i, msg := range raw.Clients {
		var rec payload.ClientRecord
		if err := json.Unmarshal(msg, &rec); err != nil {
			report.skip("clients", i, payload.ReasonUndecodable)
			continue
		}
		doc.Clients = append(doc.Clients, rec)
	}

	if len(raw.Calendar) > 0 {
		doc.Calendar = make(map[payload.Month]int, len(raw.Calendar))
		for key, days := range raw.Calendar {
			m, err := payload.ParseMonth(key)
			if err != nil || days < 0 {
				slog.Warn("skipping calendar entry", "month", key, "days", days)
				continue
			}
			doc.Calendar[m] = days
		}
	}

	st, fromReport := FromDocument(&doc)
	report.OperationalLoaded = fromReport.OperationalLoaded
	report.ClientsLoaded = fromReport.ClientsLoaded
	report.Skipped = append(report.Skipped, fromReport.Skipped...)
	return st, report, nil
}

// FromDocument validates every record in an already decoded document and
// builds the store from the ones that pass. The skip indexes refer to
// positions in the document's slices.
func FromDocument(doc *payload.Document) (*Store, *LoadReport) {
	report := &LoadReport{}
	s := &Store{
		buildID:       doc.BuildID,
		generatedAt:   doc.GeneratedAt,
		teamIndex:     make(map[string]int),
		employeeIndex: make(map[string]int),
		clientIndex:   make(map[string]int),
	}

	for i, rec := range doc.Operational {
		if reason := payload.ValidateOperational(rec); reason != "" {
			report.skip("operational", i, reason)
			continue
		}
		s.addOperational(rec)
	}
	for i, rec := range doc.Clients {
		if reason := payload.ValidateClient(rec); reason != "" {
			report.skip("clients", i, reason)
			continue
		}
		s.addClient(rec)
	}

	if len(doc.Calendar) > 0 {
		s.calendar = make(map[payload.Month]int, len(doc.Calendar))
		for m, days := range doc.Calendar {
			s.calendar[m] = days
		}
	}

	report.OperationalLoaded = len(s.operational)
	report.ClientsLoaded = len(s.clients)
	return s, report
}

func (s *Store) addOperational(rec payload.OperationalRecord) {
	s.operational = append(s.operational, rec)

	if _, ok := s.teamIndex[rec.Team]; !ok {
		s.teamIndex[rec.Team] = len(s.teams)
		s.teams = append(s.teams, rec.Team)
	}
	if _, ok := s.employeeIndex[rec.Employee]; !ok {
		s.employeeIndex[rec.Employee] = len(s.employees)
		s.employees = append(s.employees, rec.Employee)
	}

	if !s.hasOps {
		s.opsMin, s.opsMax = rec.Date, rec.Date
		s.hasOps = true
		return
	}
	if rec.Date.Before(s.opsMin) {
		s.opsMin = rec.Date
	}
	if rec.Date.After(s.opsMax) {
		s.opsMax = rec.Date
	}
}

func (s *Store) addClient(rec payload.ClientRecord) {
	s.clients = append(s.clients, rec)

	if _, ok := s.clientIndex[rec.Client]; !ok {
		s.clientIndex[rec.Client] = len(s.clientIDs)
		s.clientIDs = append(s.clientIDs, rec.Client)
	}

	if !s.hasClients {
		s.clMin, s.clMax = rec.Month, rec.Month
		s.hasClients = true
		return
	}
	if rec.Month.Before(s.clMin) {
		s.clMin = rec.Month
	}
	if rec.Month.After(s.clMax) {
		s.clMax = rec.Month
	}
}

func (s *Store) BuildID() string        { return s.buildID }
func (s *Store) GeneratedAt() time.Time { return s.generatedAt }
func (s *Store) OperationalCount() int  { return len(s.operational) }
func (s *Store) ClientCount() int       { return len(s.clients) }

func (s *Store) Empty() bool {
	return len(s.operational) == 0 && len(s.clients) == 0
}

// Operational returns a copy of the operational records in payload order.
func (s *Store) Operational() []payload.OperationalRecord {
	out := make([]payload.OperationalRecord, len(s.operational))
	copy(out, s.operational)
	return out
}

// Clients returns a copy of the client records in payload order.
func (s *Store) Clients() []payload.ClientRecord {
	out := make([]payload.ClientRecord, len(s.clients))
	copy(out, s.clients)
	return out
}

func (s *Store) Teams() []string     { return copyStrings(s.teams) }
func (s *Store) Employees() []string { return copyStrings(s.employees) }
func (s *Store) ClientIDs() []string { return copyStrings(s.clientIDs) }

func (s *Store) HasTeam(id string) bool {
	_, ok := s.teamIndex[id]
	return ok
}

func (s *Store) HasClient(id string) bool {
	_, ok := s.clientIndex[id]
	return ok
}

// TeamIndex returns the team's encounter-order position.
func (s *Store) TeamIndex(id string) (int, bool) {
	idx, ok := s.teamIndex[id]
	return idx, ok
}

func (s *Store) EmployeeIndex(id string) (int, bool) {
	idx, ok := s.employeeIndex[id]
	return idx, ok
}

func (s *Store) ClientIndex(id string) (int, bool) {
	idx, ok := s.clientIndex[id]
	return idx, ok
}

// DateRange returns the inclusive span of operational record dates.
func (s *Store) DateRange() (payload.Date, payload.Date, bool) {
	return s.opsMin, s.opsMax, s.hasOps
}

// MonthRange returns the inclusive span of client record months.
func (s *Store) MonthRange() (payload.Month, payload.Month, bool) {
	return s.clMin, s.clMax, s.hasClients
}

// Bounds returns the union of both collections' spans expressed as
// dates, the clamp target for period filters.
func (s *Store) Bounds() (payload.Date, payload.Date, bool) {
	switch {
	case s.hasOps && s.hasClients:
		lo, hi := s.opsMin, s.opsMax
		if first := s.clMin.FirstDay(); first.Before(lo) {
			lo = first
		}
		if last := s.clMax.LastDay(); last.After(hi) {
			hi = last
		}
		return lo, hi, true
	case s.hasOps:
		return s.opsMin, s.opsMax, true
	case s.hasClients:
		return s.clMin.FirstDay(), s.clMax.LastDay(), true
	default:
		return payload.Date{}, payload.Date{}, false
	}
}

// WorkingDays returns the production-calendar working days for a month.
func (s *Store) WorkingDays(m payload.Month) (int, bool) {
	days, ok := s.calendar[m]
	return days, ok
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
