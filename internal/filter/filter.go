package filter

import (
	"sync"

	"opsboard/internal/core/errors"
	"opsboard/internal/payload"
	"opsboard/internal/store"
)

// Mode selects which record collection the dashboard aggregates.
type Mode int

const (
	ModeOperational Mode = iota
	ModeClient
)

func (m Mode) String() string {
	if m == ModeClient {
		return "client"
	}
	return "operational"
}

// GroupBy selects the operational grouping dimension.
type GroupBy int

const (
	GroupTeam GroupBy = iota
	GroupEmployee
)

func (g GroupBy) String() string {
	if g == GroupEmployee {
		return "employee"
	}
	return "team"
}

// Granularity selects the operational date bucket width.
type Granularity int

const (
	GranularityDay Granularity = iota
	GranularityMonth
)

func (g Granularity) String() string {
	if g == GranularityMonth {
		return "month"
	}
	return "day"
}

// Snapshot is an immutable copy of the filter state handed to
// subscribers. Selected identifiers are listed in store encounter order.
type Snapshot struct {
	PeriodStart payload.Date
	PeriodEnd   payload.Date
	Teams       []string
	Clients     []string
	Mode        Mode
	GroupBy     GroupBy
	Granularity Granularity
}

// TeamSelected reports whether the team passes the selection filter. An
// empty selection means no restriction.
func (s Snapshot) TeamSelected(id string) bool {
	if len(s.Teams) == 0 {
		return true
	}
	for _, t := range s.Teams {
		if t == id {
			return true
		}
	}
	return false
}

func (s Snapshot) ClientSelected(id string) bool {
	if len(s.Clients) == 0 {
		return true
	}
	for _, c := range s.Clients {
		if c == id {
			return true
		}
	}
	return false
}

// State holds the dashboard's filter settings. Every successful mutation
// notifies subscribers exactly once, synchronously, after the state has
// been updated; failed mutations leave the state untouched and emit
// nothing. Mutations are expected from a single goroutine (the UI loop);
// the mutex only guards snapshot reads from other goroutines.
type State struct {
	mu      sync.Mutex
	store   *store.Store
	start   payload.Date
	end     payload.Date
	teams   map[string]bool
	clients map[string]bool
	mode    Mode
	groupBy GroupBy
	gran    Granularity

	subs   []subscription
	nextID int
}

type subscription struct {
	id int
	fn func(Snapshot)
}

// NewState creates a filter bound to a store, covering its full period
// with no selections, in Operational mode.
func NewState(st *store.Store) *State {
	s := &State{}
	s.resetLocked(st)
	return s
}

// Subscribe registers a synchronous notification callback and returns
// its remove function. Callbacks run in subscription order on the
// mutating goroutine.
func (s *State) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// SetPeriod replaces the inclusive period bounds. A start after end is
// rejected with INVALID_RANGE and the previous period stays active.
// Bounds outside the store's data span are clamped, never rejected.
func (s *State) SetPeriod(start, end payload.Date) error {
	if start.After(end) {
		return &errors.DomainError{
			Code:    errors.CodeInvalidRange,
			Message: "period start is after period end",
			Context: map[string]interface{}{"start": start.String(), "end": end.String()},
		}
	}

	s.mu.Lock()
	if lo, hi, ok := s.store.Bounds(); ok {
		if start.Before(lo) {
			start = lo
		}
		if end.After(hi) {
			end = hi
		}
	}
	s.start, s.end = start, end
	s.mu.Unlock()

	s.notify()
	return nil
}

// ToggleTeam adds the team to the selection, or removes it when already
// selected. Identifiers unknown to the store are rejected so the
// selection always stays a subset of the loaded teams.
func (s *State) ToggleTeam(id string) error {
	s.mu.Lock()
	if !s.store.HasTeam(id) {
		s.mu.Unlock()
		return &errors.DomainError{
			Code:    errors.CodeUnknownID,
			Message: "unknown team",
			Context: map[string]interface{}{"team": id},
		}
	}
	if s.teams[id] {
		delete(s.teams, id)
	} else {
		s.teams[id] = true
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// ToggleClient mirrors ToggleTeam for the client selection.
func (s *State) ToggleClient(id string) error {
	s.mu.Lock()
	if !s.store.HasClient(id) {
		s.mu.Unlock()
		return &errors.DomainError{
			Code:    errors.CodeUnknownID,
			Message: "unknown client",
			Context: map[string]interface{}{"client": id},
		}
	}
	if s.clients[id] {
		delete(s.clients, id)
	} else {
		s.clients[id] = true
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// ClearTeams removes every team from the selection.
func (s *State) ClearTeams() {
	s.mu.Lock()
	s.teams = make(map[string]bool)
	s.mu.Unlock()
	s.notify()
}

// ClearClients removes every client from the selection.
func (s *State) ClearClients() {
	s.mu.Lock()
	s.clients = make(map[string]bool)
	s.mu.Unlock()
	s.notify()
}

// SetMode switches the active mode. The dormant mode's selections and
// view settings are retained untouched. Setting the current mode again
// still notifies; a redundant recompute is harmless.
func (s *State) SetMode(m Mode) {
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
	s.notify()
}

// SetGroupBy switches the operational grouping dimension.
func (s *State) SetGroupBy(g GroupBy) {
	s.mu.Lock()
	s.groupBy = g
	s.mu.Unlock()
	s.notify()
}

// SetGranularity switches the operational bucket width.
func (s *State) SetGranularity(g Granularity) {
	s.mu.Lock()
	s.gran = g
	s.mu.Unlock()
	s.notify()
}

// Reset restores the defaults for the bound store: full period, empty
// selections, Operational mode, team grouping, daily buckets.
func (s *State) Reset() {
	s.mu.Lock()
	s.resetLocked(s.store)
	s.mu.Unlock()
	s.notify()
}

// Rebind points the filter at a freshly loaded store: the period is
// re-clamped to the new bounds and selections drop identifiers that no
// longer exist. Everything else survives the swap. One notification.
func (s *State) Rebind(st *store.Store) {
	s.mu.Lock()
	s.store = st
	if lo, hi, ok := st.Bounds(); ok {
		if s.start.Before(lo) {
			s.start = lo
		}
		if s.end.After(hi) {
			s.end = hi
		}
		if s.start.After(s.end) {
			s.start, s.end = lo, hi
		}
	}
	for id := range s.teams {
		if !st.HasTeam(id) {
			delete(s.teams, id)
		}
	}
	for id := range s.clients {
		if !st.HasClient(id) {
			delete(s.clients, id)
		}
	}
	s.mu.Unlock()

	s.notify()
}

// Snapshot returns an immutable copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) resetLocked(st *store.Store) {
	s.store = st
	s.teams = make(map[string]bool)
	s.clients = make(map[string]bool)
	s.mode = ModeOperational
	s.groupBy = GroupTeam
	s.gran = GranularityDay
	s.start, s.end = payload.Date{}, payload.Date{}
	if lo, hi, ok := st.Bounds(); ok {
		s.start, s.end = lo, hi
	}
}

func (s *State) snapshotLocked() Snapshot {
	snap := Snapshot{
		PeriodStart: s.start,
		PeriodEnd:   s.end,
		Mode:        s.mode,
		GroupBy:     s.groupBy,
		Granularity: s.gran,
	}
	for _, id := range s.store.Teams() {
		if s.teams[id] {
			snap.Teams = append(snap.Teams, id)
		}
	}
	for _, id := range s.store.ClientIDs() {
		if s.clients[id] {
			snap.Clients = append(snap.Clients, id)
		}
	}
	return snap
}

func (s *State) notify() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(snap)
	}
}
