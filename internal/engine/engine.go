package engine

import (
	"sort"

	"opsboard/internal/filter"
	"opsboard/internal/payload"
	"opsboard/internal/store"
)

// Aggregate runs the filter, group, reduce, order pipeline for the
// snapshot's active mode. It is a pure function: the same store and
// snapshot always produce an identical view, bucket order included, and
// well-formed input never fails. An empty filtered set produces a view
// with an empty bucket list.
func Aggregate(st *store.Store, snap filter.Snapshot) View {
	if snap.Mode == filter.ModeClient {
		return View{Mode: filter.ModeClient, Client: aggregateClient(st, snap)}
	}
	return View{Mode: filter.ModeOperational, Operational: aggregateOperational(st, snap)}
}

type operationalKey struct {
	date     payload.Date
	team     string
	employee string
}

func aggregateOperational(st *store.Store, snap filter.Snapshot) *OperationalView {
	view := &OperationalView{
		GroupBy:     snap.GroupBy,
		Granularity: snap.Granularity,
		Buckets:     []OperationalBucket{},
	}

	type group struct {
		bucket    OperationalBucket
		headcount map[string]bool
	}
	groups := make(map[operationalKey]*group)
	totalHeadcount := make(map[string]bool)

	for _, rec := range st.Operational() {
		if rec.Date.Before(snap.PeriodStart) || rec.Date.After(snap.PeriodEnd) {
			continue
		}
		if !snap.TeamSelected(rec.Team) {
			continue
		}

		key := operationalKey{date: bucketDate(rec.Date, snap.Granularity), team: rec.Team}
		if snap.GroupBy == filter.GroupEmployee {
			key.employee = rec.Employee
		}
		g, ok := groups[key]
		if !ok {
			g = &group{
				bucket:    OperationalBucket{Date: key.date, Team: key.team, Employee: key.employee},
				headcount: make(map[string]bool),
			}
			groups[key] = g
		}

		g.bucket.Hours += rec.Hours
		g.bucket.Tickets += rec.Tickets
		g.bucket.Visits += rec.Visits
		g.headcount[rec.Employee] = true

		view.Totals.Hours += rec.Hours
		view.Totals.Tickets += rec.Tickets
		view.Totals.Visits += rec.Visits
		totalHeadcount[rec.Employee] = true
	}

	for _, g := range groups {
		g.bucket.Employees = len(g.headcount)
		if snap.Granularity == filter.GranularityMonth {
			if days, ok := st.WorkingDays(g.bucket.Date.MonthOf()); ok {
				g.bucket.NormHours = float64(days * 8 * g.bucket.Employees)
				if g.bucket.NormHours > 0 {
					g.bucket.Utilization = g.bucket.Hours / g.bucket.NormHours
				}
			}
		}
		view.Totals.NormHours += g.bucket.NormHours
		view.Buckets = append(view.Buckets, g.bucket)
	}
	view.Totals.Employees = len(totalHeadcount)
	if view.Totals.NormHours > 0 {
		view.Totals.Utilization = view.Totals.Hours / view.Totals.NormHours
	}

	// The sort key (date, team index, employee index) totally orders the
	// group keys, so the map's iteration order cannot leak through.
	sort.Slice(view.Buckets, func(i, j int) bool {
		a, b := view.Buckets[i], view.Buckets[j]
		if c := a.Date.Compare(b.Date); c != 0 {
			return c < 0
		}
		ai, _ := st.TeamIndex(a.Team)
		bi, _ := st.TeamIndex(b.Team)
		if ai != bi {
			return ai < bi
		}
		ae, _ := st.EmployeeIndex(a.Employee)
		be, _ := st.EmployeeIndex(b.Employee)
		return ae < be
	})
	return view
}

type clientKey struct {
	month  payload.Month
	client string
}

func aggregateClient(st *store.Store, snap filter.Snapshot) *ClientView {
	view := &ClientView{Buckets: []ClientBucket{}}
	from := snap.PeriodStart.MonthOf()
	to := snap.PeriodEnd.MonthOf()

	groups := make(map[clientKey]*ClientBucket)
	for _, rec := range st.Clients() {
		if rec.Month.Before(from) || rec.Month.After(to) {
			continue
		}
		if !snap.ClientSelected(rec.Client) {
			continue
		}

		key := clientKey{month: rec.Month, client: rec.Client}
		b, ok := groups[key]
		if !ok {
			b = &ClientBucket{Month: rec.Month, Client: rec.Client}
			groups[key] = b
		}

		b.HoursBilled += rec.HoursBilled
		b.TicketsOpened += rec.TicketsOpened
		b.TicketsClosed += rec.TicketsClosed
		b.Incidents += rec.Incidents
		b.SlaMet += rec.SlaMet
		b.SlaTotal += rec.SlaTotal

		view.Totals.HoursBilled += rec.HoursBilled
		view.Totals.TicketsOpened += rec.TicketsOpened
		view.Totals.TicketsClosed += rec.TicketsClosed
		view.Totals.Incidents += rec.Incidents
		view.Totals.SlaMet += rec.SlaMet
		view.Totals.SlaTotal += rec.SlaTotal
	}

	for _, b := range groups {
		b.Backlog = b.TicketsOpened - b.TicketsClosed
		// Sum first, divide once; per-record ratios are never averaged.
		if b.SlaTotal > 0 {
			b.SlaRatio = float64(b.SlaMet) / float64(b.SlaTotal)
			b.HasSla = true
		}
		view.Buckets = append(view.Buckets, *b)
	}
	view.Totals.Backlog = view.Totals.TicketsOpened - view.Totals.TicketsClosed
	if view.Totals.SlaTotal > 0 {
		view.Totals.SlaRatio = float64(view.Totals.SlaMet) / float64(view.Totals.SlaTotal)
		view.Totals.HasSla = true
	}

	sort.Slice(view.Buckets, func(i, j int) bool {
		a, b := view.Buckets[i], view.Buckets[j]
		if c := a.Month.Compare(b.Month); c != 0 {
			return c < 0
		}
		ai, _ := st.ClientIndex(a.Client)
		bi, _ := st.ClientIndex(b.Client)
		return ai < bi
	})
	return view
}

func bucketDate(d payload.Date, g filter.Granularity) payload.Date {
	if g == filter.GranularityMonth {
		return d.MonthOf().FirstDay()
	}
	return d
}
