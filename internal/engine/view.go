package engine

import (
	"opsboard/internal/filter"
	"opsboard/internal/payload"
)

// View is the aggregation result handed to renderers. Exactly one of
// Operational and Client is set, matching Mode, so renderers work
// against a closed per-mode shape instead of inspecting loose fields.
type View struct {
	Mode        filter.Mode
	Operational *OperationalView
	Client      *ClientView
}

// Empty reports whether the view carries no buckets. An empty view is a
// valid render state, not an error.
func (v View) Empty() bool {
	switch {
	case v.Operational != nil:
		return len(v.Operational.Buckets) == 0
	case v.Client != nil:
		return len(v.Client.Buckets) == 0
	}
	return true
}

// OperationalView groups workload records by team or employee per date
// bucket. Buckets are ordered by date ascending, ties broken by the
// identifier's first appearance in the payload.
type OperationalView struct {
	GroupBy     filter.GroupBy
	Granularity filter.Granularity
	Buckets     []OperationalBucket
	Totals      OperationalTotals
}

// OperationalBucket is one grouped row. Date is the record date at day
// granularity and the first day of the month at month granularity.
// Employee is empty when grouping by team. NormHours and Utilization
// are only derived for month buckets with calendar coverage; both stay
// zero otherwise.
type OperationalBucket struct {
	Date        payload.Date
	Team        string
	Employee    string
	Hours       float64
	Tickets     int
	Visits      int
	Employees   int
	NormHours   float64
	Utilization float64
}

// OperationalTotals sums the filtered records once more. Employees is
// the distinct headcount across the whole filtered set, not a sum of
// per-bucket counts.
type OperationalTotals struct {
	Hours       float64
	Tickets     int
	Visits      int
	Employees   int
	NormHours   float64
	Utilization float64
}

// ClientView groups billing records by client per month.
type ClientView struct {
	Buckets []ClientBucket
	Totals  ClientTotals
}

// ClientBucket is one client-month row. SlaRatio is the summed
// numerator over the summed denominator; when SlaTotal is zero the
// bucket has no SLA data, HasSla is false and SlaRatio stays zero
// rather than becoming NaN.
type ClientBucket struct {
	Month         payload.Month
	Client        string
	HoursBilled   float64
	TicketsOpened int
	TicketsClosed int
	Backlog       int
	Incidents     int
	SlaMet        int
	SlaTotal      int
	SlaRatio      float64
	HasSla        bool
}

type ClientTotals struct {
	HoursBilled   float64
	TicketsOpened int
	TicketsClosed int
	Backlog       int
	Incidents     int
	SlaMet        int
	SlaTotal      int
	SlaRatio      float64
	HasSla        bool
}
