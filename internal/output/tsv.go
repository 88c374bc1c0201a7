// # internal/output/tsv.go
package output

import (
	"fmt"
	"strings"

	"opsboard/internal/engine"
	"opsboard/internal/filter"
	"opsboard/internal/payload"
)

type TSVGenerator struct {
	view engine.View
}

func NewTSVGenerator(view engine.View) *TSVGenerator {
	return &TSVGenerator{view: view}
}

// Generate renders the view as tab-separated rows for spreadsheet
// import. The header matches the active mode; cells that do not apply
// to a bucket stay empty rather than shifting columns.
func (t *TSVGenerator) Generate() (string, error) {
	if t.view.Mode == filter.ModeClient {
		return t.generateClient()
	}
	return t.generateOperational()
}

func (t *TSVGenerator) generateOperational() (string, error) {
	var buf strings.Builder

	buf.WriteString("Date\tTeam\tEmployee\tHours\tTickets\tVisits\tEmployees\tNormHours\tUtilization\n")

	if t.view.Operational == nil {
		return buf.String(), nil
	}
	for _, b := range t.view.Operational.Buckets {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%.2f\t%d\t%d\t%d\t%s\t%s\n",
			t.dateLabel(b.Date),
			b.Team,
			b.Employee,
			b.Hours,
			b.Tickets,
			b.Visits,
			b.Employees,
			normCell(b.NormHours),
			utilizationCell(b.NormHours, b.Utilization),
		))
	}

	return buf.String(), nil
}

func (t *TSVGenerator) generateClient() (string, error) {
	var buf strings.Builder

	buf.WriteString("Month\tClient\tHoursBilled\tTicketsOpened\tTicketsClosed\tBacklog\tIncidents\tSlaMet\tSlaTotal\tSlaRatio\n")

	if t.view.Client == nil {
		return buf.String(), nil
	}
	for _, b := range t.view.Client.Buckets {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%.2f\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			b.Month,
			b.Client,
			b.HoursBilled,
			b.TicketsOpened,
			b.TicketsClosed,
			b.Backlog,
			b.Incidents,
			b.SlaMet,
			b.SlaTotal,
			slaCell(b.HasSla, b.SlaRatio),
		))
	}

	return buf.String(), nil
}

func (t *TSVGenerator) dateLabel(d payload.Date) string {
	if t.view.Operational.Granularity == filter.GranularityMonth {
		return d.MonthOf().String()
	}
	return d.String()
}

// A bucket without calendar coverage has no norm; its cells stay empty
// so a spreadsheet does not chart zeros that mean "unknown".
func normCell(norm float64) string {
	if norm <= 0 {
		return ""
	}
	return fmt.Sprintf("%.1f", norm)
}

func utilizationCell(norm, utilization float64) string {
	if norm <= 0 {
		return ""
	}
	return fmt.Sprintf("%.4f", utilization)
}

// SLA with a zero denominator is absent data, not a perfect or failed
// month, so the cell reads "no data" instead of a number.
func slaCell(hasSla bool, ratio float64) string {
	if !hasSla {
		return "no data"
	}
	return fmt.Sprintf("%.4f", ratio)
}
