package cliapp

import (
	"fmt"
	"strings"

	"opsboard/internal/engine"
	"opsboard/internal/filter"
	"opsboard/internal/history"
)

const maxTableRows = 20
const maxBarWidth = 42

func renderHelp(m model) string {
	keys := "Keys: tab panel | m mode | g group | G granularity | [ ] start | { } end | r reset | t trend | q quit"
	if m.mode == panelFilters {
		keys = "Keys: tab panel | / filter | space toggle | c clear | r reset | q quit"
	}
	return statusStyle.Render(keys)
}

func describeFilters(snap filter.Snapshot) string {
	period := "no data"
	if !snap.PeriodStart.IsZero() {
		period = snap.PeriodStart.String() + " to " + snap.PeriodEnd.String()
	}

	parts := []string{"mode " + snap.Mode.String(), "period " + period}
	if snap.Mode == filter.ModeClient {
		parts = append(parts, "clients "+describeSelection(snap.Clients))
	} else {
		parts = append(parts,
			"by "+snap.GroupBy.String(),
			snap.Granularity.String()+" buckets",
			"teams "+describeSelection(snap.Teams))
	}
	return strings.Join(parts, " | ")
}

func describeSelection(ids []string) string {
	if len(ids) == 0 {
		return "all"
	}
	return strings.Join(ids, ", ")
}

func renderTablePanel(m model) string {
	if m.view.Mode == filter.ModeClient {
		return renderClientTable(m.view.Client)
	}
	return renderOperationalTable(m.view.Operational)
}

func renderOperationalTable(v *engine.OperationalView) string {
	if v == nil || len(v.Buckets) == 0 {
		return statusStyle.Render("No rows in the current period.")
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-12s %-22s %-22s %10s %8s %7s %10s %6s\n",
		"Date", "Team", "Employee", "Hours", "Tickets", "Visits", "NormHours", "Util"))

	rows := v.Buckets
	truncated := 0
	if len(rows) > maxTableRows {
		truncated = len(rows) - maxTableRows
		rows = rows[:maxTableRows]
	}
	for _, bucket := range rows {
		date := bucket.Date.String()
		if v.Granularity == filter.GranularityMonth {
			date = bucket.Date.MonthOf().String()
		}
		b.WriteString(fmt.Sprintf("%-12s %-22s %-22s %10.2f %8d %7d %10s %6s\n",
			date, clip(bucket.Team, 22), clip(bucket.Employee, 22),
			bucket.Hours, bucket.Tickets, bucket.Visits,
			normText(bucket.NormHours), utilText(bucket.NormHours, bucket.Utilization)))
	}
	b.WriteString(fmt.Sprintf("%-12s %-22s %-22s %10.2f %8d %7d %10s %6s\n",
		"Total", "", "", v.Totals.Hours, v.Totals.Tickets, v.Totals.Visits,
		normText(v.Totals.NormHours), utilText(v.Totals.NormHours, v.Totals.Utilization)))
	if truncated > 0 {
		b.WriteString(statusStyle.Render(fmt.Sprintf("... %d more rows", truncated)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderClientTable(v *engine.ClientView) string {
	if v == nil || len(v.Buckets) == 0 {
		return statusStyle.Render("No rows in the current period.")
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-9s %-24s %12s %8s %8s %8s %10s %8s\n",
		"Month", "Client", "HoursBilled", "Opened", "Closed", "Backlog", "Incidents", "SLA"))

	rows := v.Buckets
	truncated := 0
	if len(rows) > maxTableRows {
		truncated = len(rows) - maxTableRows
		rows = rows[:maxTableRows]
	}
	for _, bucket := range rows {
		b.WriteString(fmt.Sprintf("%-9s %-24s %12.2f %8d %8d %8d %10d %8s\n",
			bucket.Month.String(), clip(bucket.Client, 24),
			bucket.HoursBilled, bucket.TicketsOpened, bucket.TicketsClosed,
			bucket.Backlog, bucket.Incidents, slaText(bucket.SlaRatio, bucket.HasSla)))
	}
	b.WriteString(fmt.Sprintf("%-9s %-24s %12.2f %8d %8d %8d %10d %8s\n",
		"Total", "", v.Totals.HoursBilled, v.Totals.TicketsOpened, v.Totals.TicketsClosed,
		v.Totals.Backlog, v.Totals.Incidents, slaText(v.Totals.SlaRatio, v.Totals.HasSla)))
	if truncated > 0 {
		b.WriteString(statusStyle.Render(fmt.Sprintf("... %d more rows", truncated)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderChartPanel draws one horizontal bar per identifier, summed over
// the visible period. Rows keep the first-appearance order the series
// carries.
func renderChartPanel(m model) string {
	series := engine.BuildSeries(m.view)
	if len(series.Series) == 0 {
		return statusStyle.Render("No rows in the current period.")
	}

	unit := "hours worked"
	if m.view.Mode == filter.ModeClient {
		unit = "hours billed"
	}

	totals := make([]float64, len(series.Series))
	max := 0.0
	for i, row := range series.Series {
		for _, v := range row.Values {
			totals[i] += v
		}
		if totals[i] > max {
			max = totals[i]
		}
	}

	var b strings.Builder
	b.WriteString(statusStyle.Render(fmt.Sprintf("%s, %s to %s",
		unit, series.Labels[0], series.Labels[len(series.Labels)-1])))
	b.WriteString("\n\n")
	for i, row := range series.Series {
		width := 0
		if max > 0 {
			width = int(totals[i] / max * maxBarWidth)
		}
		if width == 0 && totals[i] > 0 {
			width = 1
		}
		b.WriteString(fmt.Sprintf("%-24s %s %.1f\n",
			clip(row.Name, 24), barStyle.Render(strings.Repeat("█", width)), totals[i]))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderFilterPanel(m model) string {
	if m.snapshot.Mode == filter.ModeClient {
		return m.clientList.View() + "\n" +
			statusStyle.Render("Space toggles the highlighted client; c clears the selection.")
	}
	return m.teamList.View() + "\n" +
		statusStyle.Render("Space toggles the highlighted team; c clears the selection.")
}

func renderTrendOverlay(report *history.TrendReport) string {
	if report == nil || len(report.Points) == 0 {
		return statusStyle.Render("Trend overlay unavailable (enable history to capture builds).")
	}
	last := report.Points[len(report.Points)-1]
	sla := "SLA: no data"
	if last.HasSla {
		sla = fmt.Sprintf("SLA: %.1f%% (drift %+.2f)", last.SlaRatio*100, last.DeltaSlaRatio)
	}
	return strings.Join([]string{
		"Trend Overlay",
		fmt.Sprintf("  Window: %s | Builds: %d", report.Window, report.BuildCount),
		fmt.Sprintf("  Record growth: %+d (%.2f%%)", last.DeltaOperational, last.RecordGrowthPct),
		fmt.Sprintf("  Hours drift: %+.1f worked | %+.1f billed", last.DeltaHours, last.DeltaHoursBilled),
		fmt.Sprintf("  Backlog delta: %+d (avg %.2f)", last.DeltaBacklog, last.AvgBacklog),
		fmt.Sprintf("  Skipped rows: avg %.2f | %s", last.AvgSkipped, sla),
	}, "\n")
}

// normText and utilText render a dash when the bucket has no calendar
// coverage; the norm is unknown there, not zero.
func normText(norm float64) string {
	if norm <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", norm)
}

func utilText(norm, util float64) string {
	if norm <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", util*100)
}

// slaText treats a zero SLA denominator as absent data, not a perfect
// month.
func slaText(ratio float64, has bool) string {
	if !has {
		return "no data"
	}
	return fmt.Sprintf("%.1f%%", ratio*100)
}

func clip(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
