package cliapp

import (
	"opsboard/internal/filter"
	"opsboard/internal/shared/observability"

	tea "github.com/charmbracelet/bubbletea"
)

func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "tab":
		switch m.mode {
		case panelTable:
			m.mode = panelChart
		case panelChart:
			m.mode = panelFilters
		default:
			m.mode = panelTable
		}
		return m, nil
	case "t":
		m.showTrend = !m.showTrend
		return m, nil
	case "m":
		return switchMode(m)
	case "g":
		return cycleGroupBy(m)
	case "G":
		return cycleGranularity(m)
	case "c":
		return clearSelection(m)
	case "r":
		return resetFilters(m)
	case "[":
		return nudgePeriod(m, -1, 0)
	case "]":
		return nudgePeriod(m, 1, 0)
	case "{":
		return nudgePeriod(m, 0, -1)
	case "}":
		return nudgePeriod(m, 0, 1)
	}

	if m.mode != panelFilters {
		return m, nil
	}

	switch msg.String() {
	case "enter", " ":
		return toggleSelection(m)
	}

	var cmd tea.Cmd
	if m.snapshot.Mode == filter.ModeClient {
		m.clientList, cmd = m.clientList.Update(msg)
	} else {
		m.teamList, cmd = m.teamList.Update(msg)
	}
	return m, cmd
}

func switchMode(m model) (tea.Model, tea.Cmd) {
	if m.app == nil {
		return m, nil
	}
	next := filter.ModeOperational
	if m.snapshot.Mode == filter.ModeOperational {
		next = filter.ModeClient
	}
	m.app.Filter.SetMode(next)
	observability.FilterChangesTotal.WithLabelValues("mode").Inc()
	return refreshFromApp(m), nil
}

func cycleGroupBy(m model) (tea.Model, tea.Cmd) {
	if m.app == nil {
		return m, nil
	}
	next := filter.GroupTeam
	if m.snapshot.GroupBy == filter.GroupTeam {
		next = filter.GroupEmployee
	}
	m.app.Filter.SetGroupBy(next)
	observability.FilterChangesTotal.WithLabelValues("group").Inc()
	return refreshFromApp(m), nil
}

func cycleGranularity(m model) (tea.Model, tea.Cmd) {
	if m.app == nil {
		return m, nil
	}
	next := filter.GranularityDay
	if m.snapshot.Granularity == filter.GranularityDay {
		next = filter.GranularityMonth
	}
	m.app.Filter.SetGranularity(next)
	observability.FilterChangesTotal.WithLabelValues("granularity").Inc()
	return refreshFromApp(m), nil
}

func clearSelection(m model) (tea.Model, tea.Cmd) {
	if m.app == nil {
		return m, nil
	}
	if m.snapshot.Mode == filter.ModeClient {
		m.app.Filter.ClearClients()
	} else {
		m.app.Filter.ClearTeams()
	}
	observability.FilterChangesTotal.WithLabelValues("clear").Inc()
	return refreshFromApp(m), nil
}

func resetFilters(m model) (tea.Model, tea.Cmd) {
	if m.app == nil {
		return m, nil
	}
	m.app.Filter.Reset()
	observability.FilterChangesTotal.WithLabelValues("reset").Inc()
	return refreshFromApp(m), nil
}

// nudgePeriod moves a period edge by whole days. The filter clamps the
// result to the data bounds; an inverted range is rejected there and
// surfaces as a message while the previous period stays active.
func nudgePeriod(m model, startDays, endDays int) (tea.Model, tea.Cmd) {
	if m.app == nil {
		return m, nil
	}
	snap := m.app.Filter.Snapshot()
	if snap.PeriodStart.IsZero() {
		return m, nil
	}
	err := m.app.Filter.SetPeriod(snap.PeriodStart.AddDays(startDays), snap.PeriodEnd.AddDays(endDays))
	if err != nil {
		m.filterErr = err.Error()
		return m, nil
	}
	observability.FilterChangesTotal.WithLabelValues("period").Inc()
	return refreshFromApp(m), nil
}

func toggleSelection(m model) (tea.Model, tea.Cmd) {
	if m.app == nil {
		return m, nil
	}

	var err error
	var op string
	if m.snapshot.Mode == filter.ModeClient {
		it, ok := m.clientList.SelectedItem().(item)
		if !ok {
			return m, nil
		}
		err = m.app.Filter.ToggleClient(it.title)
		op = "clients"
	} else {
		it, ok := m.teamList.SelectedItem().(item)
		if !ok {
			return m, nil
		}
		err = m.app.Filter.ToggleTeam(it.title)
		op = "teams"
	}
	if err != nil {
		m.filterErr = err.Error()
		return m, nil
	}
	observability.FilterChangesTotal.WithLabelValues(op).Inc()
	return refreshFromApp(m), nil
}

// refreshFromApp pulls the view the controller recomputed during the
// mutation. Notification is synchronous, so the read never races ahead
// of the filter state.
func refreshFromApp(m model) model {
	m.view = m.app.Controller.Current()
	m.snapshot = m.app.Filter.Snapshot()
	m.filterErr = ""
	return refreshFilterLists(m)
}
