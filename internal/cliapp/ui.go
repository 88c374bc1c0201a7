package cliapp

import (
	"fmt"
	"time"

	coreapp "opsboard/internal/app"
	"opsboard/internal/engine"
	"opsboard/internal/filter"
	"opsboard/internal/history"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	alertStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6"))
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	teamList    list.Model
	clientList  list.Model
	mode        panelMode
	app         *coreapp.App
	trendReport *history.TrendReport
	showTrend   bool
	view        engine.View
	snapshot    filter.Snapshot
	teams       []string
	clientIDs   []string
	filterErr   string
	lastUpdate  time.Time
	buildID     string
	operational int
	clients     int
	skipped     int
	excluded    int
}

type panelMode int

const (
	panelTable panelMode = iota
	panelChart
	panelFilters
)

type updateMsg struct {
	buildID     string
	operational int
	clients     int
	skipped     int
	excluded    int
	view        engine.View
	snapshot    filter.Snapshot
	teams       []string
	clientIDs   []string
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyActions(msg, m)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		width := msg.Width - h
		height := msg.Height - v - 8
		if height < 5 {
			height = 5
		}
		m.teamList.SetSize(width, height)
		m.clientList.SetSize(width, height)
	case updateMsg:
		m.buildID = msg.buildID
		m.operational = msg.operational
		m.clients = msg.clients
		m.skipped = msg.skipped
		m.excluded = msg.excluded
		m.view = msg.view
		m.snapshot = msg.snapshot
		m.teams = msg.teams
		m.clientIDs = msg.clientIDs
		m.lastUpdate = time.Now()
		m.filterErr = ""
		m = refreshFilterLists(m)
	}

	var cmd tea.Cmd
	if m.mode == panelFilters {
		if m.snapshot.Mode == filter.ModeClient {
			m.clientList, cmd = m.clientList.Update(msg)
		} else {
			m.teamList, cmd = m.teamList.Update(msg)
		}
	}
	return m, cmd
}

func (m model) View() string {
	build := m.buildID
	if build == "" {
		build = "pending"
	}
	status := statusStyle.Render(fmt.Sprintf("Last build: %v | %s | %d operational | %d client records",
		m.lastUpdate.Format("15:04:05"), build, m.operational, m.clients))

	var summary string
	if m.skipped == 0 {
		summary = successStyle.Render("All rows parsed")
	} else {
		summary = alertStyle.Render(fmt.Sprintf("%d rows skipped", m.skipped))
	}
	if m.excluded > 0 {
		summary += " | " + warnStyle.Render(fmt.Sprintf("%d rows excluded", m.excluded))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Opsboard Service Metrics"), status, summary)
	filters := statusStyle.Render(describeFilters(m.snapshot))
	help := renderHelp(m)

	var body string
	switch m.mode {
	case panelChart:
		body = renderChartPanel(m)
	case panelFilters:
		body = renderFilterPanel(m)
	default:
		body = renderTablePanel(m)
	}
	if m.showTrend {
		body += "\n\n" + renderTrendOverlay(m.trendReport)
	}
	if m.filterErr != "" {
		body += "\n\n" + alertStyle.Render(m.filterErr)
	}

	return docStyle.Render(header + filters + "\n" + help + "\n\n" + body)
}

func refreshFilterLists(m model) model {
	m.teamList.SetItems(selectionItems(m.teams, m.snapshot.Teams))
	m.clientList.SetItems(selectionItems(m.clientIDs, m.snapshot.Clients))
	return m
}

// selectionItems keeps the store's encounter order. An empty selection
// means no filtering, so every identifier reads as shown.
func selectionItems(ids, selected []string) []list.Item {
	chosen := make(map[string]bool, len(selected))
	for _, id := range selected {
		chosen[id] = true
	}

	items := make([]list.Item, 0, len(ids))
	for _, id := range ids {
		desc := "shown"
		switch {
		case chosen[id]:
			desc = "shown ✓"
		case len(chosen) > 0:
			desc = "hidden"
		}
		items = append(items, item{title: id, desc: desc})
	}
	return items
}

func initialModel(app *coreapp.App, trend *history.TrendReport) model {
	teamList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	teamList.Title = "Teams"
	teamList.SetShowStatusBar(false)
	teamList.SetFilteringEnabled(true)

	clientList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	clientList.Title = "Clients"
	clientList.SetShowStatusBar(false)
	clientList.SetFilteringEnabled(true)

	return model{
		teamList:    teamList,
		clientList:  clientList,
		mode:        panelTable,
		app:         app,
		trendReport: trend,
		lastUpdate:  time.Now(),
	}
}
