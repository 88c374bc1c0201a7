package cliapp

import (
	"time"

	coreapp "opsboard/internal/app"
	"opsboard/internal/history"

	tea "github.com/charmbracelet/bubbletea"
)

// runUI starts the interactive terminal session. It expects one
// successful build to have completed, so the view controller exists.
func runUI(app *coreapp.App) error {
	m := initialModel(app, loadTrend(app))
	p := tea.NewProgram(m, tea.WithAltScreen())

	app.SetUpdateHandler(func(update coreapp.Update) {
		p.Send(buildUpdateMsg(app, update))
	})

	go func() {
		p.Send(buildUpdateMsg(app, app.CurrentUpdate()))
	}()

	_, err := p.Run()
	return err
}

func buildUpdateMsg(app *coreapp.App, update coreapp.Update) updateMsg {
	st := app.Controller.Store()
	return updateMsg{
		buildID:     update.BuildID,
		operational: update.OperationalRecords,
		clients:     update.ClientRecords,
		skipped:     update.SkippedRecords,
		excluded:    update.ExcludedRows,
		view:        app.Controller.Current(),
		snapshot:    app.Filter.Snapshot(),
		teams:       st.Teams(),
		clientIDs:   st.ClientIDs(),
	}
}

func loadTrend(app *coreapp.App) *history.TrendReport {
	report, err := app.TrendReport(time.Time{})
	if err != nil {
		return nil
	}
	return &report
}
