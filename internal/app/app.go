// # internal/app/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"opsboard/internal/assemble"
	"opsboard/internal/config"
	"opsboard/internal/controller"
	"opsboard/internal/engine"
	"opsboard/internal/filter"
	"opsboard/internal/history"
	"opsboard/internal/ingest"
	"opsboard/internal/output"
	"opsboard/internal/payload"
	"opsboard/internal/shared/observability"
	"opsboard/internal/shared/util"
	"opsboard/internal/store"
	"opsboard/internal/watcher"
)

// Update is the per-build digest pushed to whoever registered a
// handler, typically the terminal UI's status line.
type Update struct {
	BuildID            string
	GeneratedAt        time.Time
	OperationalRecords int
	ClientRecords      int
	SkippedRecords     int
	ExcludedRows       int
	Duration           time.Duration
}

// App owns the build pipeline: ingest the spreadsheets, assemble the
// payload, refresh the record store behind the interactive controller
// and write the artifacts. Rebuilds preserve the live filter state.
type App struct {
	Config     *config.Config
	Loader     *ingest.Loader
	Filter     *filter.State
	Controller *controller.Controller

	historyStore *history.Store
	limiter      *util.Limiter
	fsWatcher    *watcher.Watcher

	updateMu sync.RWMutex
	onUpdate func(Update)

	// Serializes builds; watcher callbacks and manual refreshes may race.
	buildMu sync.Mutex

	healthMu   sync.RWMutex
	lastUpdate Update
	lastErr    error
}

func New(cfg *config.Config) (*App, error) {
	loader, err := ingest.NewLoader(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config: cfg,
		Loader: loader,
	}

	rate := float64(cfg.Watch.MaxRebuildsPerMinute) / 60.0
	a.limiter = util.NewLimiter(rate, 2)

	if cfg.History.Enabled {
		hs, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		a.historyStore = hs
	}

	return a, nil
}

func (a *App) SetUpdateHandler(handler func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

func (a *App) CurrentUpdate() Update {
	a.healthMu.RLock()
	defer a.healthMu.RUnlock()
	return a.lastUpdate
}

func (a *App) emitUpdate(update Update) {
	a.updateMu.RLock()
	handler := a.onUpdate
	a.updateMu.RUnlock()
	if handler != nil {
		handler(update)
	}
}

// Build runs one full pass over the data directory. The first build
// creates the filter state and controller; later builds swap the new
// store in underneath them, keeping the operator's selections.
func (a *App) Build(ctx context.Context) error {
	a.buildMu.Lock()
	defer a.buildMu.Unlock()

	ctx, span := observability.Tracer.Start(ctx, "build")
	defer span.End()
	start := time.Now()

	stage := time.Now()
	_, ingestSpan := observability.Tracer.Start(ctx, "build.ingest")
	doc, report, err := a.Loader.Load()
	ingestSpan.End()
	observability.BuildDuration.WithLabelValues("ingest").Observe(time.Since(stage).Seconds())
	if err != nil {
		a.recordFailure(err)
		return err
	}

	stage = time.Now()
	st, loadRep := store.FromDocument(doc)
	observability.BuildDuration.WithLabelValues("store").Observe(time.Since(stage).Seconds())

	observability.RecordsLoaded.WithLabelValues("operational").Set(float64(st.OperationalCount()))
	observability.RecordsLoaded.WithLabelValues("clients").Set(float64(st.ClientCount()))
	for _, s := range loadRep.Skipped {
		observability.RecordsSkippedTotal.WithLabelValues(s.Collection, s.Reason).Inc()
	}
	skipped := len(report.BadRows) + loadRep.SkippedTotal()

	if a.Controller == nil {
		a.Filter = filter.NewState(st)
		a.Controller = controller.New(st, a.Filter)
	} else {
		a.Controller.ReplaceStore(st)
	}

	stage = time.Now()
	_, renderSpan := observability.Tracer.Start(ctx, "build.artifacts")
	artifacts, artifactBytes, err := a.GenerateOutputs(doc, st)
	renderSpan.End()
	observability.BuildDuration.WithLabelValues("artifacts").Observe(time.Since(stage).Seconds())
	if err != nil {
		a.recordFailure(err)
		return err
	}

	duration := time.Since(start)
	update := Update{
		BuildID:            doc.BuildID,
		GeneratedAt:        doc.GeneratedAt,
		OperationalRecords: st.OperationalCount(),
		ClientRecords:      st.ClientCount(),
		SkippedRecords:     skipped,
		ExcludedRows:       report.ExcludedRows,
		Duration:           duration,
	}

	a.recordHistory(doc, st, update, artifactBytes)

	a.healthMu.Lock()
	a.lastUpdate = update
	a.lastErr = nil
	a.healthMu.Unlock()

	observability.RebuildsTotal.Inc()
	slog.Info("build complete",
		"build_id", doc.BuildID,
		"operational", st.OperationalCount(),
		"clients", st.ClientCount(),
		"skipped", skipped,
		"duration", duration)

	if a.Config.Alerts.Terminal {
		output.PrintSummary(report, a.defaultView(st, filter.ModeOperational), duration, artifacts)
	}
	if a.Config.Alerts.Beep && skipped > 0 {
		fmt.Print("\a")
	}

	a.emitUpdate(update)
	return nil
}

// GenerateOutputs writes the dashboard, the payload and, when
// configured, the TSV export and the published copy. Artifacts always
// reflect the whole dataset under default filters, not whatever the
// interactive session currently shows.
func (a *App) GenerateOutputs(doc *payload.Document, st *store.Store) ([]string, int64, error) {
	html, err := assemble.Generate(doc)
	if err != nil {
		return nil, 0, err
	}
	if err := assemble.Write(a.Config.Output.HTML, html); err != nil {
		return nil, 0, fmt.Errorf("write dashboard %q: %w", a.Config.Output.HTML, err)
	}
	artifacts := []string{a.Config.Output.HTML}
	artifactBytes := int64(len(html))
	observability.ArtifactBytes.Set(float64(artifactBytes))

	if err := output.WritePayload(a.Config.Output.Payload, doc); err != nil {
		return nil, 0, fmt.Errorf("write payload %q: %w", a.Config.Output.Payload, err)
	}
	artifacts = append(artifacts, a.Config.Output.Payload)

	if a.Config.Output.TSV != "" {
		tsv, err := a.generateTSV(st)
		if err != nil {
			return nil, 0, fmt.Errorf("generate TSV output: %w", err)
		}
		if err := util.WriteStringWithDirs(a.Config.Output.TSV, tsv, 0644); err != nil {
			return nil, 0, fmt.Errorf("write TSV output %q: %w", a.Config.Output.TSV, err)
		}
		artifacts = append(artifacts, a.Config.Output.TSV)
	}

	if a.Config.Output.PublishDir != "" {
		dest, err := assemble.Publish(a.Config.Output.HTML, a.Config.Output.PublishDir)
		if err != nil {
			return nil, 0, fmt.Errorf("publish dashboard: %w", err)
		}
		artifacts = append(artifacts, dest)
	}

	return artifacts, artifactBytes, nil
}

// The TSV artifact stacks both modes, operational block first, a blank
// line between them.
func (a *App) generateTSV(st *store.Store) (string, error) {
	opTSV, err := output.NewTSVGenerator(a.defaultView(st, filter.ModeOperational)).Generate()
	if err != nil {
		return "", err
	}
	clientTSV, err := output.NewTSVGenerator(a.defaultView(st, filter.ModeClient)).Generate()
	if err != nil {
		return "", err
	}
	return opTSV + "\n" + clientTSV, nil
}

func (a *App) defaultView(st *store.Store, mode filter.Mode) engine.View {
	snap := filter.NewState(st).Snapshot()
	snap.Mode = mode
	return engine.Aggregate(st, snap)
}

func (a *App) recordHistory(doc *payload.Document, st *store.Store, update Update, artifactBytes int64) {
	if a.historyStore == nil {
		return
	}

	opTotals := a.defaultView(st, filter.ModeOperational)
	clTotals := a.defaultView(st, filter.ModeClient)

	snapshot := history.Snapshot{
		Timestamp:          doc.GeneratedAt,
		BuildID:            doc.BuildID,
		OperationalRecords: update.OperationalRecords,
		ClientRecords:      update.ClientRecords,
		SkippedRecords:     update.SkippedRecords,
		ExcludedRows:       update.ExcludedRows,
		TeamCount:          len(st.Teams()),
		ClientCount:        len(st.ClientIDs()),
		ArtifactBytes:      artifactBytes,
	}
	if opTotals.Operational != nil {
		snapshot.TotalHours = opTotals.Operational.Totals.Hours
	}
	if clTotals.Client != nil {
		snapshot.TotalHoursBilled = clTotals.Client.Totals.HoursBilled
		snapshot.BacklogTotal = clTotals.Client.Totals.Backlog
		snapshot.SlaMet = clTotals.Client.Totals.SlaMet
		snapshot.SlaTotal = clTotals.Client.Totals.SlaTotal
	}

	if err := a.historyStore.SaveSnapshot(a.Config.DataDir, snapshot); err != nil {
		slog.Warn("failed to record build history", "error", err)
	}
}

// TrendReport loads the persisted build series for this data directory
// and derives deltas over the configured window.
func (a *App) TrendReport(since time.Time) (history.TrendReport, error) {
	if a.historyStore == nil {
		return history.TrendReport{}, fmt.Errorf("history is disabled")
	}
	snapshots, err := a.historyStore.LoadSnapshots(a.Config.DataDir, since)
	if err != nil {
		return history.TrendReport{}, err
	}
	window := time.Duration(a.Config.History.TrendWindow) * 24 * time.Hour
	return history.BuildTrendReport(a.Config.DataDir, snapshots, window)
}

func (a *App) StartWatcher(ctx context.Context) error {
	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Watch.ExcludeDirs,
		a.Config.Watch.ExcludeFiles,
		func(paths []string) { a.HandleChanges(ctx, paths) },
	)
	if err != nil {
		return err
	}
	a.fsWatcher = w
	return w.Watch([]string{a.Config.DataDir})
}

func (a *App) HandleChanges(ctx context.Context, paths []string) {
	slog.Info("detected changes", "count", len(paths))
	observability.WatcherEventsTotal.Add(float64(len(paths)))

	if !a.limiter.Allow(1) {
		slog.Warn("rebuild rate limit reached, skipping", "changes", len(paths))
		return
	}

	if err := a.Build(ctx); err != nil {
		slog.Error("rebuild failed", "error", err)
	}
}

// Check implements the observability health endpoint.
func (a *App) Check(ctx context.Context) observability.HealthStatus {
	a.healthMu.RLock()
	defer a.healthMu.RUnlock()

	status := "up"
	switch {
	case a.lastErr != nil:
		status = "degraded"
	case a.lastUpdate.BuildID == "":
		status = "starting"
	}

	return observability.HealthStatus{
		Status:             status,
		BuildID:            a.lastUpdate.BuildID,
		LastBuild:          a.lastUpdate.GeneratedAt,
		OperationalRecords: a.lastUpdate.OperationalRecords,
		ClientRecords:      a.lastUpdate.ClientRecords,
		SkippedRecords:     a.lastUpdate.SkippedRecords,
		HeapAllocMB:        util.GetHeapAllocMB(),
	}
}

func (a *App) recordFailure(err error) {
	a.healthMu.Lock()
	a.lastErr = err
	a.healthMu.Unlock()
}

func (a *App) Close() error {
	if a.fsWatcher != nil {
		if err := a.fsWatcher.Close(); err != nil {
			slog.Warn("failed to close watcher", "error", err)
		}
	}
	if a.Controller != nil {
		a.Controller.Close()
	}
	if a.historyStore != nil {
		return a.historyStore.Close()
	}
	return nil
}
