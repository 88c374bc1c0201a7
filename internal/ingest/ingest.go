package ingest

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"

	"opsboard/internal/config"
	"opsboard/internal/core/errors"
	"opsboard/internal/payload"
)

// Loader reads the CSV sources named in config and produces a payload
// document. Value-level validation (negative metrics, slaMet versus
// slaTotal) happens later in the store; the loader only rejects rows it
// cannot parse at all.
type Loader struct {
	dataDir  string
	sources  config.Sources
	excludes []glob.Glob
	aliases  map[string]string
	calendar map[payload.Month]int
}

// Report counts what a load did. Bad rows never abort a build; they are
// surfaced here and in the build summary.
type Report struct {
	OperationalRows int
	ClientRows      int
	ExcludedRows    int
	BadRows         []BadRow
}

type BadRow struct {
	File   string
	Line   int
	Reason string
}

func (r *Report) badRow(file string, line int, reason string) {
	r.BadRows = append(r.BadRows, BadRow{File: file, Line: line, Reason: reason})
	slog.Warn("skipping unparseable row", "file", file, "line", line, "reason", reason)
}

func NewLoader(cfg *config.Config) (*Loader, error) {
	l := &Loader{
		dataDir: cfg.DataDir,
		sources: cfg.Sources,
		aliases: make(map[string]string, len(cfg.Ingest.Aliases)),
	}

	for _, pattern := range cfg.Ingest.ExcludeRows {
		g, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeIngest, "invalid row exclusion pattern"),
				errors.CtxField, pattern)
		}
		l.excludes = append(l.excludes, g)
	}

	// Alias keys match case-insensitively, like the exclusion globs.
	for from, to := range cfg.Ingest.Aliases {
		l.aliases[strings.ToLower(from)] = to
	}

	calendar, err := cfg.CalendarMonths()
	if err != nil {
		return nil, err
	}
	l.calendar = calendar

	return l, nil
}

// Load reads both sources and assembles a document with a fresh build
// identity. The returned report lists excluded and unparseable rows.
func (l *Loader) Load() (*payload.Document, *Report, error) {
	report := &Report{}
	doc := &payload.Document{
		BuildID:     uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Calendar:    l.calendar,
	}

	operational, err := l.loadOperational(filepath.Join(l.dataDir, l.sources.Operational), report)
	if err != nil {
		return nil, nil, err
	}
	doc.Operational = operational

	clients, err := l.loadClients(filepath.Join(l.dataDir, l.sources.Clients), report)
	if err != nil {
		return nil, nil, err
	}
	doc.Clients = clients

	return doc, report, nil
}

func (l *Loader) excluded(name string) bool {
	folded := strings.ToLower(strings.TrimSpace(name))
	for _, g := range l.excludes {
		if g.Match(folded) {
			return true
		}
	}
	return false
}

func (l *Loader) canonicalClient(name string) string {
	if alias, ok := l.aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return alias
	}
	return name
}

func (l *Loader) loadOperational(path string, report *Report) ([]payload.OperationalRecord, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	cols, err := mapColumns(path, header, "date", "team", "employee", "hours", "tickets", "visits")
	if err != nil {
		return nil, err
	}

	records := make([]payload.OperationalRecord, 0, len(rows))
	for _, row := range rows {
		if l.excluded(row.get(cols["employee"])) {
			report.ExcludedRows++
			continue
		}

		date, err := payload.ParseDate(row.get(cols["date"]))
		if err != nil {
			report.badRow(path, row.line, "bad date")
			continue
		}
		hours, ok := parseFloatCell(row.get(cols["hours"]))
		if !ok {
			report.badRow(path, row.line, "bad number")
			continue
		}
		tickets, ok1 := parseIntCell(row.get(cols["tickets"]))
		visits, ok2 := parseIntCell(row.get(cols["visits"]))
		if !ok1 || !ok2 {
			report.badRow(path, row.line, "bad number")
			continue
		}

		records = append(records, payload.OperationalRecord{
			Date:     date,
			Team:     strings.TrimSpace(row.get(cols["team"])),
			Employee: strings.TrimSpace(row.get(cols["employee"])),
			Hours:    hours,
			Tickets:  tickets,
			Visits:   visits,
		})
		report.OperationalRows++
	}
	return records, nil
}

func (l *Loader) loadClients(path string, report *Report) ([]payload.ClientRecord, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	cols, err := mapColumns(path, header,
		"month", "client", "hours_billed", "tickets_opened", "tickets_closed", "sla_met", "sla_total")
	if err != nil {
		return nil, err
	}
	// Optional column; older exports do not carry it.
	incidentsCol, hasIncidents := findColumn(header, "incidents")

	records := make([]payload.ClientRecord, 0, len(rows))
	for _, row := range rows {
		if l.excluded(row.get(cols["client"])) {
			report.ExcludedRows++
			continue
		}

		month, err := payload.ParseMonth(row.get(cols["month"]))
		if err != nil {
			report.badRow(path, row.line, "bad month")
			continue
		}
		hours, ok := parseFloatCell(row.get(cols["hours_billed"]))
		if !ok {
			report.badRow(path, row.line, "bad number")
			continue
		}
		opened, ok1 := parseIntCell(row.get(cols["tickets_opened"]))
		closed, ok2 := parseIntCell(row.get(cols["tickets_closed"]))
		slaMet, ok3 := parseIntCell(row.get(cols["sla_met"]))
		slaTotal, ok4 := parseIntCell(row.get(cols["sla_total"]))
		if !ok1 || !ok2 || !ok3 || !ok4 {
			report.badRow(path, row.line, "bad number")
			continue
		}

		rec := payload.ClientRecord{
			Month:         month,
			Client:        l.canonicalClient(row.get(cols["client"])),
			HoursBilled:   hours,
			TicketsOpened: opened,
			TicketsClosed: closed,
			SlaMet:        slaMet,
			SlaTotal:      slaTotal,
		}
		if hasIncidents {
			incidents, ok := parseIntCell(row.get(incidentsCol))
			if !ok {
				report.badRow(path, row.line, "bad number")
				continue
			}
			rec.Incidents = incidents
		}

		records = append(records, rec)
		report.ClientRows++
	}
	return records, nil
}

type csvRow struct {
	line   int
	fields []string
}

func (r csvRow) get(col int) string {
	if col < 0 || col >= len(r.fields) {
		return ""
	}
	return r.fields[col]
}

func readCSV(path string) ([]csvRow, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.AddContext(
			errors.Wrap(err, errors.CodeIngest, "cannot open source file"),
			errors.CtxPath, path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, errors.AddContext(
			errors.Wrap(err, errors.CodeIngest, "cannot read header line"),
			errors.CtxPath, path)
	}
	// Excel exports prefix the first header cell with a BOM.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	var rows []csvRow
	line := 1
	for {
		line++
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.AddContext(
				errors.Wrap(err, errors.CodeIngest, "cannot read source file"),
				errors.CtxPath, path)
		}
		rows = append(rows, csvRow{line: line, fields: fields})
	}
	return rows, header, nil
}

func mapColumns(path string, header []string, required ...string) (map[string]int, error) {
	cols := make(map[string]int, len(required))
	for _, name := range required {
		idx, ok := findColumn(header, name)
		if !ok {
			err := errors.New(errors.CodeIngest, "required column missing from header")
			err = errors.AddContext(err, errors.CtxField, name)
			err = errors.AddContext(err, errors.CtxPath, path)
			return nil, err
		}
		cols[name] = idx
	}
	return cols, nil
}

func findColumn(header []string, name string) (int, bool) {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i, true
		}
	}
	return -1, false
}

// parseFloatCell reads a numeric cell. Empty cells are zero, matching
// how the source workbooks leave inactive days blank. Comma decimal
// separators are accepted.
func parseFloatCell(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseIntCell(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}
