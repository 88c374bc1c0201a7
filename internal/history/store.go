package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SaveSnapshot(datasetKey string, snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	datasetKey = strings.TrimSpace(datasetKey)
	if datasetKey == "" {
		datasetKey = "default"
	}

	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now().UTC()
	}
	if snapshot.SchemaVersion == 0 {
		snapshot.SchemaVersion = SchemaVersion
	}
	if snapshot.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported snapshot schema version %d", snapshot.SchemaVersion)
	}

	query := `
INSERT INTO snapshots (
  dataset_key, schema_version, ts_utc, build_id, operational_records, client_records,
  skipped_records, excluded_rows, team_count, client_count, total_hours,
  total_hours_billed, backlog_total, sla_met, sla_total, artifact_bytes
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(dataset_key, ts_utc, build_id) DO UPDATE SET
  schema_version=excluded.schema_version,
  operational_records=excluded.operational_records,
  client_records=excluded.client_records,
  skipped_records=excluded.skipped_records,
  excluded_rows=excluded.excluded_rows,
  team_count=excluded.team_count,
  client_count=excluded.client_count,
  total_hours=excluded.total_hours,
  total_hours_billed=excluded.total_hours_billed,
  backlog_total=excluded.backlog_total,
  sla_met=excluded.sla_met,
  sla_total=excluded.sla_total,
  artifact_bytes=excluded.artifact_bytes
`
	return s.withRetry("save snapshot", func() error {
		_, err := s.db.Exec(
			query,
			datasetKey,
			snapshot.SchemaVersion,
			snapshot.Timestamp.UTC().Format(time.RFC3339Nano),
			snapshot.BuildID,
			snapshot.OperationalRecords,
			snapshot.ClientRecords,
			snapshot.SkippedRecords,
			snapshot.ExcludedRows,
			snapshot.TeamCount,
			snapshot.ClientCount,
			snapshot.TotalHours,
			snapshot.TotalHoursBilled,
			snapshot.BacklogTotal,
			snapshot.SlaMet,
			snapshot.SlaTotal,
			snapshot.ArtifactBytes,
		)
		return err
	})
}

func (s *Store) LoadSnapshots(datasetKey string, since time.Time) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	datasetKey = strings.TrimSpace(datasetKey)
	if datasetKey == "" {
		datasetKey = "default"
	}

	base := `
SELECT
  dataset_key, schema_version, ts_utc, build_id, operational_records, client_records,
  skipped_records, excluded_rows, team_count, client_count, total_hours,
  total_hours_billed, backlog_total, sla_met, sla_total, artifact_bytes
FROM snapshots
`
	base += " WHERE dataset_key = ?"
	args := make([]any, 0, 2)
	args = append(args, datasetKey)
	if !since.IsZero() {
		base += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	base += " ORDER BY ts_utc ASC, build_id ASC"

	var rows *sql.Rows
	err := s.withRetry("load snapshots", func() error {
		var qErr error
		rows, qErr = s.db.Query(base, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0)
	for rows.Next() {
		var (
			tsRaw    string
			snapshot Snapshot
		)
		if err := rows.Scan(
			&snapshot.DatasetKey,
			&snapshot.SchemaVersion,
			&tsRaw,
			&snapshot.BuildID,
			&snapshot.OperationalRecords,
			&snapshot.ClientRecords,
			&snapshot.SkippedRecords,
			&snapshot.ExcludedRows,
			&snapshot.TeamCount,
			&snapshot.ClientCount,
			&snapshot.TotalHours,
			&snapshot.TotalHoursBilled,
			&snapshot.BacklogTotal,
			&snapshot.SlaMet,
			&snapshot.SlaTotal,
			&snapshot.ArtifactBytes,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot timestamp %q: %w", tsRaw, err)
		}
		snapshot.Timestamp = ts.UTC()

		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snapshots, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
