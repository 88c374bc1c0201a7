package history

import "time"

const SchemaVersion = 1

// Snapshot is one build's footprint: how much data came in, how much
// was dropped, and the headline totals of both collections. SlaMet and
// SlaTotal stay as raw sums so later ratio math can divide once.
type Snapshot struct {
	SchemaVersion      int       `json:"schema_version"`
	DatasetKey         string    `json:"dataset_key,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
	BuildID            string    `json:"build_id,omitempty"`
	OperationalRecords int       `json:"operational_records"`
	ClientRecords      int       `json:"client_records"`
	SkippedRecords     int       `json:"skipped_records"`
	ExcludedRows       int       `json:"excluded_rows"`
	TeamCount          int       `json:"team_count"`
	ClientCount        int       `json:"client_count"`
	TotalHours         float64   `json:"total_hours"`
	TotalHoursBilled   float64   `json:"total_hours_billed"`
	BacklogTotal       int       `json:"backlog_total"`
	SlaMet             int       `json:"sla_met"`
	SlaTotal           int       `json:"sla_total"`
	ArtifactBytes      int64     `json:"artifact_bytes"`
}

type TrendPoint struct {
	Timestamp          time.Time `json:"timestamp"`
	BuildID            string    `json:"build_id,omitempty"`
	OperationalRecords int       `json:"operational_records"`
	ClientRecords      int       `json:"client_records"`
	SkippedRecords     int       `json:"skipped_records"`
	TeamCount          int       `json:"team_count"`
	ClientCount        int       `json:"client_count"`
	TotalHours         float64   `json:"total_hours"`
	TotalHoursBilled   float64   `json:"total_hours_billed"`
	BacklogTotal       int       `json:"backlog_total"`
	SlaRatio           float64   `json:"sla_ratio"`
	HasSla             bool      `json:"has_sla"`
	DeltaOperational   int       `json:"delta_operational"`
	DeltaClients       int       `json:"delta_clients"`
	DeltaSkipped       int       `json:"delta_skipped"`
	DeltaHours         float64   `json:"delta_hours"`
	DeltaHoursBilled   float64   `json:"delta_hours_billed"`
	DeltaBacklog       int       `json:"delta_backlog"`
	DeltaSlaRatio      float64   `json:"delta_sla_ratio"`
	RecordGrowthPct    float64   `json:"record_growth_pct"`
	AvgSkipped         float64   `json:"avg_skipped"`
	AvgBacklog         float64   `json:"avg_backlog"`
	WindowHours        float64   `json:"window_hours"`
}

type TrendReport struct {
	SchemaVersion int          `json:"schema_version"`
	DatasetKey    string       `json:"dataset_key,omitempty"`
	Since         time.Time    `json:"since"`
	Until         time.Time    `json:"until"`
	Window        string       `json:"window"`
	BuildCount    int          `json:"build_count"`
	Points        []TrendPoint `json:"points"`
}
