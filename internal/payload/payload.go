package payload

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Document is the snapshot payload embedded into the dashboard artifact.
// It is the only data contract between the offline builder and any
// renderer; producers may add optional fields but never rename or retype
// existing ones.
type Document struct {
	GeneratedAt time.Time           `json:"generated_at"`
	BuildID     string              `json:"build_id"`
	Operational []OperationalRecord `json:"operational"`
	Clients     []ClientRecord      `json:"clients"`
	Calendar    map[Month]int       `json:"calendar,omitempty"`
}

// OperationalRecord is one employee's workload on one calendar day.
type OperationalRecord struct {
	Date     Date    `json:"date"`
	Team     string  `json:"team"`
	Employee string  `json:"employee"`
	Hours    float64 `json:"hours"`
	Tickets  int     `json:"tickets"`
	Visits   int     `json:"visits"`
}

// ClientRecord is one client's service totals for one month. SlaMet and
// SlaTotal are raw counters; ratios are always derived downstream from
// summed counters, never stored.
type ClientRecord struct {
	Month         Month   `json:"month"`
	Client        string  `json:"client"`
	HoursBilled   float64 `json:"hours_billed"`
	TicketsOpened int     `json:"tickets_opened"`
	TicketsClosed int     `json:"tickets_closed"`
	SlaMet        int     `json:"sla_met"`
	SlaTotal      int     `json:"sla_total"`
	Incidents     int     `json:"incidents,omitempty"`
}

// Skip reasons reported by record validation.
const (
	ReasonBadDate            = "bad date"
	ReasonBadMonth           = "bad month"
	ReasonEmptyTeam          = "empty team"
	ReasonEmptyEmployee      = "empty employee"
	ReasonEmptyClient        = "empty client"
	ReasonNegativeMetric     = "negative metric"
	ReasonSlaMetExceedsTotal = "sla met exceeds total"
	ReasonUndecodable        = "undecodable record"
)

// ValidateOperational reports why a record must be skipped, or "" when it
// is well formed.
func ValidateOperational(rec OperationalRecord) string {
	switch {
	case rec.Date.IsZero():
		return ReasonBadDate
	case strings.TrimSpace(rec.Team) == "":
		return ReasonEmptyTeam
	case strings.TrimSpace(rec.Employee) == "":
		return ReasonEmptyEmployee
	case rec.Hours < 0 || rec.Tickets < 0 || rec.Visits < 0:
		return ReasonNegativeMetric
	}
	return ""
}

// ValidateClient reports why a record must be skipped, or "" when it is
// well formed.
func ValidateClient(rec ClientRecord) string {
	switch {
	case rec.Month.IsZero():
		return ReasonBadMonth
	case strings.TrimSpace(rec.Client) == "":
		return ReasonEmptyClient
	case rec.HoursBilled < 0 || rec.TicketsOpened < 0 || rec.TicketsClosed < 0 ||
		rec.SlaMet < 0 || rec.SlaTotal < 0 || rec.Incidents < 0:
		return ReasonNegativeMetric
	case rec.SlaMet > rec.SlaTotal:
		return ReasonSlaMetExceedsTotal
	}
	return ""
}

// Marshal encodes the document compactly for embedding and for the
// payload JSON artifact.
func Marshal(doc *Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return data, nil
}
