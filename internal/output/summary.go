package output

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"opsboard/internal/engine"
	"opsboard/internal/ingest"
)

// PrintSummary writes the post-build console report. The caller gates
// it on the terminal alert setting.
func PrintSummary(report *ingest.Report, view engine.View, duration time.Duration, artifacts []string) {
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("Update: %d operational, %d client records in %v\n",
		report.OperationalRows, report.ClientRows, duration)
	if report.ExcludedRows > 0 {
		fmt.Printf("   %d summary rows excluded by pattern\n", report.ExcludedRows)
	}

	if len(report.BadRows) > 0 {
		fmt.Printf("⚠️  SKIPPED %d UNPARSEABLE ROWS:\n", len(report.BadRows))
		for _, row := range report.BadRows {
			fmt.Printf("   %s:%d %s\n", row.File, row.Line, row.Reason)
		}
	} else {
		fmt.Println("✅ All rows parsed.")
	}

	if view.Operational != nil && len(view.Operational.Buckets) > 0 {
		top := hoursLeaders(view.Operational.Buckets, 3)
		fmt.Println("📊 Top teams by hours:")
		fmt.Printf("   %s\n", strings.Join(top, ", "))
	}

	if len(artifacts) > 0 {
		fmt.Println("💾 Artifacts:")
		for _, path := range artifacts {
			fmt.Printf("   %s\n", path)
		}
	}
	fmt.Println(strings.Repeat("-", 40))
}

func hoursLeaders(buckets []engine.OperationalBucket, limit int) []string {
	type scoredTeam struct {
		team  string
		hours float64
	}

	byTeam := make(map[string]float64)
	for _, b := range buckets {
		byTeam[b.Team] += b.Hours
	}

	scored := make([]scoredTeam, 0, len(byTeam))
	for team, hours := range byTeam {
		scored = append(scored, scoredTeam{team: team, hours: hours})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].hours == scored[j].hours {
			return scored[i].team < scored[j].team
		}
		return scored[i].hours > scored[j].hours
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	lines := make([]string, 0, len(scored))
	for _, s := range scored {
		lines = append(lines, fmt.Sprintf("%s(%.1f)", s.team, s.hours))
	}
	return lines
}
