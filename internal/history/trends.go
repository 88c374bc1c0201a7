package history

import (
	"fmt"
	"math"
	"time"
)

// BuildTrendReport turns an ordered snapshot series into per-build
// deltas plus moving averages of the two data-quality signals, skipped
// rows and ticket backlog.
func BuildTrendReport(datasetKey string, snapshots []Snapshot, window time.Duration) (TrendReport, error) {
	if len(snapshots) == 0 {
		return TrendReport{}, fmt.Errorf("no snapshots available")
	}

	points := make([]TrendPoint, 0, len(snapshots))
	for i, current := range snapshots {
		point := TrendPoint{
			Timestamp:          current.Timestamp,
			BuildID:            current.BuildID,
			OperationalRecords: current.OperationalRecords,
			ClientRecords:      current.ClientRecords,
			SkippedRecords:     current.SkippedRecords,
			TeamCount:          current.TeamCount,
			ClientCount:        current.ClientCount,
			TotalHours:         current.TotalHours,
			TotalHoursBilled:   current.TotalHoursBilled,
			BacklogTotal:       current.BacklogTotal,
		}
		point.SlaRatio, point.HasSla = slaRatio(current)

		if i > 0 {
			prev := snapshots[i-1]
			point.DeltaOperational = current.OperationalRecords - prev.OperationalRecords
			point.DeltaClients = current.ClientRecords - prev.ClientRecords
			point.DeltaSkipped = current.SkippedRecords - prev.SkippedRecords
			point.DeltaHours = current.TotalHours - prev.TotalHours
			point.DeltaHoursBilled = current.TotalHoursBilled - prev.TotalHoursBilled
			point.DeltaBacklog = current.BacklogTotal - prev.BacklogTotal
			if prevRatio, prevHas := slaRatio(prev); prevHas && point.HasSla {
				point.DeltaSlaRatio = point.SlaRatio - prevRatio
			}
			if prev.OperationalRecords > 0 {
				point.RecordGrowthPct = (float64(point.DeltaOperational) / float64(prev.OperationalRecords)) * 100
			}
		}

		avgSkipped, avgBacklog := movingAverages(snapshots, i, window)
		point.AvgSkipped = round2(avgSkipped)
		point.AvgBacklog = round2(avgBacklog)
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		SchemaVersion: SchemaVersion,
		DatasetKey:    datasetKey,
		Since:         snapshots[0].Timestamp,
		Until:         snapshots[len(snapshots)-1].Timestamp,
		Window:        window.String(),
		BuildCount:    len(points),
		Points:        points,
	}, nil
}

func slaRatio(s Snapshot) (float64, bool) {
	if s.SlaTotal <= 0 {
		return 0, false
	}
	return float64(s.SlaMet) / float64(s.SlaTotal), true
}

func movingAverages(snapshots []Snapshot, index int, window time.Duration) (float64, float64) {
	if window <= 0 {
		return float64(snapshots[index].SkippedRecords), float64(snapshots[index].BacklogTotal)
	}

	cutoff := snapshots[index].Timestamp.Add(-window)
	var skippedTotal int
	var backlogTotal int
	count := 0
	for i := index; i >= 0; i-- {
		if snapshots[i].Timestamp.Before(cutoff) {
			break
		}
		skippedTotal += snapshots[i].SkippedRecords
		backlogTotal += snapshots[i].BacklogTotal
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return float64(skippedTotal) / float64(count), float64(backlogTotal) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
