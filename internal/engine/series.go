package engine

import "opsboard/internal/filter"

// Series is a view reshaped for charting: one label per date or month,
// one named value row per identifier, gaps filled with zero so every
// row has exactly len(Labels) values.
type Series struct {
	Labels []string
	Series []NamedSeries
}

type NamedSeries struct {
	Name   string
	Values []float64
}

// BuildSeries reshapes a view into chart series. Operational rows carry
// worked hours per team (or per employee), client rows carry billed
// hours per client. Labels ascend with the view's bucket order; rows
// appear in the order their identifier first shows up in the buckets.
func BuildSeries(view View) Series {
	switch {
	case view.Operational != nil:
		return operationalSeries(view.Operational)
	case view.Client != nil:
		return clientSeries(view.Client)
	}
	return Series{}
}

func operationalSeries(view *OperationalView) Series {
	labelFor := func(b OperationalBucket) string {
		if view.Granularity == filter.GranularityMonth {
			return b.Date.MonthOf().String()
		}
		return b.Date.String()
	}
	nameFor := func(b OperationalBucket) string {
		if b.Employee != "" {
			return b.Employee + " (" + b.Team + ")"
		}
		return b.Team
	}

	var out Series
	labelIndex := make(map[string]int)
	rowIndex := make(map[string]int)

	// First pass fixes the label axis; buckets are already date-sorted.
	for _, b := range view.Buckets {
		label := labelFor(b)
		if _, ok := labelIndex[label]; !ok {
			labelIndex[label] = len(out.Labels)
			out.Labels = append(out.Labels, label)
		}
	}
	for _, b := range view.Buckets {
		name := nameFor(b)
		row, ok := rowIndex[name]
		if !ok {
			row = len(out.Series)
			rowIndex[name] = row
			out.Series = append(out.Series, NamedSeries{Name: name, Values: make([]float64, len(out.Labels))})
		}
		out.Series[row].Values[labelIndex[labelFor(b)]] += b.Hours
	}
	return out
}

func clientSeries(view *ClientView) Series {
	var out Series
	labelIndex := make(map[string]int)
	rowIndex := make(map[string]int)

	for _, b := range view.Buckets {
		label := b.Month.String()
		if _, ok := labelIndex[label]; !ok {
			labelIndex[label] = len(out.Labels)
			out.Labels = append(out.Labels, label)
		}
	}
	for _, b := range view.Buckets {
		row, ok := rowIndex[b.Client]
		if !ok {
			row = len(out.Series)
			rowIndex[b.Client] = row
			out.Series = append(out.Series, NamedSeries{Name: b.Client, Values: make([]float64, len(out.Labels))})
		}
		out.Series[row].Values[labelIndex[b.Month.String()]] += b.HoursBilled
	}
	return out
}
