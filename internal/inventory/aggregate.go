package inventory

import "github.com/nconklindev/stockboard/internal/types"

// OtherLabel groups records whose grouping field is missing or empty.
const OtherLabel = "Lainnya"

// DefaultValueField is summed when a sum-mode chart names no value field.
const DefaultValueField = "jumlah_stok"

// Aggregation selects how a group of records becomes a number.
type Aggregation struct {
	Mode       types.AggregateMode
	ValueField string
}

// Count counts records per label.
func Count() Aggregation {
	return Aggregation{Mode: types.ModeCount}
}

// SumOf sums a numeric field per label; unparseable values add 0.
func SumOf(field string) Aggregation {
	return Aggregation{Mode: types.ModeSum, ValueField: field}
}

// AggregationFor derives the aggregation a chart definition asks for.
func AggregationFor(def types.ChartDef) Aggregation {
	if def.Mode == types.ModeCount {
		return Count()
	}
	field := def.ValueField
	if field == "" {
		field = DefaultValueField
	}
	return SumOf(field)
}

// Aggregate groups records by groupField. Labels appear in the order they
// are first seen.
func Aggregate(records []types.Record, groupField string, agg Aggregation) types.Series {
	index := make(map[string]int)
	var s types.Series

	for _, rec := range records {
		label, ok := Text(rec[groupField])
		if !ok {
			label = OtherLabel
		}

		i, seen := index[label]
		if !seen {
			i = len(s.Labels)
			index[label] = i
			s.Labels = append(s.Labels, label)
			s.Values = append(s.Values, 0)
		}

		switch agg.Mode {
		case types.ModeSum:
			s.Values[i] += Number(rec[agg.ValueField])
		default:
			s.Values[i]++
		}
	}

	if s.Labels == nil {
		s.Labels = []string{}
		s.Values = []float64{}
	}
	return s
}
