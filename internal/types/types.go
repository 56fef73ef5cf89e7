package types

// RawTable is the decoded first sheet of an uploaded workbook. Cells are
// nil (empty), float64 or string.
type RawTable struct {
	Headers []string
	Rows    [][]any
}

// Record maps canonical field keys to cell values. Absent keys read as empty.
type Record map[string]any

// Series is chart-ready data. Labels are unique and kept in first-occurrence order.
type Series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

func (s Series) Len() int {
	return len(s.Labels)
}

// Empty reports whether the series has no points or only zero values.
func (s Series) Empty() bool {
	for _, v := range s.Values {
		if v != 0 {
			return false
		}
	}
	return true
}

type Metrics struct {
	TotalStock     float64 `json:"totalStock"`
	CurrentBalance float64 `json:"currentBalance"`
	AverageAge     float64 `json:"averageAge"`
}

type ChartKind string

const (
	ChartBar  ChartKind = "bar"
	ChartLine ChartKind = "line"
	ChartPie  ChartKind = "pie"
)

func (k ChartKind) Valid() bool {
	switch k {
	case ChartBar, ChartLine, ChartPie:
		return true
	}
	return false
}

type AggregateMode string

const (
	ModeCount AggregateMode = "count"
	ModeSum   AggregateMode = "sum"
)

// ChartDef describes one chart on a tab: which field to group by and how
// to turn each group into a number.
type ChartDef struct {
	Field      string        `yaml:"field" json:"field"`
	Title      string        `yaml:"title" json:"title"`
	Kind       ChartKind     `yaml:"kind" json:"kind"`
	Mode       AggregateMode `yaml:"mode" json:"mode"`
	ValueField string        `yaml:"value_field,omitempty" json:"valueField,omitempty"`
}

// BucketDef is one dashboard tab. Keywords are matched case-insensitively
// as substrings of a record's category value.
type BucketDef struct {
	Key      string     `yaml:"key" json:"key"`
	Title    string     `yaml:"title" json:"title"`
	Keywords []string   `yaml:"keywords" json:"keywords"`
	Charts   []ChartDef `yaml:"charts" json:"charts"`
}

// Preview is the header row plus the first few data rows of an upload.
type Preview struct {
	Headers   []string   `json:"headers"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"totalRows"`
}
