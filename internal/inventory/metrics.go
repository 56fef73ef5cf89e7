package inventory

import (
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/nconklindev/stockboard/internal/types"
)

// ComputeMetrics reduces a bucket to its summary figures. Values are kept
// unrounded; use FormatMetrics for display.
func ComputeMetrics(records []types.Record) types.Metrics {
	stock := make([]float64, len(records))
	balance := make([]float64, len(records))
	age := make([]float64, len(records))
	for i, rec := range records {
		stock[i] = Number(rec["jumlah_stok"])
		balance[i] = Number(rec["saldo"])
		age[i] = Number(rec["umur_stok"])
	}

	m := types.Metrics{
		TotalStock:     floats.Sum(stock),
		CurrentBalance: floats.Sum(balance),
	}
	// Weighted by stock; zero total stock means there is nothing to age.
	if m.TotalStock != 0 {
		m.AverageAge = stat.Mean(age, stock)
	}
	return m
}

// MetricsDisplay is the rounded, human-facing rendition of Metrics.
type MetricsDisplay struct {
	TotalStock     string `json:"totalStock"`
	CurrentBalance string `json:"currentBalance"`
	AverageAge     string `json:"averageAge"`
}

func FormatMetrics(m types.Metrics) MetricsDisplay {
	return MetricsDisplay{
		TotalStock:     decimal.NewFromFloat(m.TotalStock).StringFixed(0),
		CurrentBalance: decimal.NewFromFloat(m.CurrentBalance).StringFixed(2),
		AverageAge:     decimal.NewFromFloat(m.AverageAge).StringFixed(1),
	}
}
