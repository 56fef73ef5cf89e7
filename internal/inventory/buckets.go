package inventory

import (
	"fmt"
	"strings"

	"github.com/nconklindev/stockboard/internal/types"
)

// TabKeys is the closed set of stock-status tabs in categorization priority order.
var TabKeys = []string{
	"ok", "spprb", "produksi", "distribusi", "lancar", "bebas",
	"titipan-percepatan", "titipan-murni", "op", "ppb", "site",
}

var tabTitles = map[string]string{
	"ok":                 "Stok OK",
	"spprb":              "Stok SPPRB",
	"produksi":           "Stok Produksi",
	"distribusi":         "Distribusi",
	"lancar":             "Lancar",
	"bebas":              "Bebas",
	"titipan-percepatan": "Titipan Percepatan",
	"titipan-murni":      "Titipan Murni",
	"op":                 "OP",
	"ppb":                "PPB",
	"site":               "Site",
}

// DefaultCharts is the chart set every tab shows.
func DefaultCharts() []types.ChartDef {
	return []types.ChartDef{
		{Field: "sbu", Title: "Jumlah Stok per SBU", Kind: types.ChartBar, Mode: types.ModeSum, ValueField: DefaultValueField},
		{Field: "ppb", Title: "Jumlah Stok per PPB", Kind: types.ChartBar, Mode: types.ModeSum, ValueField: DefaultValueField},
		{Field: "tahun", Title: "Jumlah Stok per Tahun", Kind: types.ChartLine, Mode: types.ModeSum, ValueField: DefaultValueField},
		{Field: "range_umur", Title: "Sebaran Range Umur", Kind: types.ChartPie, Mode: types.ModeCount},
	}
}

// DefaultBuckets returns the built-in tab definitions.
func DefaultBuckets() []types.BucketDef {
	defs := make([]types.BucketDef, 0, len(TabKeys))
	for _, key := range TabKeys {
		def := types.BucketDef{
			Key:      key,
			Title:    tabTitles[key],
			Keywords: []string{strings.Replace(key, "-", " ", 1)},
			Charts:   DefaultCharts(),
		}
		if key == "bebas" {
			def.Charts = append(def.Charts, types.ChartDef{
				Field: "proyek", Title: "Bebas per Proyek", Kind: types.ChartBar, Mode: types.ModeSum, ValueField: DefaultValueField,
			})
		}
		defs = append(defs, def)
	}
	return defs
}

// ChartID is the render target for one chart on one tab.
func ChartID(bucketKey, field string) string {
	return "chart-" + bucketKey + "-" + field
}

// ValidateBuckets checks a set of bucket definitions loaded from configuration.
func ValidateBuckets(defs []types.BucketDef) error {
	if len(defs) == 0 {
		return fmt.Errorf("no bucket definitions")
	}
	seen := make(map[string]bool, len(defs))
	for i, def := range defs {
		if strings.TrimSpace(def.Key) == "" {
			return fmt.Errorf("bucket %d has no key", i)
		}
		if seen[def.Key] {
			return fmt.Errorf("duplicate bucket key %q", def.Key)
		}
		seen[def.Key] = true

		fields := make(map[string]bool, len(def.Charts))
		for _, c := range def.Charts {
			if c.Field == "" {
				return fmt.Errorf("bucket %q: chart without a field", def.Key)
			}
			if !c.Kind.Valid() {
				return fmt.Errorf("bucket %q: unknown chart kind %q", def.Key, c.Kind)
			}
			if c.Mode != "" && c.Mode != types.ModeCount && c.Mode != types.ModeSum {
				return fmt.Errorf("bucket %q: unknown aggregate mode %q", def.Key, c.Mode)
			}
			if fields[c.Field] {
				return fmt.Errorf("bucket %q: two charts group by %q", def.Key, c.Field)
			}
			fields[c.Field] = true
		}
	}
	return nil
}
