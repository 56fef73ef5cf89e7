package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeStockWorkbook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]any{
		{"SBU", "Kategori", "Jumlah Stok", "Saldo", "Umur Stok"},
		{"01", "Stok OK", 10, 1000, 30},
		{"02", "Stok Produksi", 4, 40, 10},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestAnalyzeCommand_FlagsOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("STOCKBOARD_DB_DRIVER", "mysql")
	t.Setenv("STOCKBOARD_BUCKETS_FILE", "")
	t.Setenv("STOCKBOARD_LOG_LEVEL", "error")

	file := filepath.Join(dir, "stok.xlsx")
	writeStockWorkbook(t, file)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{
		"analyze", file,
		"--db-driver", "sqlite",
		"--db-dsn", filepath.Join(dir, "stockboard.db"),
		"--chart-dir", filepath.Join(dir, "charts"),
	})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "Analyzed 2 records (0 dropped)")
	assert.Contains(t, out.String(), "Stok Produksi")
	assert.FileExists(t, filepath.Join(dir, "charts", "chart-produksi-sbu.png"))
}

func TestAnalyzeCommand_InvalidEnvWithoutOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOCKBOARD_DB_DRIVER", "mysql")
	t.Setenv("STOCKBOARD_BUCKETS_FILE", "")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"analyze", "stok.xlsx"})

	assert.Error(t, root.Execute())
}
