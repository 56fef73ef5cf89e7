package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nconklindev/stockboard/internal/chart"
	"github.com/nconklindev/stockboard/internal/dashboard"
	"github.com/nconklindev/stockboard/internal/errors"
	"github.com/nconklindev/stockboard/internal/inventory"
	"github.com/nconklindev/stockboard/internal/store"
	"github.com/nconklindev/stockboard/internal/types"
)

func newController(t *testing.T) *dashboard.Controller {
	t.Helper()
	db, err := store.Open("sqlite", filepath.Join(t.TempDir(), "ui.db"), "test")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	c, err := dashboard.New(db, chart.NewTextRenderer(60), inventory.DefaultBuckets(), zap.NewNop())
	require.NoError(t, err)
	return c
}

func newTestModel(t *testing.T, c *dashboard.Controller, tab string) Model {
	t.Helper()
	m, err := NewModel(c, chart.NewTextRenderer(60), zap.NewNop(), tab)
	require.NoError(t, err)
	return m
}

func sampleTable() *types.RawTable {
	return &types.RawTable{
		Headers: []string{"SBU", "Kategori", "Jumlah Stok", "Saldo", "Umur Stok"},
		Rows: [][]any{
			{"A", "OK", 10.0, 1000.0, 30.0},
			{"B", "Site", 4.0, 40.0, 10.0},
		},
	}
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func TestNewModel_EmptyStoreStartsOnPicker(t *testing.T) {
	m := newTestModel(t, newController(t), "")
	assert.Equal(t, stateFilePicker, m.state)
	assert.False(t, m.hasData)
}

func TestNewModel_UnknownTab(t *testing.T) {
	_, err := NewModel(newController(t), chart.NewTextRenderer(60), nil, "gudang")
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestNewModel_DeepLinkToStoredTab(t *testing.T) {
	c := newController(t)
	_, err := c.Analyze(context.Background(), sampleTable())
	require.NoError(t, err)

	m := newTestModel(t, c, "site")

	assert.Equal(t, stateDashboard, m.state)
	require.NotNil(t, m.view)
	assert.Equal(t, "site", m.view.Key)
	assert.Equal(t, 1, m.view.Records)
}

func TestToastExpiry(t *testing.T) {
	m := newTestModel(t, newController(t), "")

	cmd := m.showToast(toastSuccess, "first")
	require.NotNil(t, cmd)
	firstID := m.toast.id
	m.showToast(toastError, "second")

	m, _ = update(t, m, toastExpiredMsg{id: firstID})
	require.NotNil(t, m.toast, "an older timer must not clear a newer toast")
	assert.Equal(t, "second", m.toast.text)

	m, _ = update(t, m, toastExpiredMsg{id: m.toast.id})
	assert.Nil(t, m.toast)
}

func TestFileLoaded(t *testing.T) {
	tests := []struct {
		name      string
		msg       func(seq int) fileLoadedMsg
		wantState state
		wantToast string
	}{
		{
			name:      "Success",
			msg:       func(seq int) fileLoadedMsg { return fileLoadedMsg{seq: seq, path: "stok.xlsx", table: sampleTable()} },
			wantState: statePreview,
			wantToast: "File processed successfully!",
		},
		{
			name:      "Empty file",
			msg:       func(seq int) fileLoadedMsg { return fileLoadedMsg{seq: seq, path: "stok.xlsx", err: errors.EmptyFile()} },
			wantState: stateFilePicker,
			wantToast: "The Excel file appears to be empty",
		},
		{
			name: "Decode failure",
			msg: func(seq int) fileLoadedMsg {
				return fileLoadedMsg{seq: seq, path: "stok.xls", err: errors.DecodeFailure(fmt.Errorf("zip: not a valid zip file"))}
			},
			wantState: stateFilePicker,
			wantToast: "Error processing the Excel file: zip: not a valid zip file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, newController(t), "")
			m.readSeq = 1
			m.reading = true

			m, cmd := update(t, m, tt.msg(1))

			assert.Equal(t, tt.wantState, m.state)
			assert.False(t, m.reading)
			require.NotNil(t, m.toast)
			assert.Equal(t, tt.wantToast, m.toast.text)
			assert.NotNil(t, cmd, "toast dismissal is scheduled")
		})
	}
}

func TestFileLoaded_StaleReadDiscarded(t *testing.T) {
	m := newTestModel(t, newController(t), "")
	m.readSeq = 2
	m.reading = true

	m, cmd := update(t, m, fileLoadedMsg{seq: 1, path: "old.xlsx", table: sampleTable()})

	assert.Nil(t, cmd)
	assert.Equal(t, stateFilePicker, m.state)
	assert.True(t, m.reading, "the newer read is still in flight")
	assert.Nil(t, m.data)
}

func TestAnalyzeFlow(t *testing.T) {
	m := newTestModel(t, newController(t), "")
	m, _ = update(t, m, fileLoadedMsg{seq: 0, path: "stok.xlsx", table: sampleTable()})
	require.Equal(t, statePreview, m.state)
	assert.Contains(t, m.View(), "Showing 2 of 2 rows")

	m, cmd := update(t, m, keyPress("a"))
	require.Equal(t, stateAnalyzing, m.state)
	require.NotNil(t, cmd)

	again, cmd := update(t, m, keyPress("a"))
	assert.Equal(t, stateAnalyzing, again.state)
	assert.Nil(t, cmd, "analyze is ignored while busy")

	msg := m.analyze()()
	m, _ = update(t, m, msg)

	assert.Equal(t, stateDashboard, m.state)
	require.NotNil(t, m.view)
	assert.Equal(t, "ok", m.view.Key)
	assert.Equal(t, "10", m.view.Display.TotalStock)
	assert.Equal(t, "Data analyzed successfully!", m.toast.text)
	assert.True(t, m.hasData)
}

func TestAnalyzeFailureReturnsToPreview(t *testing.T) {
	m := newTestModel(t, newController(t), "")
	m.state = stateAnalyzing
	m.data = sampleTable()

	m, _ = update(t, m, analyzedMsg{err: errors.Wrap(fmt.Errorf("disk full"), "failed to persist tab ok")})

	assert.Equal(t, statePreview, m.state)
	require.NotNil(t, m.toast)
	assert.Equal(t, toastError, m.toast.kind)
}

func TestTabSwitching(t *testing.T) {
	c := newController(t)
	_, err := c.Analyze(context.Background(), sampleTable())
	require.NoError(t, err)
	m := newTestModel(t, c, "")
	require.Equal(t, stateDashboard, m.state)

	m, _ = update(t, m, keyPress("right"))
	assert.Equal(t, inventory.TabKeys[1], m.view.Key)

	m, _ = update(t, m, keyPress("left"))
	m, _ = update(t, m, keyPress("left"))
	assert.Equal(t, inventory.TabKeys[len(inventory.TabKeys)-1], m.view.Key, "wraps to the last tab")

	m, _ = update(t, m, keyPress("u"))
	assert.Equal(t, stateFilePicker, m.state)

	m, _ = update(t, m, keyPress("d"))
	assert.Equal(t, stateDashboard, m.state)
}

func TestPreviewBack(t *testing.T) {
	m := newTestModel(t, newController(t), "")
	m, _ = update(t, m, fileLoadedMsg{seq: 0, path: "stok.xlsx", table: sampleTable()})

	m, _ = update(t, m, keyPress("esc"))
	assert.Equal(t, stateFilePicker, m.state)
}
