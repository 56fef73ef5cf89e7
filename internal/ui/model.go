package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nconklindev/stockboard/internal/chart"
	"github.com/nconklindev/stockboard/internal/dashboard"
	"github.com/nconklindev/stockboard/internal/errors"
	"github.com/nconklindev/stockboard/internal/spreadsheet"
	"github.com/nconklindev/stockboard/internal/types"
)

type state int

const (
	stateFilePicker state = iota
	statePreview
	stateAnalyzing
	stateDashboard
)

const toastDuration = 3 * time.Second

type toastKind int

const (
	toastSuccess toastKind = iota
	toastError
)

type toast struct {
	id   int
	kind toastKind
	text string
}

type Model struct {
	state      state
	filepicker filepicker.Model
	spinner    spinner.Model
	preview    table.Model
	gauge      progress.Model
	help       help.Model
	keys       keyMap

	controller *dashboard.Controller
	text       *chart.TextRenderer
	logger     *zap.Logger

	selectedFile string
	data         *types.RawTable
	summary      types.Preview
	readSeq      int
	reading      bool

	tabs     []types.BucketDef
	active   int
	view     *dashboard.TabView
	analysis *dashboard.Analysis
	hasData  bool

	toast    *toast
	toastSeq int
	width    int
	height   int
}

type fileLoadedMsg struct {
	seq   int
	path  string
	table *types.RawTable
	err   error
}

type analyzedMsg struct {
	analysis *dashboard.Analysis
	err      error
}

type toastExpiredMsg struct {
	id int
}

// NewModel loads every stored tab and opens on the dashboard when any tab
// has data. initialTab, if set, selects the tab shown first.
func NewModel(c *dashboard.Controller, text *chart.TextRenderer, logger *zap.Logger, initialTab string) (Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fp := filepicker.New()
	fp.AllowedTypes = spreadsheet.AllowedExtensions
	fp.CurrentDirectory, _ = os.Getwd()

	// Set filepicker colors to match theme
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C42"))
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB84D"))
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB84D"))
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C42")).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8C42"))

	gauge := progress.New(progress.WithGradient("#FF8C42", "#FF9F5A"), progress.WithWidth(40))

	m := Model{
		state:      stateFilePicker,
		filepicker: fp,
		spinner:    sp,
		gauge:      gauge,
		help:       help.New(),
		keys:       newKeyMap(),
		controller: c,
		text:       text,
		logger:     logger,
		tabs:       c.Buckets(),
	}

	if initialTab != "" {
		idx := m.tabIndex(initialTab)
		if idx < 0 {
			return m, errors.NotFound("tab " + initialTab)
		}
		m.active = idx
	}

	views, err := c.LoadAll(context.Background())
	if err != nil {
		return m, err
	}
	for _, v := range views {
		if v.Records > 0 {
			m.hasData = true
			break
		}
	}
	if m.hasData {
		m.state = stateDashboard
		m.activate()
	}
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Subtract space for title, toast, help text, and padding
		height := msg.Height - 16
		if height < 5 {
			height = 5
		}
		m.filepicker.SetHeight(height)
		m.help.Width = msg.Width
		m.text.SetWidth(m.chartWidth())

		if m.state == stateDashboard {
			return m, m.activate()
		}
		return m, nil

	case toastExpiredMsg:
		if m.toast != nil && m.toast.id == msg.id {
			m.toast = nil
		}
		return m, nil

	case spinner.TickMsg:
		if m.state != stateAnalyzing && !m.reading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case fileLoadedMsg:
		if msg.seq != m.readSeq {
			m.logger.Debug("Discarding superseded file read", zap.String("file", msg.path))
			return m, nil
		}
		m.reading = false
		if msg.err != nil {
			m.logger.Warn("File rejected", zap.String("file", msg.path), zap.Error(msg.err))
			return m, m.showToast(toastError, errors.UserMessage(msg.err))
		}
		m.selectedFile = msg.path
		m.data = msg.table
		m.summary = spreadsheet.NewPreview(msg.table, spreadsheet.PreviewLimit)
		m.preview = newPreviewTable(m.summary)
		m.state = statePreview
		return m, m.showToast(toastSuccess, "File processed successfully!")

	case analyzedMsg:
		if msg.err != nil {
			m.logger.Error("Analysis failed", zap.Error(msg.err))
			m.state = statePreview
			return m, m.showToast(toastError, errors.UserMessage(msg.err))
		}
		m.analysis = msg.analysis
		m.hasData = true
		m.active = m.tabIndex(m.controller.HomeTab())
		m.state = stateDashboard
		return m, tea.Batch(m.activate(), m.showToast(toastSuccess, "Data analyzed successfully!"))

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// The picker also receives its directory listings while another view is shown.
	var cmd tea.Cmd
	m.filepicker, cmd = m.filepicker.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state {
	case stateFilePicker:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Dashboard) && m.hasData:
			m.state = stateDashboard
			return m, m.activate()
		}

		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			m.readSeq++
			m.reading = true
			return m, tea.Batch(cmd, readFile(m.readSeq, path), m.spinner.Tick)
		}
		if didSelect, path := m.filepicker.DidSelectDisabledFile(msg); didSelect {
			return m, tea.Batch(cmd, m.showToast(toastError, errors.UserMessage(errors.InvalidFileType(path))))
		}
		return m, cmd

	case statePreview:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Back):
			m.state = stateFilePicker
			return m, nil
		case key.Matches(msg, m.keys.Analyze):
			if m.data == nil {
				return m, nil
			}
			m.state = stateAnalyzing
			return m, tea.Batch(m.analyze(), m.spinner.Tick)
		}
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return m, cmd

	case stateAnalyzing:
		// Keys wait until the analysis finishes.
		return m, nil

	case stateDashboard:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			m.active = (m.active + 1) % len(m.tabs)
			return m, m.activate()
		case key.Matches(msg, m.keys.Prev):
			m.active = (m.active - 1 + len(m.tabs)) % len(m.tabs)
			return m, m.activate()
		case key.Matches(msg, m.keys.Upload):
			m.state = stateFilePicker
			return m, m.filepicker.Init()
		}
	}
	return m, nil
}

// activate redraws the current tab. Failures become an error toast.
func (m *Model) activate() tea.Cmd {
	view, err := m.controller.Activate(context.Background(), m.tabs[m.active].Key)
	if err != nil {
		m.logger.Error("Tab activation failed", zap.String("tab", m.tabs[m.active].Key), zap.Error(err))
		return m.showToast(toastError, errors.UserMessage(err))
	}
	m.view = view
	return nil
}

func (m *Model) showToast(kind toastKind, text string) tea.Cmd {
	m.toastSeq++
	id := m.toastSeq
	m.toast = &toast{id: id, kind: kind, text: text}
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (m Model) tabIndex(key string) int {
	for i, def := range m.tabs {
		if def.Key == key {
			return i
		}
	}
	return -1
}

func (m Model) chartWidth() int {
	w := m.width/2 - 6
	if m.width < 100 {
		w = m.width - 8
	}
	if w < 30 {
		w = 30
	}
	return w
}

func readFile(seq int, path string) tea.Cmd {
	return func() tea.Msg {
		table, err := spreadsheet.ReadFile(path)
		return fileLoadedMsg{seq: seq, path: path, table: table, err: err}
	}
}

// analyze runs off the update loop. No other controller call happens until
// its analyzedMsg arrives because the analyzing state ignores input.
func (m Model) analyze() tea.Cmd {
	c, data := m.controller, m.data
	return func() tea.Msg {
		a, err := c.Analyze(context.Background(), data)
		return analyzedMsg{analysis: a, err: err}
	}
}

func newPreviewTable(p types.Preview) table.Model {
	cols := make([]table.Column, len(p.Headers))
	for i, h := range p.Headers {
		width := len(h)
		for _, row := range p.Rows {
			if len(row[i]) > width {
				width = len(row[i])
			}
		}
		if width > 20 {
			width = 20
		}
		cols[i] = table.Column{Title: h, Width: width}
	}

	rows := make([]table.Row, len(p.Rows))
	for i, r := range p.Rows {
		rows[i] = table.Row(r)
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(len(rows)+1),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.Foreground(lipgloss.Color("#FF8C42")).Bold(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#FF8C42"))
	t.SetStyles(s)
	return t
}

func (m Model) View() string {
	var body string
	switch m.state {
	case stateFilePicker:
		body = m.viewFilePicker()
	case statePreview:
		body = m.viewPreview()
	case stateAnalyzing:
		body = m.viewAnalyzing()
	case stateDashboard:
		body = m.viewDashboard()
	}

	var s strings.Builder
	title := TitleStyle.Render("📦 Stockboard - Stock Inventory Dashboard")
	authorSpan := SubtitleStyle.Render("by Nick Conklin • ")
	githubSpan := LinkStyle.Render("https://github.com/nconklindev/stockboard")
	s.WriteString(lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinHorizontal(lipgloss.Top, authorSpan, githubSpan)))
	s.WriteString("\n")
	if m.toast != nil {
		if m.toast.kind == toastError {
			s.WriteString(ErrorStyle.Render("✗ " + m.toast.text))
		} else {
			s.WriteString(SuccessStyle.Render("✓ " + m.toast.text))
		}
		s.WriteString("\n")
	}
	s.WriteString("\n")
	s.WriteString(body)
	if bindings := m.keys.bindings(m.state, m.hasData); len(bindings) > 0 {
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render(m.help.ShortHelpView(bindings)))
	}
	return s.String()
}

func (m Model) viewFilePicker() string {
	var s strings.Builder
	s.WriteString(SubtitleStyle.Render("Select an Excel file (.xlsx or .xls) to analyze"))
	s.WriteString("\n")
	if m.reading {
		s.WriteString(m.spinner.View() + " Reading file...")
		s.WriteString("\n\n")
	}
	s.WriteString(m.filepicker.View())
	return s.String()
}

func (m Model) viewPreview() string {
	var s strings.Builder
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("File: %s", filepath.Base(m.selectedFile))))
	s.WriteString("\n")
	s.WriteString(m.preview.View())
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf("Showing %d of %d rows", len(m.summary.Rows), m.summary.TotalRows))
	return BoxStyle.Render(s.String())
}

func (m Model) viewAnalyzing() string {
	var s strings.Builder
	s.WriteString(TitleStyle.Render("Analyzing..."))
	s.WriteString("\n\n")
	s.WriteString(m.spinner.View() + fmt.Sprintf(" Categorizing %d rows and saving every tab", len(m.data.Rows)))
	return BoxStyle.Render(s.String())
}

func (m Model) viewDashboard() string {
	var s strings.Builder

	tabs := make([]string, len(m.tabs))
	for i, def := range m.tabs {
		if i == m.active {
			tabs[i] = ActiveTabStyle.Render(def.Title)
		} else {
			tabs[i] = TabStyle.Render(def.Title)
		}
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	s.WriteString("\n\n")

	if m.view == nil {
		return s.String()
	}

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		metricCard("Total Stock", m.view.Display.TotalStock),
		metricCard("Current Balance", m.view.Display.CurrentBalance),
		metricCard("Average Age", m.view.Display.AverageAge),
	))
	s.WriteString("\n")

	if m.analysis != nil && m.analysis.Records > 0 {
		share := float64(m.view.Records) / float64(m.analysis.Records)
		s.WriteString(fmt.Sprintf("%s  %d of %d records\n", m.gauge.ViewAs(share), m.view.Records, m.analysis.Records))
	} else {
		s.WriteString(fmt.Sprintf("%d records\n", m.view.Records))
	}
	s.WriteString("\n")

	boxes := make([]string, 0, len(m.view.Charts))
	for _, cv := range m.view.Charts {
		boxes = append(boxes, ChartBoxStyle.Render(SubtitleStyle.Render(cv.Title)+"\n"+m.text.View(cv.ID)))
	}
	if m.width >= 100 {
		for i := 0; i < len(boxes); i += 2 {
			row := boxes[i:min(i+2, len(boxes))]
			s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, row...))
			s.WriteString("\n")
		}
	} else {
		s.WriteString(lipgloss.JoinVertical(lipgloss.Left, boxes...))
	}
	return s.String()
}

func metricCard(label, value string) string {
	return MetricCardStyle.Render(label + "\n" + MetricValueStyle.Render(value))
}
