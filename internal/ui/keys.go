package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit      key.Binding
	Dashboard key.Binding
	Analyze   key.Binding
	Back      key.Binding
	Next      key.Binding
	Prev      key.Binding
	Upload    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "quit"),
		),
		Dashboard: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "saved dashboard"),
		),
		Analyze: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "analyze"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "pick another file"),
		),
		Next: key.NewBinding(
			key.WithKeys("right", "l", "tab"),
			key.WithHelp("→/tab", "next tab"),
		),
		Prev: key.NewBinding(
			key.WithKeys("left", "h", "shift+tab"),
			key.WithHelp("←", "previous tab"),
		),
		Upload: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "upload file"),
		),
	}
}

// bindings lists the keys shown in the help line for a state.
func (k keyMap) bindings(s state, hasData bool) []key.Binding {
	switch s {
	case stateFilePicker:
		if hasData {
			return []key.Binding{k.Dashboard, k.Quit}
		}
		return []key.Binding{k.Quit}
	case statePreview:
		return []key.Binding{k.Analyze, k.Back, k.Quit}
	case stateDashboard:
		return []key.Binding{k.Prev, k.Next, k.Upload, k.Quit}
	}
	return nil
}
