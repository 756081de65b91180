package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit  key.Binding
	Shake key.Binding
	Clear key.Binding
	Pause key.Binding
	Help  key.Binding
	Cycle key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Shake: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reheat layout"),
	),
	Clear: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "clear selection"),
	),
	Pause: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "pause"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more help"),
	),
	Cycle: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "cycle selection"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Shake, k.Pause, k.Clear, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Shake, k.Pause},
		{k.Cycle, k.Clear},
		{k.Help, k.Quit},
	}
}
