package tui

import "github.com/charmbracelet/bubbles/key"

type timerKeyMap struct {
	Pause   key.Binding
	Stop    key.Binding
	Quit    key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

func (k timerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Stop, k.Quit}
}

func (k timerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Pause, k.Stop, k.Quit}, {k.Confirm, k.Cancel}}
}

func defaultTimerKeys() timerKeyMap {
	return timerKeyMap{
		Pause: key.NewBinding(
			key.WithKeys("p", " "),
			key.WithHelp("p", "pause/resume"),
		),
		Stop: key.NewBinding(
			key.WithKeys("s", "S"),
			key.WithHelp("s", "give up"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y", "enter"),
			key.WithHelp("y", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "keep going"),
		),
	}
}
