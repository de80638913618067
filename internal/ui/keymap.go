package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the window key bindings. Scrolling keys are handled by
// the sensor pane's viewport.
type KeyMap struct {
	Quit key.Binding
	Top  key.Binding
	End  key.Binding
}

// DefaultKeyMap returns the default bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		Top:  key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("home", "top")),
		End:  key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("end", "bottom")),
	}
}

func (k KeyMap) helpLine() string {
	return "↑/↓ scroll • " + k.Top.Help().Key + " " + k.Top.Help().Desc +
		" • " + k.End.Help().Key + " " + k.End.Help().Desc +
		" • " + k.Quit.Help().Key + " " + k.Quit.Help().Desc
}
