package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit key.Binding
	Next key.Binding
	Help key.Binding

	// Simulated hand bindings, shown only when the sim source is active.
	Move     key.Binding
	Depth    key.Binding
	Recenter key.Binding
	Pinch    key.Binding
	Tap      key.Binding
	Wave     key.Binding
	Track    key.Binding

	sim bool
}

func newKeyMap(sim bool) keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
		Next:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "new text")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Move:     key.NewBinding(key.WithKeys("up", "down", "left", "right"), key.WithHelp("←↑↓→", "move hand")),
		Depth:    key.NewBinding(key.WithKeys("w", "s"), key.WithHelp("w/s", "forward/back")),
		Recenter: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "recenter")),
		Pinch:    key.NewBinding(key.WithKeys("j", "k", "l"), key.WithHelp("j/k/l", "pinch middle/index/ring")),
		Tap:      key.NewBinding(key.WithKeys("1", "2", "3"), key.WithHelp("1/2/3", "left tap")),
		Wave:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "wave")),
		Track:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "tracking on/off")),
		sim:      sim,
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	if k.sim {
		return []key.Binding{k.Pinch, k.Move, k.Help, k.Quit}
	}
	return []key.Binding{k.Next, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	cols := [][]key.Binding{{k.Next, k.Help, k.Quit}}
	if k.sim {
		cols = append(cols,
			[]key.Binding{k.Move, k.Depth, k.Recenter},
			[]key.Binding{k.Pinch, k.Tap, k.Wave, k.Track},
		)
	}
	return cols
}
