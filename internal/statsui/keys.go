package statsui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit   key.Binding
	Tabs   key.Binding
	Scroll key.Binding
	Window key.Binding
	Layout key.Binding
	Mode   key.Binding
	Chars  key.Binding

	curves bool
}

func newKeyMap() keyMap {
	return keyMap{
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Tabs:   key.NewBinding(key.WithKeys("left", "right", "h", "l"), key.WithHelp("←/→", "tabs")),
		Scroll: key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "scroll")),
		Window: key.NewBinding(key.WithKeys("-", "="), key.WithHelp("-/=", "curve window")),
		Layout: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "layout")),
		Mode:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mode")),
		Chars:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "edit chars")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	b := []key.Binding{k.Tabs, k.Scroll}
	if k.curves {
		b = append(b, k.Chars)
	}
	return append(b, k.Window, k.Layout, k.Mode, k.Quit)
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
