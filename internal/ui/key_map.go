package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	enter     key.Binding
	back      key.Binding
	toggle    key.Binding
	skipBack  key.Binding
	skipAhead key.Binding
	volumeUp  key.Binding
	volumeDn  key.Binding
	rate      key.Binding
	bookmark  key.Binding
	resume    key.Binding
	startOver key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		skipBack:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "back 30s")),
		skipAhead: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "ahead 30s")),
		volumeUp:  key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		volumeDn:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "volume down")),
		rate:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "speed")),
		bookmark:  key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "bookmark")),
		resume:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "resume")),
		startOver: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start over")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.toggle, k.skipBack, k.skipAhead},
		{k.volumeUp, k.volumeDn, k.rate, k.bookmark},
		{k.resume, k.startOver, k.quit},
	}
}
