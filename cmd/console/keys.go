package main

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Continue key.Binding
	Skip     key.Binding
	Up       key.Binding
	Down     key.Binding
	Choose   key.Binding
	Copy     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Continue, k.Skip, k.Choose, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Continue, k.Skip, k.Copy},
		{k.Up, k.Down, k.Choose},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	Continue: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "continue"),
	),
	Skip: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "skip typing"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "previous choice"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "next choice"),
	),
	Choose: key.NewBinding(
		key.WithKeys("enter", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
		key.WithHelp("enter/1-9", "choose"),
	),
	Copy: key.NewBinding(
		key.WithKeys("ctrl+y"),
		key.WithHelp("ctrl+y", "copy line"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc"),
		key.WithHelp("esc", "quit"),
	),
}
