// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the catalog TUI.
type KeyMap struct {
	Up   key.Binding
	Down key.Binding
	Open key.Binding
	Back key.Binding

	// List screen.
	Query  key.Binding
	Filter key.Binding
	Reset  key.Binding
	Next   key.Binding
	Prev   key.Binding

	// Detail screen.
	Notify       key.Binding
	NextProvider key.Binding
	PrevProvider key.Binding
	Annotation   key.Binding

	// Toasts.
	OpenToast    key.Binding
	DismissToast key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Up:   key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
	Down: key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
	Open: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Back: key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),

	Query:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Filter: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
	Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
	Next:   key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n", "next page")),
	Prev:   key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p", "prev page")),

	Notify:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "notify")),
	NextProvider: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next provider")),
	PrevProvider: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev provider")),
	Annotation:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "annotation")),

	OpenToast:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open toast")),
	DismissToast: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss toast")),

	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k KeyMap) listHelp() []key.Binding {
	return []key.Binding{k.Query, k.Filter, k.Reset, k.Prev, k.Next, k.Open, k.OpenToast, k.DismissToast, k.Quit}
}

func (k KeyMap) detailHelp() []key.Binding {
	return []key.Binding{k.Notify, k.PrevProvider, k.NextProvider, k.Annotation, k.Back, k.OpenToast, k.DismissToast, k.Quit}
}
