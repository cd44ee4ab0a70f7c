package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Escape     key.Binding

	// View switching
	ViewPrinters key.Binding
	ViewServer   key.Binding
	ViewTerminal key.Binding
	OpenDetail   key.Binding

	// Printer actions
	RequestFiles key.Binding
	PausePrint   key.Binding
	ResumePrint  key.Binding
	StopPrint    key.Binding
	PinDefault   key.Binding

	// File actions (detail view)
	PrintFile  key.Binding
	DeleteFile key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Modal / input
	Confirm key.Binding
	Deny    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Cycle views"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Cycle views (reverse)"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back to printers"),
		),

		ViewPrinters: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "Printers view"),
		),
		ViewServer: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Server view"),
		),
		ViewTerminal: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "Terminal"),
		),
		OpenDetail: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Open detail"),
		),

		RequestFiles: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Request file list"),
		),
		PausePrint: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "Pause print"),
		),
		ResumePrint: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "Resume print"),
		),
		StopPrint: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "Stop print"),
		),
		PinDefault: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Pin default printer"),
		),

		PrintFile: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Print file"),
		),
		DeleteFile: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Delete file"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y", "Confirm"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n", "Cancel"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ViewPrinters, k.ViewServer, k.ViewTerminal, k.Escape},
		{k.Up, k.Down, k.Top, k.Bottom, k.OpenDetail},
		{k.RequestFiles, k.PausePrint, k.ResumePrint, k.StopPrint, k.PinDefault},
		{k.PrintFile, k.DeleteFile},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
