// Package ui renders the chitview terminal client with Bubble Tea.
//
// The Model is a single Bubble Tea program with four views: the printer
// table (split with a summary pane), a per-printer detail view, the server
// status view, and an SDCP terminal. State arrives exclusively through
// state.Store snapshots on a one second tick; printer commands leave
// through the realtime socket. Destructive actions (pause, stop, print,
// delete) go through a y/n confirm modal.
//
// Three selectable color themes live in theme.go; the chosen theme and the
// pinned default printer persist via the prefs package.
package ui
