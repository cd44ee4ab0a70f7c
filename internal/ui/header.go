package ui

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/fennle/chitview/internal/chitui"
)

// renderHeader renders the status bar: logo, socket state, printer counts
// and last-update age.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	var parts []string

	parts = append(parts, bg.Render("chitview", styles.Logo))

	// Socket state dot. Offline wins over a flapping socket: two straight
	// poll failures mean the server itself is gone.
	switch {
	case m.snapshot.IsOffline():
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
	case m.snapshot.Socket.Connected:
		parts = append(parts, bg.Render("● LIVE", styles.SuccessText))
	case m.snapshot.Socket.Reconnecting:
		parts = append(parts, bg.Render("◌ RECONNECTING", styles.WarningText.Bold(true)))
	default:
		parts = append(parts, bg.Render("◌ CONNECTING", styles.WarningText))
	}

	online, printing := m.countPrinters()
	parts = append(parts,
		bg.Render("Printers:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d/%d", online, len(m.snapshot.Printers)), styles.Text),
	)
	if printing > 0 {
		color := lipgloss.Color(m.theme.StatusColors["printing"])
		parts = append(parts,
			bg.Render("Printing:", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%d", printing), lipgloss.NewStyle().Foreground(color)),
		)
	}

	parts = append(parts, bg.Render(m.viewLabel(), styles.InfoText))

	updated := m.snapshot.LastUpdated
	parts = append(parts, bg.Render("Updated "+formatAge(updated, time.Now()), styles.MutedText))

	if m.snapshot.LastError != nil && m.snapshot.ConsecutiveFailures > 0 {
		parts = append(parts, bg.Render("Poll failing", styles.DangerText))
	}

	return styles.Header.Width(m.width).Render(bg.Join(parts, sep))
}

// countPrinters returns how many printers are online and actively printing.
func (m Model) countPrinters() (online, printing int) {
	for _, p := range m.snapshot.Printers {
		if p.Printer.Online {
			online++
		}
		if job := p.Job(); job != nil && chitui.PrintStatusActive(job.Status) {
			printing++
		}
	}
	return online, printing
}

func (m Model) viewLabel() string {
	switch m.currentView {
	case ViewPrinters:
		return "Printers"
	case ViewDetail:
		return "Detail"
	case ViewServer:
		return "Server"
	case ViewTerminal:
		return "Terminal"
	default:
		return ""
	}
}

// renderFooter renders the bottom bar: the freshest toast, any running
// uploads, and the key hint.
func (m Model) renderFooter() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	sep := bg.Spaces(2)

	var parts []string

	if toast := m.latestToast(); toast != nil {
		style := styles.MutedText
		switch toast.Kind {
		case "error":
			style = styles.DangerText
		case "warning":
			style = styles.WarningText
		case "success":
			style = styles.SuccessText
		}
		parts = append(parts, bg.Render(truncate(toast.Message, maxInt(m.width/2, 20)), style))
	}

	for _, u := range m.sortedUploads() {
		parts = append(parts,
			bg.Render("Upload", styles.MutedText)+bg.Space()+
				bg.Render(fmt.Sprintf("%.0f%%", u.percent), styles.InfoText))
	}

	parts = append(parts, bg.Render("h help · e quit", styles.FaintText))

	return styles.Footer.Width(m.width).Render(bg.Join(parts, sep))
}

// latestToast returns the most recent toast, or nil.
func (m Model) latestToast() *toastLine {
	if len(m.snapshot.Toasts) == 0 {
		return nil
	}
	t := m.snapshot.Toasts[len(m.snapshot.Toasts)-1]
	// Toasts fade after a few seconds rather than sticking forever.
	if time.Since(t.At) > 8*time.Second {
		return nil
	}
	return &toastLine{Message: t.Message, Kind: t.Kind}
}

type toastLine struct {
	Message string
	Kind    string
}

type uploadLine struct {
	id      string
	percent float64
}

// sortedUploads returns in-flight uploads in a stable order.
func (m Model) sortedUploads() []uploadLine {
	if len(m.snapshot.Uploads) == 0 {
		return nil
	}
	lines := make([]uploadLine, 0, len(m.snapshot.Uploads))
	for id, pct := range m.snapshot.Uploads {
		lines = append(lines, uploadLine{id: id, percent: pct})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].id < lines[j].id })
	return lines
}
