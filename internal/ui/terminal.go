package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fennle/chitview/internal/realtime"
)

// handleTerminalKey processes keyboard input for the terminal view. The
// prompt owns printable keys; only esc and ctrl+c escape it.
func (m Model) handleTerminalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.termInput.Blur()
		m.currentView = ViewPrinters
		return m, nil

	case "enter":
		text := strings.TrimSpace(m.termInput.Value())
		if text == "" {
			return m, nil
		}
		p := m.selectedPrinter()
		if p == nil {
			m.toast("No printer selected", "warning")
			return m, nil
		}
		m.emit(realtime.EmitTerminalCommand, realtime.TerminalCommand{
			PrinterID: p.ID,
			Command:   text,
		})
		if m.store != nil {
			m.store.AppendTerminal(p.ID, text, true)
		}
		m.termInput.Reset()
		if m.store != nil {
			return m, fetchSnapshotCmd(m.store)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.termInput, cmd = m.termInput.Update(msg)
	return m, cmd
}

// updateTermViewport rebuilds the terminal transcript and follows the tail
// when new lines arrive.
func (m *Model) updateTermViewport() {
	if !m.ready {
		return
	}

	styles := m.theme.Styles()
	width := maxInt(m.termViewport.Width-1, 20)

	var b strings.Builder
	for _, line := range m.snapshot.Terminal {
		prefix := "  "
		style := styles.Text
		if line.Sent {
			prefix = "› "
			style = styles.AccentText
		}
		stamp := styles.FaintText.Render(line.At.Format("15:04:05"))
		b.WriteString(stamp)
		b.WriteString(" ")
		b.WriteString(style.Render(prefix + truncate(line.Text, width-11)))
		b.WriteString("\n")
	}

	m.termViewport.SetContent(b.String())
	if len(m.snapshot.Terminal) != m.termLines {
		m.termLines = len(m.snapshot.Terminal)
		m.termViewport.GotoBottom()
	}
}

// renderTerminal renders the transcript viewport above the command prompt.
func (m Model) renderTerminal() string {
	styles := m.theme.Styles()

	target := "no printer selected"
	if p := m.selectedPrinter(); p != nil {
		target = printerLabel(*p)
	}

	var b strings.Builder
	b.WriteString(m.termViewport.View())
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("Command → " + target))
	b.WriteString("\n")
	b.WriteString(m.termInput.View())
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("enter sends · esc back"))

	return b.String()
}
