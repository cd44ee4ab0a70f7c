package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fennle/chitview/internal/chitui"
	"github.com/fennle/chitview/internal/realtime"
	"github.com/fennle/chitview/internal/state"
)

// handleDetailKey processes keyboard input for the detail view. j/k move
// the file cursor; print and delete ask for confirmation first.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.selectedPrinter()

	fileCount := 0
	if p != nil {
		fileCount = len(p.Files)
	}

	switch msg.String() {
	case "j", "down":
		if m.fileRow < fileCount-1 {
			m.fileRow++
		}
		m.updateDetailViewport()
		return m, nil
	case "k", "up":
		if m.fileRow > 0 {
			m.fileRow--
		}
		m.updateDetailViewport()
		return m, nil
	case "g", "home":
		m.fileRow = 0
		m.updateDetailViewport()
		return m, nil
	case "G", "end":
		if fileCount > 0 {
			m.fileRow = fileCount - 1
		}
		m.updateDetailViewport()
		return m, nil

	case "enter":
		file := m.selectedFile()
		if p == nil || file == nil {
			return m, nil
		}
		id, name := p.ID, file.Name
		m.modal = NewConfirmModal(fmt.Sprintf("Print %s?", name), func() tea.Msg {
			m.emit(realtime.EmitActionPrint, realtime.PrinterAction{ID: id, Data: name})
			return nil
		})
		return m, nil

	case "x":
		file := m.selectedFile()
		if p == nil || file == nil {
			return m, nil
		}
		id, name := p.ID, file.Name
		m.modal = NewConfirmModal(fmt.Sprintf("Delete %s from the printer?", name), func() tea.Msg {
			m.emit(realtime.EmitActionDelete, realtime.PrinterAction{ID: id, Data: name})
			return nil
		})
		return m, nil
	}

	// Remaining keys scroll the viewport (ctrl+d, ctrl+u, pgup, pgdown).
	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

// selectedFile returns the file under the cursor in the detail view.
func (m *Model) selectedFile() *chitui.FileEntry {
	p := m.selectedPrinter()
	if p == nil || m.fileRow < 0 || m.fileRow >= len(p.Files) {
		return nil
	}
	f := p.Files[m.fileRow]
	return &f
}

// updateDetailViewport rebuilds the detail view content.
func (m *Model) updateDetailViewport() {
	if !m.ready {
		return
	}

	p := m.selectedPrinter()
	if p == nil {
		m.detailViewport.SetContent(m.theme.Styles().MutedText.Render("No printer selected"))
		return
	}

	if m.fileRow >= len(p.Files) {
		m.fileRow = maxInt(len(p.Files)-1, 0)
	}

	m.detailViewport.SetContent(m.renderDetailContent(*p, m.detailViewport.Width))
}

// renderDetailContent renders attributes, job and file list for one printer.
func (m Model) renderDetailContent(p state.PrinterView, width int) string {
	styles := m.theme.Styles()

	var b strings.Builder
	section := func(title string) {
		b.WriteString(styles.AccentText.Bold(true).Render(title))
		b.WriteString("\n")
	}
	line := func(label, value string) {
		if strings.TrimSpace(value) == "" {
			return
		}
		b.WriteString(styles.MutedText.Render(padRight(label, 16)))
		b.WriteString(styles.Text.Render(truncate(value, maxInt(width-17, 10))))
		b.WriteString("\n")
	}

	section(printerLabel(p))
	line("Status", titleCase(printerStatusLabel(p)))
	line("IP", p.Printer.IP)
	line("Model", strings.TrimSpace(p.Printer.Brand+" "+p.Printer.Model))
	line("Firmware", p.Printer.Firmware)

	if attrs := p.Attributes; attrs != nil {
		a := attrs.Attributes
		b.WriteString("\n")
		section("Attributes")
		line("Mainboard", a.MainboardID)
		line("Protocol", a.ProtocolVersion)
		line("Resolution", a.Resolution)
		line("Build volume", a.XYZsize)
		line("USB disk", ternary(a.UsbDiskStatus == 1, "present", "absent"))
		if a.MaximumVideoStreamAllowed > 0 {
			line("Video streams", fmt.Sprintf("%d / %d", a.NumberOfVideoStreamConnected, a.MaximumVideoStreamAllowed))
		}
		if len(a.Capabilities) > 0 {
			line("Capabilities", strings.Join(a.Capabilities, ", "))
		}
		if len(a.SupportFileType) > 0 {
			line("File types", strings.Join(a.SupportFileType, ", "))
		}
	}

	if job := p.Job(); job != nil && chitui.PrintStatusActive(job.Status) {
		b.WriteString("\n")
		section("Current job")
		line("File", job.Filename)
		line("Status", titleCase(chitui.PrintStatusLabel(job.Status)))
		line("Layer", fmt.Sprintf("%d / %d", job.CurrentLayer, job.TotalLayer))
		line("Elapsed", formatTicks(job.CurrentTicks))
		if job.TotalTicks > 0 {
			line("Estimated", formatTicks(job.TotalTicks))
		}
		if job.ErrorNumber != 0 {
			b.WriteString(styles.DangerText.Render(fmt.Sprintf("Error %d", job.ErrorNumber)))
			b.WriteString("\n")
		}
		b.WriteString(m.progress.ViewAs(job.Progress() / 100))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if len(p.Files) == 0 {
		section("Files")
		b.WriteString(styles.MutedText.Render("No file list yet. Press f to request one."))
		b.WriteString("\n")
		return b.String()
	}

	section(fmt.Sprintf("Files (%d)", len(p.Files)))
	nameWidth := maxInt(width-16, 12)
	for i, f := range p.Files {
		row := padRight(truncateMiddle(f.Name, nameWidth), nameWidth+2) + formatBytes(f.UsedSize)
		if i == m.fileRow {
			b.WriteString(lipgloss.NewStyle().
				Background(lipgloss.Color(m.theme.SelectionBg)).
				Foreground(lipgloss.Color(m.theme.SelectionText)).
				Width(maxInt(width, 10)).
				Render("> " + row))
		} else {
			b.WriteString(styles.Text.Render("  " + row))
		}
		b.WriteString("\n")
	}
	b.WriteString(styles.FaintText.Render("enter prints · x deletes"))
	b.WriteString("\n")

	return b.String()
}

// renderDetail renders the full-screen detail view.
func (m Model) renderDetail() string {
	return m.detailViewport.View()
}
