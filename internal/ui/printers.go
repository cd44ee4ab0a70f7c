package ui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fennle/chitview/internal/chitui"
	"github.com/fennle/chitview/internal/state"
)

// updatePrinterRows clamps the cursor to the current printer list. keepID,
// captured before the list changed, pins the cursor to that printer's row
// when it is still present.
func (m *Model) updatePrinterRows(keepID string) {
	printers := m.sortedPrinters()
	count := len(printers)

	if count == 0 {
		m.selectedRow = 0
		return
	}

	if keepID != "" {
		for i, p := range printers {
			if p.ID == keepID {
				m.selectedRow = i
				return
			}
		}
	}

	if m.selectedRow >= count {
		m.selectedRow = count - 1
	}
}

// sortedPrinters returns printers in display order: the pinned default
// first, then online before offline, then by name.
func (m *Model) sortedPrinters() []state.PrinterView {
	printers := make([]state.PrinterView, len(m.snapshot.Printers))
	copy(printers, m.snapshot.Printers)

	sort.SliceStable(printers, func(i, j int) bool {
		if m.defaultPrinter != "" {
			di := printers[i].ID == m.defaultPrinter
			dj := printers[j].ID == m.defaultPrinter
			if di != dj {
				return di
			}
		}
		if printers[i].Printer.Online != printers[j].Printer.Online {
			return printers[i].Printer.Online
		}
		ni := printerLabel(printers[i])
		nj := printerLabel(printers[j])
		if ni != nj {
			return ni < nj
		}
		return printers[i].ID < printers[j].ID
	})

	return printers
}

// selectedPrinter returns the printer under the cursor, or nil.
func (m *Model) selectedPrinter() *state.PrinterView {
	printers := m.sortedPrinters()
	if m.selectedRow < 0 || m.selectedRow >= len(printers) {
		return nil
	}
	p := printers[m.selectedRow]
	return &p
}

// handlePrintersKey processes keyboard input for the printers view.
func (m Model) handlePrintersKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	printers := m.sortedPrinters()
	count := len(printers)
	if count == 0 {
		return m, nil
	}

	switch msg.String() {
	case "j", "down":
		if m.selectedRow < count-1 {
			m.selectedRow++
		}
	case "k", "up":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "g", "home":
		m.selectedRow = 0
	case "G", "end":
		m.selectedRow = count - 1
	case "enter":
		m.currentView = ViewDetail
		m.fileRow = 0
		m.updateDetailViewport()
	}

	return m, nil
}

// renderPrinters renders the printers view with split layout (table + detail).
func (m Model) renderPrinters() string {
	styles := m.theme.Styles()
	contentHeight := m.contentHeight()

	printers := m.sortedPrinters()
	if len(printers) == 0 {
		emptyMsg := styles.MutedText.Render("No printers found")
		return lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center, emptyMsg)
	}

	// Extra wide (>= 160): 30% table, 70% detail. Default: 40/60.
	var tableWidth int
	if m.width >= 160 {
		tableWidth = m.width * 30 / 100
	} else {
		tableWidth = m.width * 40 / 100
	}
	detailWidth := m.width - tableWidth

	selected := m.selectedPrinter()

	tableTitle := fmt.Sprintf("Printers (%d)", len(printers))
	tableFocused := m.focusedPane == 0
	tableBg := m.theme.SurfaceAlt
	if tableFocused {
		tableBg = m.theme.FocusBg
	}
	tableContent := m.renderPrinterTable(printers, tableWidth-2, tableBg)
	tablePane := m.renderTitledBox(tableTitle, tableContent, tableWidth, contentHeight, tableFocused)

	detailFocused := m.focusedPane == 1
	detailBg := m.theme.SurfaceAlt
	if detailFocused {
		detailBg = m.theme.FocusBg
	}
	var detailContent string
	if selected != nil {
		detailContent = m.renderPrinterSummary(*selected, detailWidth-4, detailBg)
	} else {
		detailContent = lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.theme.Muted)).
			Background(lipgloss.Color(detailBg)).
			Render("Select a printer")
	}
	detailPane := m.renderTitledBox("Printer", detailContent, detailWidth, contentHeight, detailFocused)

	return lipgloss.JoinHorizontal(lipgloss.Top, tablePane, detailPane)
}

// renderPrinterTable renders the printer list as styled rows.
func (m Model) renderPrinterTable(printers []state.PrinterView, width int, bgColor string) string {
	var lines []string
	for i, p := range printers {
		if i == m.selectedRow {
			content := m.formatPrinterRow(p, width, m.theme.SelectionBg, true)
			lines = append(lines, lipgloss.NewStyle().
				Background(lipgloss.Color(m.theme.SelectionBg)).
				Width(width).
				Render(content))
		} else {
			content := m.formatPrinterRow(p, width, bgColor, false)
			lines = append(lines, lipgloss.NewStyle().
				Background(lipgloss.Color(bgColor)).
				Width(width).
				Render(content))
		}
	}
	return strings.Join(lines, "\n")
}

// formatPrinterRow formats one printer row: "● Name · status 42%".
func (m Model) formatPrinterRow(p state.PrinterView, width int, bgColor string, selected bool) string {
	bg := NewBgStyle(bgColor)

	name := printerLabel(p)
	status := printerStatusLabel(p)

	statusParts := []string{titleCase(status)}
	if job := p.Job(); job != nil && chitui.PrintStatusActive(job.Status) && job.TotalLayer > 0 {
		statusParts = append(statusParts, fmt.Sprintf("%.0f%%", job.Progress()))
	}
	if p.ID == m.defaultPrinter {
		statusParts = append(statusParts, "★")
	}
	statusStr := strings.Join(statusParts, " ")

	dot := "●"
	nameWidth := maxInt(width-len(statusStr)-7, 8)

	var dotStyle, nameStyle, sepStyle, statusStyle lipgloss.Style
	if selected {
		selText := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		nameStyle = selText
		sepStyle = selText
		statusStyle = selText
		dotStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.colorForStatus(ternary(p.Printer.Online, "online", "offline"))))
	} else {
		styles := m.theme.Styles()
		nameStyle = styles.Text
		sepStyle = styles.FaintText
		statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.colorForStatus(status)))
		dotStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.colorForStatus(ternary(p.Printer.Online, "online", "offline"))))
	}

	return bg.Render(dot, dotStyle) + bg.Space() +
		bg.Render(truncate(name, nameWidth), nameStyle) +
		bg.Render(" · ", sepStyle) +
		bg.Render(statusStr, statusStyle)
}

// renderPrinterSummary renders the right-hand pane for the selected printer.
func (m Model) renderPrinterSummary(p state.PrinterView, width int, bgColor string) string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles().WithBackground(bgColor)

	var b strings.Builder
	line := func(label, value string) {
		b.WriteString(bg.Render(padRight(label, 12), styles.MutedText))
		b.WriteString(bg.Render(truncate(value, maxInt(width-13, 8)), styles.Text))
		b.WriteString("\n")
	}

	line("Name", printerLabel(p))
	line("Model", strings.TrimSpace(p.Printer.Brand+" "+p.Printer.Model))
	line("IP", p.Printer.IP)
	line("Firmware", p.Printer.Firmware)
	line("Connection", ternary(p.Printer.Online, "online", "offline"))
	if p.Printer.USBDeviceType != "" {
		line("USB mode", p.Printer.USBDeviceType)
	}

	if job := p.Job(); job != nil && chitui.PrintStatusActive(job.Status) {
		b.WriteString("\n")
		b.WriteString(bg.Render("Current job", styles.AccentText.Bold(true)))
		b.WriteString("\n")
		line("File", job.Filename)
		line("Status", titleCase(chitui.PrintStatusLabel(job.Status)))
		line("Layer", fmt.Sprintf("%d / %d", job.CurrentLayer, job.TotalLayer))
		line("Elapsed", formatTicks(job.CurrentTicks))
		b.WriteString(m.progress.ViewAs(job.Progress() / 100))
		b.WriteString("\n")
	}

	if len(p.Files) > 0 {
		b.WriteString("\n")
		b.WriteString(bg.Render(fmt.Sprintf("Files (%d)", len(p.Files)), styles.AccentText.Bold(true)))
		b.WriteString("\n")
		shown := p.Files
		if len(shown) > 5 {
			shown = shown[:5]
		}
		for _, f := range shown {
			b.WriteString(bg.Render("  "+truncateMiddle(f.Name, maxInt(width-14, 10)), styles.Text))
			b.WriteString(bg.Space())
			b.WriteString(bg.Render(formatBytes(f.UsedSize), styles.FaintText))
			b.WriteString("\n")
		}
		if len(p.Files) > len(shown) {
			b.WriteString(bg.Render(fmt.Sprintf("  … %d more (enter for detail)", len(p.Files)-len(shown)), styles.MutedText))
			b.WriteString("\n")
		}
	} else {
		b.WriteString("\n")
		b.WriteString(bg.Render("No file list yet. Press f to request one.", styles.MutedText))
		b.WriteString("\n")
	}

	return b.String()
}

// colorForStatus returns the theme color for a status label.
func (m Model) colorForStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if color, ok := m.theme.StatusColors[status]; ok {
		return color
	}
	return m.theme.Text
}

// printerLabel is the display name for a printer, falling back to its ID.
func printerLabel(p state.PrinterView) string {
	if name := strings.TrimSpace(p.Printer.Name); name != "" {
		return name
	}
	return p.ID
}

// printerStatusLabel is the status chip text for a printer row.
func printerStatusLabel(p state.PrinterView) string {
	if !p.Printer.Online {
		return "offline"
	}
	if job := p.Job(); job != nil {
		return chitui.PrintStatusLabel(job.Status)
	}
	return "idle"
}

// renderTitledBox renders content in a box with the title embedded in the
// top border: ┌─── Title ───┐. Focused boxes use the focus border and
// background colors.
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	var borderColorStr, bgColorStr string
	if focused {
		borderColorStr = m.theme.BorderFocus
		bgColorStr = m.theme.FocusBg
	} else {
		borderColorStr = m.theme.Border
		bgColorStr = m.theme.SurfaceAlt
	}
	bg := NewBgStyle(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := width - 2
	titleLen := len([]rune(title))
	leftPad := maxInt((innerWidth-titleLen-2)/2, 0)
	rightPad := maxInt(innerWidth-titleLen-2-leftPad, 0)

	topBorder := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)

	bottomBorder := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).Background(lipgloss.Color(bgColorStr))

	contentLines := strings.Split(content, "\n")
	boxHeight := height - 2

	var paddedLines []string
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		paddedLines = append(paddedLines,
			bg.Render("│", borderStyle)+
				contentStyle.Render(line)+
				bg.Render("│", borderStyle))
	}

	return topBorder + "\n" + strings.Join(paddedLines, "\n") + "\n" + bottomBorder
}
