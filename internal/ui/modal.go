package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs. Update returns the updated
// modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// ConfirmModal is a y/n prompt guarding a destructive action.
type ConfirmModal struct {
	prompt string
	action tea.Cmd
}

// NewConfirmModal builds a confirm dialog that runs action on yes.
func NewConfirmModal(prompt string, action tea.Cmd) *ConfirmModal {
	return &ConfirmModal{prompt: prompt, action: action}
}

// Update implements Modal. y/enter confirms, n/esc cancels, anything else
// is ignored.
func (c *ConfirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}

	switch {
	case key.Matches(keyMsg, keys.Confirm):
		return c, c.action, true
	case key.Matches(keyMsg, keys.Deny):
		return c, nil, true
	}
	return c, nil, false
}

// View implements Modal.
func (c *ConfirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(c.prompt))
	b.WriteString("\n\n")
	b.WriteString(styles.SuccessText.Render("y"))
	b.WriteString(styles.MutedText.Render(" confirm   "))
	b.WriteString(styles.DangerText.Render("n"))
	b.WriteString(styles.MutedText.Render(" cancel"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Warning)).
		Padding(1, 2).
		Width(maxInt(len([]rune(c.prompt))+6, 30))

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
