package console

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SubmittedMsg is sent when the user submits a message.
type SubmittedMsg struct {
	Text string
}

// InputField is the single-line message box.
type InputField struct {
	input textinput.Model
	width int
}

// NewInputField creates a focused InputField.
func NewInputField() *InputField {
	ti := textinput.New()
	ti.Placeholder = "Ask the team bot, or /help ..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	return &InputField{
		input: ti,
		width: 80,
	}
}

// SetWidth sets the width of the input field.
func (f *InputField) SetWidth(width int) {
	f.width = width
	f.input.Width = width - 4 // prompt and padding
}

// Focus focuses the input.
func (f *InputField) Focus() tea.Cmd {
	return f.input.Focus()
}

// Value returns the current text.
func (f *InputField) Value() string {
	return f.input.Value()
}

// SetValue replaces the current text.
func (f *InputField) SetValue(s string) {
	f.input.SetValue(s)
}

// Update handles messages for the input field.
func (f *InputField) Update(msg tea.Msg) (*InputField, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEnter {
		text := strings.TrimSpace(f.input.Value())
		if text == "" {
			return f, nil
		}
		f.input.Reset()
		return f, func() tea.Msg { return SubmittedMsg{Text: text} }
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return f, cmd
}

// View renders the input field.
func (f *InputField) View() string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(f.width - 2)

	return boxStyle.Render(promptStyle.Render("> ") + f.input.View())
}
