package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var confirmPromptStyle = lipgloss.NewStyle().Bold(true)

// confirmModel asks a single yes/no question. Anything but y is a no.
type confirmModel struct {
	prompt   string
	answered bool
	yes      bool
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "y", "Y":
		m.yes = true
	case "n", "N", "enter", "esc", "q", "ctrl+c":
		m.yes = false
	default:
		return m, nil
	}
	m.answered = true
	return m, tea.Quit
}

func (m confirmModel) View() string {
	if m.answered {
		return ""
	}
	return confirmPromptStyle.Render(m.prompt) + " " + wizardDimStyle.Render("[y/N]") + "\n"
}

// Confirm asks prompt and reports whether the user answered yes.
func Confirm(prompt string) (bool, error) {
	p := tea.NewProgram(confirmModel{prompt: prompt})

	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	return finalModel.(confirmModel).yes, nil
}
