package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/firefly-engineering/beadm/internal/be"
)

// Action represents the action to take after picker selection
type Action int

const (
	ActionNone Action = iota
	ActionActivate
	ActionActivateTemporary
	ActionQuit
)

// PickerResult holds the result of the picker
type PickerResult struct {
	Action Action
	BE     *be.BootEnvironment
}

// Flags renders the boot flags of env the way beadm list does: N for next
// boot, R for running now, T for boot once.
func Flags(env be.BootEnvironment) string {
	var b strings.Builder
	if env.NextBoot {
		b.WriteByte('N')
	}
	if env.Active {
		b.WriteByte('R')
	}
	if env.BootOnce {
		b.WriteByte('T')
	}
	return b.String()
}

// beItem implements list.Item for boot environment display
type beItem struct {
	env be.BootEnvironment
}

func (i beItem) Title() string {
	flags := Flags(i.env)
	if flags == "" {
		return i.env.Name
	}
	return i.env.Name + " " + flagStyle.Render("["+flags+"]")
}

func (i beItem) Description() string {
	mountpoint := i.env.Mountpoint
	if mountpoint == "" {
		mountpoint = "-"
	}
	desc := i.env.Description
	if desc == "" {
		desc = "-"
	}
	return fmt.Sprintf("%s | %s", truncatePath(mountpoint, 30), desc)
}

func (i beItem) FilterValue() string {
	return i.env.Name
}

func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return "..." + path[len(path)-maxLen+3:]
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	flagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

// Model is the bubbletea model for the boot environment picker
type Model struct {
	list     list.Model
	result   PickerResult
	quitting bool
	width    int
	height   int
}

// NewPicker creates a new boot environment picker
func NewPicker(bes []be.BootEnvironment) Model {
	items := make([]list.Item, len(bes))
	for i, env := range bes {
		items[i] = beItem{env: env}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	l := list.New(items, delegate, 80, 20)
	l.Title = "beadm - Select Boot Environment"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return Model{list: l}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		// Don't handle keys if filtering
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "enter":
			if item, ok := m.list.SelectedItem().(beItem); ok {
				env := item.env
				m.result = PickerResult{Action: ActionActivate, BE: &env}
				m.quitting = true
				return m, tea.Quit
			}

		case "t":
			if item, ok := m.list.SelectedItem().(beItem); ok {
				env := item.env
				m.result = PickerResult{Action: ActionActivateTemporary, BE: &env}
				m.quitting = true
				return m, tea.Quit
			}

		case "q", "esc", "ctrl+c":
			m.result = PickerResult{Action: ActionQuit}
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	help := helpStyle.Render("[enter] Activate  [t] Activate once  [/] Filter  [q] Quit")

	return m.list.View() + "\n" + help
}

// Result returns the picker result
func (m Model) Result() PickerResult {
	return m.result
}

// RunPicker runs the interactive boot environment picker
func RunPicker(bes []be.BootEnvironment) (PickerResult, error) {
	if len(bes) == 0 {
		return PickerResult{Action: ActionQuit}, nil
	}

	m := NewPicker(bes)
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return PickerResult{}, err
	}

	return finalModel.(Model).Result(), nil
}
