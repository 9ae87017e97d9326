package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/firefly-engineering/beadm/internal/be"
	"github.com/firefly-engineering/beadm/internal/validation"
)

// wizardStep identifies the current step.
type wizardStep int

const (
	stepName wizardStep = iota
	stepSource
	stepDescription
	stepConfirm
)

// CreateOptions is what the creation wizard collects.
type CreateOptions struct {
	Name        string
	Source      *be.Label // nil clones the active boot environment
	Description string
	Activate    bool
}

// wizardModel drives the multi-step creation wizard.
type wizardModel struct {
	step wizardStep
	root string

	// Step 1: name
	nameInput textinput.Model
	nameErr   string

	// Step 2: source
	sourceList list.Model

	// Step 3: description
	descInput textinput.Model

	// Collected values
	selectedName   string
	selectedSource *be.Label
	activate       bool

	width  int
	height int
}

// sourceItem implements list.Item for source selection.
type sourceItem struct {
	label       *be.Label
	description string
}

func (s sourceItem) Title() string {
	if s.label == nil {
		return "(active boot environment)"
	}
	return s.label.String()
}
func (s sourceItem) Description() string { return s.description }
func (s sourceItem) FilterValue() string { return s.Title() }

// wizardStyles
var (
	wizardTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				MarginBottom(1)

	wizardStepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	wizardActiveStepStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))

	wizardLabelStyle = lipgloss.NewStyle().
				Bold(true).
				MarginBottom(1)

	wizardValueStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39"))

	wizardDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	wizardErrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// newWizardModel creates a wizard offering bes and snaps as clone sources.
// root is the boot environment root used for name length checks.
func newWizardModel(root string, bes []be.BootEnvironment, snaps []be.Snapshot) wizardModel {
	ni := textinput.New()
	ni.Placeholder = "boot-environment-name"
	ni.Focus()
	ni.CharLimit = validation.MaxNameLength
	ni.Width = 40

	di := textinput.New()
	di.Placeholder = "optional description"
	di.CharLimit = 256
	di.Width = 60

	w := wizardModel{
		step:      stepName,
		root:      root,
		nameInput: ni,
		descInput: di,
	}
	w.loadSources(bes, snaps)
	return w
}

func (w *wizardModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update processes a message and returns (done, createOptions, cmd).
// done=true with non-nil opts means wizard completed successfully.
// done=true with nil opts means wizard was cancelled.
func (w *wizardModel) Update(msg tea.Msg) (bool, *CreateOptions, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyCtrlC:
			return true, nil, nil
		case tea.KeyEsc:
			return w.handleBack()
		}
	}
	if sizeMsg, ok := msg.(tea.WindowSizeMsg); ok {
		w.width = sizeMsg.Width
		w.height = sizeMsg.Height
		w.sourceList.SetSize(sizeMsg.Width-4, sizeMsg.Height-10)
		return false, nil, nil
	}

	switch w.step {
	case stepName:
		return w.updateName(msg)
	case stepSource:
		return w.updateSource(msg)
	case stepDescription:
		return w.updateDescription(msg)
	case stepConfirm:
		return w.updateConfirm(msg)
	}

	return false, nil, nil
}

func (w *wizardModel) handleBack() (bool, *CreateOptions, tea.Cmd) {
	switch w.step {
	case stepName:
		// Esc at first step cancels wizard
		return true, nil, nil
	case stepSource:
		w.step = stepName
		w.nameInput.Focus()
		return false, nil, textinput.Blink
	case stepDescription:
		w.step = stepSource
		w.descInput.Blur()
		return false, nil, nil
	case stepConfirm:
		w.step = stepDescription
		w.descInput.Focus()
		return false, nil, textinput.Blink
	}
	return false, nil, nil
}

func (w *wizardModel) updateName(msg tea.Msg) (bool, *CreateOptions, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter {
		name := strings.TrimSpace(w.nameInput.Value())
		if name == "" {
			return false, nil, nil
		}
		if err := validation.ValidateBEName(name, w.root); err != nil {
			w.nameErr = err.Error()
			return false, nil, nil
		}
		w.nameErr = ""
		w.selectedName = name
		w.step = stepSource
		w.nameInput.Blur()
		return false, nil, nil
	}

	var cmd tea.Cmd
	w.nameInput, cmd = w.nameInput.Update(msg)
	return false, nil, cmd
}

func (w *wizardModel) updateSource(msg tea.Msg) (bool, *CreateOptions, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter {
		if item, ok := w.sourceList.SelectedItem().(sourceItem); ok {
			w.selectedSource = item.label
			w.step = stepDescription
			w.descInput.Focus()
			return false, nil, textinput.Blink
		}
		return false, nil, nil
	}

	var cmd tea.Cmd
	w.sourceList, cmd = w.sourceList.Update(msg)
	return false, nil, cmd
}

func (w *wizardModel) updateDescription(msg tea.Msg) (bool, *CreateOptions, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter {
		w.step = stepConfirm
		w.descInput.Blur()
		return false, nil, nil
	}

	var cmd tea.Cmd
	w.descInput, cmd = w.descInput.Update(msg)
	return false, nil, cmd
}

func (w *wizardModel) updateConfirm(msg tea.Msg) (bool, *CreateOptions, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter", "y":
			return true, &CreateOptions{
				Name:        w.selectedName,
				Source:      w.selectedSource,
				Description: strings.TrimSpace(w.descInput.Value()),
				Activate:    w.activate,
			}, nil
		case "a":
			w.activate = !w.activate
			return false, nil, nil
		case "n":
			// Restart wizard
			w.step = stepName
			w.nameInput.SetValue("")
			w.nameInput.Focus()
			w.descInput.SetValue("")
			w.selectedName = ""
			w.selectedSource = nil
			w.activate = false
			return false, nil, textinput.Blink
		}
	}
	return false, nil, nil
}

func (w *wizardModel) View() string {
	var b strings.Builder

	b.WriteString(wizardTitleStyle.Render("Create Boot Environment"))
	b.WriteString("\n")
	b.WriteString(w.progressBar())
	b.WriteString("\n\n")

	switch w.step {
	case stepName:
		b.WriteString(wizardLabelStyle.Render("Name:"))
		b.WriteString("\n")
		b.WriteString(w.nameInput.View())
		b.WriteString("\n\n")
		if w.nameErr != "" {
			b.WriteString(wizardErrStyle.Render(w.nameErr))
			b.WriteString("\n")
		}
		b.WriteString(wizardDimStyle.Render("Enter to continue, Esc to cancel."))
	case stepSource:
		b.WriteString(wizardLabelStyle.Render("Clone from:"))
		b.WriteString("\n")
		b.WriteString(w.sourceList.View())
	case stepDescription:
		b.WriteString(wizardLabelStyle.Render("Description:"))
		b.WriteString("\n")
		b.WriteString(w.descInput.View())
		b.WriteString("\n\n")
		b.WriteString(wizardDimStyle.Render("Enter to continue, Esc to go back."))
	case stepConfirm:
		source := "(active boot environment)"
		if w.selectedSource != nil {
			source = w.selectedSource.String()
		}
		activate := "no"
		if w.activate {
			activate = "yes"
		}
		b.WriteString(wizardLabelStyle.Render("Confirm:"))
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf("  Name:        %s\n", wizardValueStyle.Render(w.selectedName)))
		b.WriteString(fmt.Sprintf("  Source:      %s\n", wizardValueStyle.Render(source)))
		if v := strings.TrimSpace(w.descInput.Value()); v != "" {
			b.WriteString(fmt.Sprintf("  Description: %s\n", wizardValueStyle.Render(v)))
		}
		b.WriteString(fmt.Sprintf("  Activate:    %s\n", wizardValueStyle.Render(activate)))
		b.WriteString("\n")
		b.WriteString(wizardDimStyle.Render("Enter to create, a to toggle activation, n to restart, Esc to go back."))
	}

	return b.String()
}

func (w *wizardModel) progressBar() string {
	steps := []string{"Name", "Source", "Description", "Confirm"}

	var parts []string
	for i, name := range steps {
		label := fmt.Sprintf("%d. %s", i+1, name)
		if wizardStep(i) == w.step {
			parts = append(parts, wizardActiveStepStyle.Render(label))
		} else {
			parts = append(parts, wizardStepStyle.Render(label))
		}
	}

	return strings.Join(parts, wizardDimStyle.Render(" > "))
}

func (w *wizardModel) loadSources(bes []be.BootEnvironment, snaps []be.Snapshot) {
	items := []list.Item{sourceItem{description: "Clone the running system"}}
	for _, env := range bes {
		items = append(items, sourceItem{label: &be.Label{Name: env.Name}, description: env.Description})
	}
	for _, s := range snaps {
		l, err := be.ParseLabel(s.Name)
		if err != nil {
			continue
		}
		items = append(items, sourceItem{label: &l, description: s.Description})
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = selectedStyle
	delegate.Styles.SelectedDesc = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	l := list.New(items, delegate, 60, 10)
	l.Title = ""
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	w.sourceList = l
}

// wizardProgram adapts wizardModel to tea.Model.
type wizardProgram struct {
	wizard *wizardModel
	result *CreateOptions
	done   bool
}

func (p wizardProgram) Init() tea.Cmd {
	return p.wizard.Init()
}

func (p wizardProgram) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	done, opts, cmd := p.wizard.Update(msg)
	if done {
		p.done = true
		p.result = opts
		return p, tea.Quit
	}
	return p, cmd
}

func (p wizardProgram) View() string {
	if p.done {
		return ""
	}
	return p.wizard.View()
}

// RunCreateWizard asks for the name, source and description of a new boot
// environment. It returns nil if the user cancelled.
func RunCreateWizard(root string, bes []be.BootEnvironment, snaps []be.Snapshot) (*CreateOptions, error) {
	w := newWizardModel(root, bes, snaps)
	p := tea.NewProgram(wizardProgram{wizard: &w}, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	return finalModel.(wizardProgram).result, nil
}
