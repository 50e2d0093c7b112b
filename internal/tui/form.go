package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/tasktracker/internal/manager"
)

// CreateFormModel is the modal huh form for creating a task.
type CreateFormModel struct {
	form    *huh.Form
	manager *manager.Manager
	width   int
	height  int
	visible bool
	done    bool
	err     error

	// Form field bindings
	title        string
	description  string
	groupID      string
	dependencies string
	tags         string
	verification string
}

// NewCreateFormModel creates the task creation form.
func NewCreateFormModel(m *manager.Manager) CreateFormModel {
	f := CreateFormModel{manager: m}
	f.buildForm()
	return f
}

// buildForm constructs the huh form with all task fields.
func (m *CreateFormModel) buildForm() {
	m.title = ""
	m.description = ""
	m.groupID = ""
	m.dependencies = ""
	m.tags = ""
	m.verification = ""
	m.done = false
	m.err = nil

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("title").
				Title("Title").
				Value(&m.title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("title is required")
					}
					return nil
				}),

			huh.NewInput().
				Key("description").
				Title("Description").
				Value(&m.description),

			huh.NewInput().
				Key("groupId").
				Title("Group").
				Value(&m.groupID).
				Placeholder("optional"),

			huh.NewInput().
				Key("dependencies").
				Title("Dependencies").
				Value(&m.dependencies).
				Placeholder("comma-separated ids"),

			huh.NewInput().
				Key("tags").
				Title("Tags").
				Value(&m.tags).
				Placeholder("comma-separated"),

			huh.NewInput().
				Key("verificationMethod").
				Title("Verification Method").
				Value(&m.verification).
				Placeholder("optional"),
		).Title("New Task"),
	)
}

// Init initializes the form.
func (m CreateFormModel) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the create form.
func (m CreateFormModel) Update(msg tea.Msg) (CreateFormModel, tea.Cmd) {
	if !m.visible {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			m.visible = false
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted && !m.done {
		m.done = true
		_, err := m.manager.CreateTodo(manager.CreateRequest{
			Title:              m.title,
			Description:        m.description,
			Tags:               splitCSV(m.tags),
			GroupID:            strings.TrimSpace(m.groupID),
			Dependencies:       splitCSV(m.dependencies),
			VerificationMethod: strings.TrimSpace(m.verification),
		})
		if err != nil {
			// Leave the error on screen; esc dismisses it.
			m.err = err
		} else {
			m.visible = false
		}
	}

	return m, cmd
}

// splitCSV splits a comma-separated input field, dropping empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// View renders the create form.
func (m CreateFormModel) View() string {
	if !m.visible {
		return ""
	}

	var content string
	if m.err != nil {
		content = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true).
			Render(fmt.Sprintf("✗ Could not create task: %v", m.err))
	} else {
		content = m.form.View()
	}

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1, 2).
		Width(m.width - 4).
		Height(m.height - 4)

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		Render("+ New Task")

	return lipgloss.JoinVertical(lipgloss.Left, title, style.Render(content))
}

// SetSize updates the dimensions of the form overlay.
func (m *CreateFormModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	if m.form != nil {
		m.form.WithWidth(w - 8).WithHeight(h - 8)
	}
}

// SetVisible shows or hides the form, resetting its fields on show.
func (m *CreateFormModel) SetVisible(v bool) {
	m.visible = v
	if v {
		m.buildForm()
	}
}

// IsVisible returns whether the form is currently shown.
func (m CreateFormModel) IsVisible() bool {
	return m.visible
}
