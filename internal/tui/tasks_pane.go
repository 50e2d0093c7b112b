package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/tasktracker/internal/task"
)

// TasksPaneModel renders the task population as a scrollable table.
type TasksPaneModel struct {
	table   table.Model
	width   int
	height  int
	focused bool
}

// NewTasksPaneModel creates the task table pane.
func NewTasksPaneModel() TasksPaneModel {
	t := table.New(
		table.WithColumns(taskColumns(40)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Background(lipgloss.Color("62")).
		Foreground(lipgloss.Color("0"))
	t.SetStyles(s)

	return TasksPaneModel{table: t}
}

// taskColumns sizes the columns for the given title width.
func taskColumns(titleWidth int) []table.Column {
	return []table.Column{
		{Title: "ID", Width: 5},
		{Title: "State", Width: 10},
		{Title: "Title", Width: titleWidth},
		{Title: "Deps", Width: 14},
		{Title: "Group", Width: 10},
	}
}

// Update handles messages for the tasks pane.
func (m TasksPaneModel) Update(msg tea.Msg) (TasksPaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !m.focused {
			break
		}
		// The table binds j/k and up/down itself.
		m.table, cmd = m.table.Update(msg)
	}

	return m, cmd
}

// Refresh replaces the table rows from the current task population,
// keeping the cursor on the same row index where possible.
func (m *TasksPaneModel) Refresh(tasks []*task.Task) {
	rows := make([]table.Row, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, table.Row{
			t.ID,
			displayState(t),
			t.Title,
			strings.Join(t.Dependencies, ","),
			t.GroupID,
		})
	}

	cursor := m.table.Cursor()
	m.table.SetRows(rows)
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	m.table.SetCursor(cursor)
}

// displayState folds the legacy completed flag into the state column.
func displayState(t *task.Task) string {
	if t.IsComplete() {
		return string(task.StateCompleted)
	}
	return string(t.State())
}

// View renders the tasks pane.
func (m TasksPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Tasks"))
	b.WriteString("\n\n")
	b.WriteString(m.table.View())

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(b.String())
}

// SetSize updates the pane dimensions and resizes the table to fit.
func (m *TasksPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h

	// Border and padding eat two columns per side; each table column
	// carries two cells of padding of its own.
	inner := w - 4
	titleWidth := inner - (5 + 14 + 10 + 10) - 10
	if titleWidth < 8 {
		titleWidth = 8
	}
	m.table.SetColumns(taskColumns(titleWidth))
	m.table.SetWidth(inner)

	tableHeight := h - 4
	if tableHeight < 3 {
		tableHeight = 3
	}
	m.table.SetHeight(tableHeight)
}

// SetFocused updates the focus state.
func (m *TasksPaneModel) SetFocused(focused bool) {
	m.focused = focused
	if focused {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}
