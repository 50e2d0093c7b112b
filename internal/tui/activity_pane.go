package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aristath/tasktracker/internal/events"
)

// maxActivityLines caps the scrollback kept in memory.
const maxActivityLines = 500

// ActivityPaneModel is a scrollable log of bus events.
type ActivityPaneModel struct {
	lines    []string
	viewport viewport.Model
	width    int
	height   int
	focused  bool
}

// NewActivityPaneModel creates a new activity pane model.
func NewActivityPaneModel() ActivityPaneModel {
	vp := viewport.New(0, 0)
	vp.SetContent("Waiting for activity...")
	return ActivityPaneModel{viewport: vp}
}

// Update handles messages for the activity pane.
func (m ActivityPaneModel) Update(msg tea.Msg) (ActivityPaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !m.focused {
			break
		}
		// The viewport binds j/k and up/down itself.
		m.viewport, cmd = m.viewport.Update(msg)

	case events.Event:
		m.append(eventLine(msg))
	}

	return m, cmd
}

// append adds a line, trims the scrollback, and follows the tail.
func (m *ActivityPaneModel) append(line string) {
	if line == "" {
		return
	}
	m.lines = append(m.lines, line)
	if len(m.lines) > maxActivityLines {
		m.lines = m.lines[len(m.lines)-maxActivityLines:]
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

// eventLine formats one bus event as a log line.
func eventLine(e events.Event) string {
	switch ev := e.(type) {
	case events.TaskCreatedEvent:
		return fmt.Sprintf("%s created task %s %q", ev.Timestamp.Format("15:04:05"), ev.ID, ev.Title)
	case events.TaskUpdatedEvent:
		return fmt.Sprintf("%s updated task %s", ev.Timestamp.Format("15:04:05"), ev.ID)
	case events.TaskDeletedEvent:
		return fmt.Sprintf("%s deleted task %s", ev.Timestamp.Format("15:04:05"), ev.ID)
	case events.TransitionEvent:
		return fmt.Sprintf("%s %s (attempt %d)", ev.Timestamp.Format("15:04:05"), ev.Summary, ev.Attempts)
	case events.TaskResetEvent:
		return fmt.Sprintf("%s reset task %s (%d dependents)", ev.Timestamp.Format("15:04:05"), ev.ID, len(ev.Dependents))
	case events.GroupCreatedEvent:
		return fmt.Sprintf("%s created group %s with %d tasks", ev.Timestamp.Format("15:04:05"), ev.GroupID, len(ev.TaskIDs))
	case events.GroupCompletedEvent:
		return fmt.Sprintf("%s group %s complete, main task %s", ev.Timestamp.Format("15:04:05"), ev.GroupID, ev.MainID)
	case events.SaveFailedEvent:
		return fmt.Sprintf("%s %s", ev.Timestamp.Format("15:04:05"), StyleStatusFailed.Render(fmt.Sprintf("save failed: %v", ev.Err)))
	default:
		return ""
	}
}

// View renders the activity pane.
func (m ActivityPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Activity"))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(b.String())
}

// SetSize updates the pane dimensions and resizes the viewport.
func (m *ActivityPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h

	vpWidth := w - 4
	vpHeight := h - 4
	if vpWidth < 10 {
		vpWidth = 10
	}
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight
}

// SetFocused updates the focus state.
func (m *ActivityPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
