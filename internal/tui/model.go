package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/tasktracker/internal/events"
	"github.com/aristath/tasktracker/internal/manager"
)

// PaneID identifies which pane is focused.
type PaneID int

const (
	PaneTasks PaneID = iota
	PaneProgress
	PaneActivity
)

// Model is the root Bubble Tea model for the TUI.
type Model struct {
	manager      *manager.Manager
	tasksPane    TasksPaneModel
	progressPane ProgressPaneModel
	activityPane ActivityPaneModel
	createForm   CreateFormModel
	focusedPane  PaneID
	eventSub     <-chan events.Event
	width        int
	height       int
	quitting     bool
	showForm     bool
}

// New creates a new TUI model reading from mgr and subscribed to every
// topic on the event bus.
func New(mgr *manager.Manager, bus *events.Bus) Model {
	m := Model{
		manager:      mgr,
		tasksPane:    NewTasksPaneModel(),
		progressPane: NewProgressPaneModel(),
		activityPane: NewActivityPaneModel(),
		createForm:   NewCreateFormModel(mgr),
		focusedPane:  PaneTasks,
		eventSub:     bus.SubscribeAll(256),
	}
	m.tasksPane.Refresh(mgr.ListTodos(nil))
	m.updateFocusStates()
	return m
}

// Init initializes the model and returns the initial command.
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.eventSub)
}

// waitForEvent returns a command that waits for the next event from the event bus.
func waitForEvent(sub <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub
		if !ok {
			return nil // bus closed
		}
		return event
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// The create form is modal: while it is open it gets every key.
		// It dismisses itself on esc or after a successful submit.
		if m.showForm {
			var cmd tea.Cmd
			m.createForm, cmd = m.createForm.Update(msg)
			cmds = append(cmds, cmd)
			if !m.createForm.IsVisible() {
				m.showForm = false
			}
			return m, tea.Batch(cmds...)
		}

		switch msg.String() {
		case KeyQuit, KeyCtrlC:
			m.quitting = true
			return m, tea.Quit

		case KeyNew:
			m.showForm = true
			m.createForm.SetVisible(true)
			cmds = append(cmds, m.createForm.Init())

		case KeyTab:
			// Cycle forward
			m.focusedPane = (m.focusedPane + 1) % 3
			m.updateFocusStates()

		case KeyShiftTab:
			// Cycle backward
			m.focusedPane = (m.focusedPane + 2) % 3 // +2 is equivalent to -1 mod 3
			m.updateFocusStates()

		case KeyPane1:
			m.focusedPane = PaneTasks
			m.updateFocusStates()

		case KeyPane2:
			m.focusedPane = PaneProgress
			m.updateFocusStates()

		case KeyPane3:
			m.focusedPane = PaneActivity
			m.updateFocusStates()

		default:
			// Delegate to focused pane
			switch m.focusedPane {
			case PaneTasks:
				var cmd tea.Cmd
				m.tasksPane, cmd = m.tasksPane.Update(msg)
				cmds = append(cmds, cmd)
			case PaneActivity:
				var cmd tea.Cmd
				m.activityPane, cmd = m.activityPane.Update(msg)
				cmds = append(cmds, cmd)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.computeLayout()
		m.createForm.SetSize(msg.Width, msg.Height)

	case events.TaskCreatedEvent, events.TaskUpdatedEvent, events.TaskDeletedEvent,
		events.TransitionEvent, events.TaskResetEvent,
		events.GroupCreatedEvent, events.GroupCompletedEvent:
		// The population changed: refresh the table and log the event.
		m.tasksPane.Refresh(m.manager.ListTodos(nil))
		var cmd tea.Cmd
		m.activityPane, cmd = m.activityPane.Update(msg)
		cmds = append(cmds, cmd, waitForEvent(m.eventSub))

	case events.ProgressEvent:
		var cmd tea.Cmd
		m.progressPane, cmd = m.progressPane.Update(msg)
		cmds = append(cmds, cmd, waitForEvent(m.eventSub))

	case events.SaveFailedEvent:
		var cmd tea.Cmd
		m.activityPane, cmd = m.activityPane.Update(msg)
		cmds = append(cmds, cmd, waitForEvent(m.eventSub))
	}

	return m, tea.Batch(cmds...)
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	// The create form renders as a full-screen overlay.
	if m.showForm {
		return m.createForm.View()
	}

	// Left: task table. Right: progress over activity log.
	leftPane := m.tasksPane.View()
	rightPane := lipgloss.JoinVertical(lipgloss.Left, m.progressPane.View(), m.activityPane.View())

	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	return lipgloss.JoinVertical(lipgloss.Left, mainContent, HelpView())
}

// computeLayout calculates pane dimensions and updates all child models.
func (m *Model) computeLayout() {
	leftWidth := (m.width * 55) / 100
	rightWidth := m.width - leftWidth
	availableHeight := m.height - 1 // reserve 1 line for help bar
	rightTopHeight := (availableHeight * 45) / 100
	rightBottomHeight := availableHeight - rightTopHeight

	m.tasksPane.SetSize(leftWidth, availableHeight)
	m.progressPane.SetSize(rightWidth, rightTopHeight)
	m.activityPane.SetSize(rightWidth, rightBottomHeight)

	m.updateFocusStates()
}

// updateFocusStates updates the focus state of all panes.
func (m *Model) updateFocusStates() {
	m.tasksPane.SetFocused(m.focusedPane == PaneTasks)
	m.progressPane.SetFocused(m.focusedPane == PaneProgress)
	m.activityPane.SetFocused(m.focusedPane == PaneActivity)
}
