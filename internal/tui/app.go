// Package tui provides the terminal progress view for Baton sessions.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/batonlabs/baton/internal/orchestrator"
)

// EventMsg wraps an orchestrator event for the TUI.
type EventMsg struct {
	Event orchestrator.Event
}

// StreamClosedMsg signals that the orchestrator closed its event
// channel and no further updates will arrive.
type StreamClosedMsg struct{}

// Step row states.
const (
	stepPending = "pending"
	stepRunning = "running"
	stepDone    = "done"
	stepFailed  = "failed"
)

// stepView is one row in the progress list.
type stepView struct {
	Index   int
	Name    string
	AgentID string
	Tokens  int
	State   string
	Err     error
}

// styles holds the lipgloss styles used by the progress view.
type styles struct {
	title   lipgloss.Style
	task    lipgloss.Style
	running lipgloss.Style
	done    lipgloss.Style
	failed  lipgloss.Style
	pending lipgloss.Style
	dim     lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),
		task: lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")),
		running: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")), // Green
		done: lipgloss.NewStyle().
			Foreground(lipgloss.Color("28")), // Dark green
		failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")), // Red
		pending: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")), // Gray
		dim: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),
	}
}

// App is the bubbletea model rendering one session's progress.
type App struct {
	task   string
	events <-chan orchestrator.Event
	// cancel stops the session when the user quits mid-run.
	cancel func()

	spin       spinner.Model
	steps      []*stepView
	sessionID  string
	planinfo   string
	canceling  bool
	done       bool
	failed     bool
	finalMsg   string
	recordPath string

	width    int
	quitting bool

	styles styles
}

// New creates a progress view for the given task. Events arrive on the
// orchestrator's event channel; cancel is invoked when the user quits
// before the session reaches a terminal state.
func New(task string, events <-chan orchestrator.Event, cancel func()) *App {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))

	return &App{
		task:   task,
		events: events,
		cancel: cancel,
		spin:   s,
		styles: defaultStyles(),
	}
}

// waitForEvent reads the next orchestrator event as a tea message.
func waitForEvent(events <-chan orchestrator.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return StreamClosedMsg{}
		}
		return EventMsg{Event: ev}
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spin.Tick, waitForEvent(a.events))
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !a.done && a.cancel != nil {
				a.cancel()
				a.canceling = true
				// Stay up until the orchestrator reports the terminal
				// state, so the final record path is shown.
				return a, nil
			}
			a.quitting = true
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case EventMsg:
		a.apply(msg.Event)
		if a.done {
			return a, tea.Quit
		}
		return a, waitForEvent(a.events)

	case StreamClosedMsg:
		a.quitting = true
		return a, tea.Quit
	}

	return a, nil
}

// apply folds one orchestrator event into the view state.
func (a *App) apply(ev orchestrator.Event) {
	if ev.SessionID != "" {
		a.sessionID = ev.SessionID
	}

	switch ev.Type {
	case orchestrator.EventPlanReady:
		a.planinfo = ev.Message

	case orchestrator.EventStepStarted, orchestrator.EventSynthesisStarted:
		row := a.findOrCreateStep(ev.StepIndex, ev.StepName)
		row.AgentID = ev.AgentID
		row.State = stepRunning

	case orchestrator.EventStepCompleted:
		row := a.findOrCreateStep(ev.StepIndex, ev.StepName)
		row.Tokens = ev.Tokens
		row.State = stepDone

	case orchestrator.EventStepFailed:
		row := a.findOrCreateStep(ev.StepIndex, ev.StepName)
		row.Err = ev.Error
		row.State = stepFailed

	case orchestrator.EventCancelRequested:
		a.canceling = true

	case orchestrator.EventSessionCompleted:
		a.done = true
		a.finalMsg = ev.Message
		a.recordPath = ev.RecordPath
		// The synthesis row has no completion event of its own.
		a.finishRunningSteps(stepDone)

	case orchestrator.EventSessionFailed:
		a.done = true
		a.failed = true
		if ev.Error != nil {
			a.finalMsg = ev.Error.Error()
		}
		a.recordPath = ev.RecordPath
		a.finishRunningSteps(stepFailed)
	}
}

// findOrCreateStep finds a row by index or creates it.
func (a *App) findOrCreateStep(index int, name string) *stepView {
	for _, s := range a.steps {
		if s.Index == index {
			if name != "" {
				s.Name = name
			}
			return s
		}
	}
	s := &stepView{Index: index, Name: name, State: stepPending}
	a.steps = append(a.steps, s)
	return s
}

// finishRunningSteps marks still-running rows with the given state.
func (a *App) finishRunningSteps(state string) {
	for _, s := range a.steps {
		if s.State == stepRunning {
			s.State = state
		}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if a.quitting && !a.done {
		return "Interrupted.\n"
	}

	var b strings.Builder

	title := a.styles.title.Render("baton")
	if a.sessionID != "" {
		title += a.styles.dim.Render(fmt.Sprintf(" session %s", a.sessionID))
	}
	b.WriteString(title + "\n")
	b.WriteString(a.styles.task.Render(a.task) + "\n")
	if a.planinfo != "" {
		b.WriteString(a.styles.dim.Render(a.planinfo) + "\n")
	}
	b.WriteString("\n")

	for _, s := range a.steps {
		b.WriteString(a.renderStep(s) + "\n")
	}

	b.WriteString("\n" + a.footer() + "\n")
	return b.String()
}

// renderStep renders one progress row.
func (a *App) renderStep(s *stepView) string {
	label := s.Name
	if s.AgentID != "" {
		label = fmt.Sprintf("%s (%s)", s.Name, s.AgentID)
	}

	switch s.State {
	case stepRunning:
		return fmt.Sprintf("  %s %s", a.spin.View(), a.styles.running.Render(label))
	case stepDone:
		line := fmt.Sprintf("  %s %s", a.styles.done.Render("✓"), label)
		if s.Tokens > 0 {
			line += " " + a.styles.dim.Render(fmt.Sprintf("%d tokens", s.Tokens))
		}
		return line
	case stepFailed:
		line := fmt.Sprintf("  %s %s", a.styles.failed.Render("✗"), label)
		if s.Err != nil {
			line += " " + a.styles.failed.Render(s.Err.Error())
		}
		return line
	default:
		return fmt.Sprintf("  %s %s", a.styles.pending.Render("•"), a.styles.pending.Render(label))
	}
}

// footer renders the status line.
func (a *App) footer() string {
	switch {
	case a.done && a.failed:
		line := a.styles.failed.Render("✗ session failed")
		if a.finalMsg != "" {
			line += a.styles.dim.Render(" " + a.finalMsg)
		}
		return line
	case a.done:
		line := a.styles.done.Render("✓ " + a.finalMsg)
		if a.recordPath != "" {
			line += a.styles.dim.Render(" -> " + a.recordPath)
		}
		return line
	case a.canceling:
		return a.styles.failed.Render("canceling at next step boundary...")
	default:
		return a.styles.dim.Render("q to cancel")
	}
}

// Run drives the progress view until the session reaches a terminal
// state or the user quits.
func Run(task string, events <-chan orchestrator.Event, cancel func()) error {
	p := tea.NewProgram(New(task, events, cancel))
	_, err := p.Run()
	return err
}
