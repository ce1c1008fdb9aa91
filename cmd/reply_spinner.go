package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/familiar-bridge/internal/application"
	"github.com/bnema/familiar-bridge/internal/domain"
)

// replyPoller is the slice of the conversation service the wait needs.
type replyPoller interface {
	Status(ctx context.Context, familiar domain.FamiliarID, turnID string) (application.TurnStatusView, error)
	Heartbeat(ctx context.Context) application.HeartbeatView
}

type replyPolledMsg struct {
	view      application.TurnStatusView
	heartbeat application.HeartbeatView
	err       error
}

type replyPollDueMsg struct{}

// replyWaitModel polls the turn on every interval and renders its status,
// the watcher liveness and the time spent waiting.
type replyWaitModel struct {
	ctx      context.Context
	poller   replyPoller
	familiar domain.FamiliarID
	turnID   string
	interval time.Duration
	started  time.Time
	now      func() time.Time

	spinner   spinner.Model
	polled    bool
	view      application.TurnStatusView
	heartbeat application.HeartbeatView
	err       error
	done      bool
}

func newReplyWaitModel(ctx context.Context, poller replyPoller, familiar domain.FamiliarID, turnID string, interval time.Duration, now func() time.Time) replyWaitModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("205"))),
	)
	if now == nil {
		now = time.Now
	}

	return replyWaitModel{
		ctx:      ctx,
		poller:   poller,
		familiar: familiar,
		turnID:   turnID,
		interval: interval,
		started:  now(),
		now:      now,
		spinner:  s,
		view:     application.TurnStatusView{TurnID: turnID, Status: domain.TurnPending},
	}
}

func (m replyWaitModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.poll)
}

func (m replyWaitModel) poll() tea.Msg {
	view, err := m.poller.Status(m.ctx, m.familiar, m.turnID)
	return replyPolledMsg{view: view, heartbeat: m.poller.Heartbeat(m.ctx), err: err}
}

func (m replyWaitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case replyPolledMsg:
		if msg.err != nil {
			m.done = true
			m.err = msg.err
			return m, tea.Quit
		}
		m.polled = true
		m.view = msg.view
		m.heartbeat = msg.heartbeat
		if m.view.Status != domain.TurnPending {
			m.done = true
			return m, tea.Quit
		}
		return m, tea.Tick(m.interval, func(time.Time) tea.Msg { return replyPollDueMsg{} })
	case replyPollDueMsg:
		return m, m.poll
	default:
		return m, nil
	}
}

func (m replyWaitModel) View() string {
	if m.done {
		return ""
	}

	elapsed := m.now().Sub(m.started).Truncate(time.Second)
	if !m.polled {
		return fmt.Sprintf("%s Waiting for %s (turn %s, %s)", m.spinner.View(), m.familiar, m.turnID, elapsed)
	}

	watcher := "watcher online"
	if !m.heartbeat.Active {
		watcher = "watcher offline"
	}
	return fmt.Sprintf("%s Waiting for %s (turn %s, %s, %s, %s)", m.spinner.View(), m.familiar, m.turnID, m.view.Status, elapsed, watcher)
}

// waitForReply renders the wait on output until the turn leaves pending,
// polling fails or ctx ends.
func waitForReply(ctx context.Context, output io.Writer, poller replyPoller, familiar domain.FamiliarID, turnID string, interval time.Duration) (application.TurnStatusView, error) {
	p := tea.NewProgram(
		newReplyWaitModel(ctx, poller, familiar, turnID, interval, time.Now),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return application.TurnStatusView{}, err
	}

	result, ok := finalModel.(replyWaitModel)
	if !ok {
		return application.TurnStatusView{}, fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.view, result.err
}
