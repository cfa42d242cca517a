// Package tui is the interactive today screen: log progress, save it, and
// manage which habits are active.
package tui

import (
	"context"
	"errors"
	"strconv"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/hardlog/internal/auth"
	"github.com/julianstephens/hardlog/internal/bootstrap"
	"github.com/julianstephens/hardlog/internal/entrybuf"
	"github.com/julianstephens/hardlog/internal/models"
	"github.com/julianstephens/hardlog/internal/session"
	"github.com/julianstephens/hardlog/internal/tui/components/habits"
	"github.com/julianstephens/hardlog/internal/tui/components/today"
)

type Tab int

const (
	TabToday Tab = iota
	TabHabits
)

var tabNames = []string{"Today", "Habits"}

type mode int

const (
	modeBrowse mode = iota
	modeEditValue
	modeConfirmDelete
)

type (
	// reportMsg comes from the background bootstrap that follows the session
	reportMsg bootstrap.Report
	// refreshedMsg comes from a bootstrap the screen ran itself
	refreshedMsg bootstrap.Report

	savedMsg struct {
		result entrybuf.SaveResult
		err    error
	}
	habitChangedMsg struct {
		status string
		err    error
	}
	streakMsg struct {
		streak int
		err    error
	}
)

type Model struct {
	ctx     context.Context
	ctrl    *session.Controller
	repo    entrybuf.Updater
	seq     *bootstrap.Sequencer
	reports chan bootstrap.Report

	buf     *entrybuf.Buffer
	ready   bool
	loadErr error
	streak  int
	// changed and complete mirror the buffer so View never reads it while
	// a save is running
	changed  bool
	complete bool

	tab           Tab
	mode          mode
	keys          KeyMap
	help          help.Model
	todayModel    today.Model
	habitsModel   habits.Model
	input         textinput.Model
	editing       models.Habit
	pendingDelete models.Habit

	busy      bool
	status    string
	statusErr bool
	quitting  bool
	width     int
	height    int
}

func New(ctx context.Context, ctrl *session.Controller, repo entrybuf.Updater) Model {
	input := textinput.New()
	input.Placeholder = "0"
	input.CharLimit = 6
	input.Validate = func(s string) error {
		if s == "" {
			return nil
		}
		if _, err := strconv.Atoi(s); err != nil {
			return errors.New("digits only")
		}
		return nil
	}

	return Model{
		ctx:         ctx,
		ctrl:        ctrl,
		repo:        repo,
		seq:         bootstrap.New(ctrl),
		reports:     make(chan bootstrap.Report),
		keys:        DefaultKeyMap(),
		help:        help.New(),
		todayModel:  today.New(),
		habitsModel: habits.New(0, 0),
		input:       input,
	}
}

// Follow bootstraps the session's current user, and every user signed in
// later, in the background. Reports reach the screen until ctx is done.
// The returned func stops following and waits for running bootstraps, so
// cancel ctx before calling it.
func (m Model) Follow(sess auth.Session) (stop func()) {
	reports, ctx := m.reports, m.ctx
	return m.seq.Start(ctx, sess, func(r bootstrap.Report) {
		select {
		case reports <- r:
		case <-ctx.Done():
		}
	})
}

func (m Model) Init() tea.Cmd {
	return waitForReport(m.ctx, m.reports)
}

func waitForReport(ctx context.Context, reports <-chan bootstrap.Report) tea.Cmd {
	return func() tea.Msg {
		select {
		case r := <-reports:
			return reportMsg(r)
		case <-ctx.Done():
			return nil
		}
	}
}

// rerun bootstraps again after the habit set changed, so reactivated
// habits get today's entry.
func (m Model) rerun() tea.Cmd {
	ctx, seq := m.ctx, m.seq
	return func() tea.Msg {
		return refreshedMsg(seq.Run(ctx))
	}
}

func (m Model) loadStreak() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		n, err := ctrl.Streak(ctx)
		return streakMsg{streak: n, err: err}
	}
}

func (m Model) save() tea.Cmd {
	ctx, buf := m.ctx, m.buf
	return func() tea.Msg {
		res, err := buf.Save(ctx)
		return savedMsg{result: res, err: err}
	}
}

func (m Model) toggleActive(h models.Habit) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		updated, err := ctrl.ToggleHabitActive(ctx, h.ID)
		if err != nil {
			return habitChangedMsg{err: err}
		}
		if updated.Active {
			return habitChangedMsg{status: "Activated " + updated.Name}
		}
		return habitChangedMsg{status: "Deactivated " + updated.Name}
	}
}

func (m Model) deleteHabit(h models.Habit) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		if err := ctrl.DeleteHabit(ctx, h.ID); err != nil {
			return habitChangedMsg{err: err}
		}
		return habitChangedMsg{status: "Deleted " + h.Name}
	}
}

// sync copies the buffer and controller state into the sub-models.
func (m *Model) sync() {
	if m.buf == nil {
		return
	}
	m.todayModel.SetRows(m.ctrl.ActiveHabits(), m.buf.Entries())
	m.habitsModel.SetHabits(m.ctrl.Habits())
	m.changed = m.buf.Changed()
	m.complete = m.buf.AllComplete()
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.status = msg
	m.statusErr = isErr
}
