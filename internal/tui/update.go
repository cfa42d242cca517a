package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/hardlog/internal/bootstrap"
	"github.com/julianstephens/hardlog/internal/catalog"
	"github.com/julianstephens/hardlog/internal/entrybuf"
	"github.com/julianstephens/hardlog/internal/logger"
	"github.com/julianstephens/hardlog/internal/session"
	"github.com/julianstephens/hardlog/internal/tui/components/habits"
	"github.com/julianstephens/hardlog/internal/tui/components/today"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.habitsModel.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case reportMsg:
		m.applyReport(bootstrap.Report(msg))
		return m, tea.Batch(waitForReport(m.ctx, m.reports), m.loadStreak())

	case refreshedMsg:
		m.applyReport(bootstrap.Report(msg))
		return m, nil

	case streakMsg:
		if msg.err != nil {
			logger.Warn("Failed to load streak", "error", msg.err)
			return m, nil
		}
		m.streak = msg.streak
		return m, nil

	case savedMsg:
		m.busy = false
		m.sync()
		switch {
		case errors.Is(msg.err, entrybuf.ErrPartialSave):
			m.setStatus(fmt.Sprintf("Saved %d of %d; unsaved values are kept, press s to retry", msg.result.Saved, msg.result.Submitted), true)
		case msg.err != nil:
			m.setStatus(fmt.Sprintf("Save failed: %v", msg.err), true)
		default:
			m.setStatus(fmt.Sprintf("Saved %d habit(s)", msg.result.Saved), false)
		}
		return m, nil

	case habitChangedMsg:
		m.busy = false
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
			return m, nil
		}
		m.setStatus(msg.status, false)
		m.busy = true
		return m, m.rerun()

	case today.EditValueMsg:
		m.mode = modeEditValue
		m.editing = msg.Habit
		m.input.SetValue(fmt.Sprint(msg.Entry.Value))
		m.input.CursorEnd()
		return m, m.input.Focus()

	case today.ToggleMsg:
		if err := m.buf.ToggleBoolean(msg.Habit.ID); err != nil {
			m.setStatus(err.Error(), true)
		}
		m.sync()
		return m, nil

	case habits.ToggleActiveMsg:
		if m.guardEdits() {
			return m, nil
		}
		m.busy = true
		return m, m.toggleActive(msg.Habit)

	case habits.DeleteHabitMsg:
		if m.guardEdits() {
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.pendingDelete = msg.Habit
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.mode == modeEditValue {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) applyReport(r bootstrap.Report) {
	m.busy = false
	if err := r.Err(); err != nil {
		if errors.Is(err, session.ErrStale) {
			// A newer run for the new user is on its way
			return
		}
		m.loadErr = err
		m.setStatus(fmt.Sprintf("Could not load today (%s): %v", r.FailedStep(), err), true)
		return
	}

	m.ready = true
	m.loadErr = nil
	// The draft always restarts from the store after a bootstrap
	m.buf = entrybuf.New(m.ctrl, m.repo)
	m.sync()
}

// guardEdits refuses habit changes while there are unsaved entry edits.
func (m *Model) guardEdits() bool {
	if m.busy {
		return true
	}
	if m.changed {
		m.setStatus("Save or discard your edits first", true)
		return true
	}
	return false
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeEditValue:
		return m.handleEditKey(msg)
	case modeConfirmDelete:
		return m.handleConfirmKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		m.tab = (m.tab + 1) % Tab(len(tabNames))
		return m, nil
	case key.Matches(msg, m.keys.ShiftTab):
		m.tab = (m.tab - 1 + Tab(len(tabNames))) % Tab(len(tabNames))
		return m, nil
	}

	if !m.ready || m.busy {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Save):
		if !m.changed {
			m.setStatus("Nothing to save", false)
			return m, nil
		}
		m.busy = true
		m.setStatus("Saving...", false)
		return m, m.save()
	case key.Matches(msg, m.keys.Discard):
		m.buf.Reset()
		m.sync()
		m.setStatus("Edits discarded", false)
		return m, nil
	}

	var cmd tea.Cmd
	switch m.tab {
	case TabToday:
		m.todayModel, cmd = m.todayModel.Update(msg)
	case TabHabits:
		m.habitsModel, cmd = m.habitsModel.Update(msg)
	}
	return m, cmd
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if err := m.buf.SetNumericValue(m.editing.ID, m.input.Value(), catalog.GoalFor(m.editing)); err != nil {
			m.setStatus(err.Error(), true)
		}
		m.mode = modeBrowse
		m.input.Blur()
		m.sync()
		return m, nil
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		m.mode = modeBrowse
		m.busy = true
		return m, m.deleteHabit(m.pendingDelete)
	case key.Matches(msg, m.keys.Cancel):
		m.mode = modeBrowse
		m.setStatus("Delete cancelled", false)
	}
	return m, nil
}
