// Package today renders the day's active habits with their draft progress
// and a cursor.
package today

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/hardlog/internal/catalog"
	"github.com/julianstephens/hardlog/internal/entrybuf"
	"github.com/julianstephens/hardlog/internal/models"
)

// EditValueMsg asks the parent to prompt for a numeric habit's value.
type EditValueMsg struct {
	Habit models.Habit
	Entry models.HabitEntry
}

// ToggleMsg asks the parent to flip a yes/no habit in the draft.
type ToggleMsg struct {
	Habit models.Habit
}

type Row struct {
	Habit models.Habit
	Entry models.HabitEntry
}

type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter/space", "log"),
		),
	}
}

var (
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
)

type Model struct {
	rows   []Row
	cursor int
	keys   KeyMap
}

func New() Model {
	return Model{keys: DefaultKeyMap()}
}

func (m Model) Keys() KeyMap {
	return m.keys
}

// SetRows pairs draft entries with their habits, keeping the habits' order.
// Entries whose habit is unknown are skipped.
func (m *Model) SetRows(habits []models.Habit, entries []models.HabitEntry) {
	byHabit := make(map[string]models.HabitEntry, len(entries))
	for _, e := range entries {
		byHabit[e.HabitID] = e
	}
	rows := make([]Row, 0, len(habits))
	for _, h := range habits {
		if e, ok := byHabit[h.ID]; ok {
			rows = append(rows, Row{Habit: h, Entry: e})
		}
	}
	m.rows = rows
	m.cursor = min(m.cursor, max(len(m.rows)-1, 0))
}

func (m Model) Rows() []Row {
	return m.rows
}

// Selected returns the row under the cursor.
func (m Model) Selected() (Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return Row{}, false
	}
	return m.rows[m.cursor], true
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, m.keys.Select):
		row, ok := m.Selected()
		if !ok {
			return m, nil
		}
		if row.Habit.Kind == models.HabitKindBoolean {
			return m, func() tea.Msg { return ToggleMsg{Habit: row.Habit} }
		}
		return m, func() tea.Msg { return EditValueMsg{Habit: row.Habit, Entry: row.Entry} }
	}
	return m, nil
}

func (m Model) View() string {
	if len(m.rows) == 0 {
		return "\n  No active habits.\n  Reactivate one on the Habits tab."
	}

	var b strings.Builder
	for i, r := range m.rows {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("› ")
		}
		mark := "○"
		if r.Entry.Completed {
			mark = doneStyle.Render("✓")
		}
		fmt.Fprintf(&b, "%s%s %-32s %s", cursor, mark, r.Habit.Name, catalog.FormatProgress(r.Habit, r.Entry))
		if r.Habit.Kind == models.HabitKindNumeric {
			if left := entrybuf.Remaining(r.Entry.Value, catalog.GoalFor(r.Habit)); left > 0 {
				b.WriteString(hintStyle.Render(fmt.Sprintf("  %d %s more to reach goal", left, r.Habit.Unit)))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
