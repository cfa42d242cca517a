package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/hardlog/internal/catalog"
	"github.com/julianstephens/hardlog/internal/constants"
	"github.com/julianstephens/hardlog/internal/utils"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch {
	case !m.ready && m.loadErr == nil:
		content = docStyle.Render("Loading today's habits...")
	case !m.ready:
		content = docStyle.Render(dangerStyle.Render("Could not load today's habits.") + "\nPress q to quit.")
	case m.tab == TabHabits:
		content = m.viewHabits()
	default:
		content = m.viewToday()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewHeader(),
		m.viewTabs(),
		content,
		m.viewStatus(),
		m.help.View(m.keys),
	)
}

func (m Model) viewHeader() string {
	return headerStyle.Render(fmt.Sprintf("%s · %s · %s", constants.AppName, m.ctrl.Today(), utils.ChallengeDay(m.streak)))
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range tabNames {
		if m.tab == Tab(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewToday() string {
	body := m.todayModel.View()

	if m.mode == modeEditValue {
		prompt := fmt.Sprintf("\n%s (goal %d %s): ", m.editing.Name, catalog.GoalFor(m.editing), m.editing.Unit)
		body += prompt + m.input.View() + "\n" + disabledStyle.Render("enter to set · esc to cancel")
	}

	if m.complete {
		body += "\n" + successStyle.Render("All habits complete for today!")
	}
	if m.changed {
		body += "\n" + warningStyle.Render("Unsaved edits · s save · r discard")
	} else {
		body += "\n" + disabledStyle.Render("Nothing to save")
	}
	return docStyle.Render(body)
}

func (m Model) viewHabits() string {
	if m.mode == modeConfirmDelete {
		return lipgloss.Place(m.width, max(m.height-6, 5),
			lipgloss.Center, lipgloss.Center,
			lipgloss.JoinVertical(lipgloss.Center,
				dangerStyle.Render(fmt.Sprintf("Delete %q and all of its entries?", m.pendingDelete.Name)),
				"",
				"[y] Yes",
				"[n] No",
			),
		)
	}
	return docStyle.Render(m.habitsModel.View())
}

func (m Model) viewStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return warningStyle.Render(" " + m.status)
	}
	return " " + m.status
}
