package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/hardlog/internal/bootstrap"
	"github.com/julianstephens/hardlog/internal/session"
	"github.com/julianstephens/hardlog/internal/storage"
	"github.com/julianstephens/hardlog/internal/storage/memstore"
)

func setupModel(t *testing.T) (Model, *memstore.Store) {
	t.Helper()
	ctx := context.Background()
	store := memstore.New()
	u, err := store.CreateUser(ctx, "ada@example.com", "Ada")
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	ctrl := session.New(store, session.WithLocation(time.UTC))
	ctrl.SetUser(u.ID)
	m := New(ctx, ctrl, store)

	// The returned command waits on the follow channel; tests never run it
	updated, _ := m.Update(reportMsg(m.seq.Run(ctx)))
	return updated.(Model), store
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(t *testing.T, m Model, k string) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(keyMsg(k))
	return updated.(Model), cmd
}

// exec runs one command and feeds its message back into the model.
func exec(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	updated, next := m.Update(cmd())
	return updated.(Model), next
}

func TestReportPopulatesRows(t *testing.T) {
	m, _ := setupModel(t)

	if !m.ready {
		t.Fatal("model not ready after a successful report")
	}
	if got := len(m.todayModel.Rows()); got != 6 {
		t.Errorf("today shows %d rows, want 6", got)
	}
	if m.changed {
		t.Error("fresh draft reported as changed")
	}
	if view := m.View(); !strings.Contains(view, "Nothing to save") {
		t.Errorf("view does not show save as disabled:\n%s", view)
	}
}

func TestEditNumericValueAndSave(t *testing.T) {
	m, store := setupModel(t)

	// Row 0 is the diet plan, row 1 is water
	m, _ = press(t, m, "down")
	m, cmd := press(t, m, "enter")
	m, _ = exec(t, m, cmd)
	if m.mode != modeEditValue || m.editing.Name != "Drink water" {
		t.Fatalf("mode = %v editing %q, want water value prompt", m.mode, m.editing.Name)
	}

	m.input.SetValue("64")
	m, _ = press(t, m, "enter")
	if m.mode != modeBrowse {
		t.Fatal("enter did not leave the value prompt")
	}
	if !m.changed {
		t.Fatal("draft not marked changed after editing a value")
	}

	m, cmd = press(t, m, "s")
	if !m.busy {
		t.Error("model not busy while saving")
	}
	m, _ = exec(t, m, cmd)
	if m.busy || m.statusErr {
		t.Fatalf("after save busy=%v status=%q", m.busy, m.status)
	}
	if m.changed {
		t.Error("draft still changed after a full save")
	}
	if got := store.Calls(memstore.MethodBatchUpdateHabitEntries); got != 1 {
		t.Errorf("BatchUpdateHabitEntries called %d times, want 1", got)
	}

	for _, e := range m.ctrl.ActiveEntries() {
		if e.Value == 64 {
			return
		}
	}
	t.Error("saved value missing from the refreshed cache")
}

func TestSaveWithoutChangesDoesNothing(t *testing.T) {
	m, store := setupModel(t)

	m, cmd := press(t, m, "s")
	if cmd != nil {
		t.Error("save without edits returned a command")
	}
	if m.status != "Nothing to save" {
		t.Errorf("status = %q, want Nothing to save", m.status)
	}
	if got := store.Calls(memstore.MethodBatchUpdateHabitEntries); got != 0 {
		t.Errorf("BatchUpdateHabitEntries called %d times, want 0", got)
	}
}

func TestToggleAndDiscard(t *testing.T) {
	m, _ := setupModel(t)

	m, cmd := press(t, m, "space")
	m, _ = exec(t, m, cmd)
	if !m.changed {
		t.Fatal("toggling the diet plan did not change the draft")
	}
	if rows := m.todayModel.Rows(); !rows[0].Entry.Completed {
		t.Error("toggled row not shown as completed")
	}

	m, _ = press(t, m, "r")
	if m.changed {
		t.Error("discard left the draft changed")
	}
}

func TestSaveFailureKeepsEdits(t *testing.T) {
	m, store := setupModel(t)

	m, cmd := press(t, m, "space")
	m, _ = exec(t, m, cmd)

	store.FailNext(memstore.MethodBatchUpdateHabitEntries, storage.ErrTransport)
	m, cmd = press(t, m, "s")
	m, _ = exec(t, m, cmd)

	if !m.statusErr || !strings.Contains(m.status, "Save failed") {
		t.Errorf("status = %q, want a save failure", m.status)
	}
	if !m.changed {
		t.Error("failed save dropped the edit")
	}
}

func TestHabitChangesNeedCleanDraft(t *testing.T) {
	m, _ := setupModel(t)

	m, cmd := press(t, m, "space")
	m, _ = exec(t, m, cmd)
	m, _ = press(t, m, "tab")
	m, cmd = press(t, m, "t")
	m, _ = exec(t, m, cmd)

	if !strings.Contains(m.status, "Save or discard") {
		t.Errorf("status = %q, want a request to save first", m.status)
	}
	if len(m.ctrl.ActiveHabits()) != 6 {
		t.Error("habit was deactivated despite unsaved edits")
	}
}

func TestDeactivateHabit(t *testing.T) {
	m, _ := setupModel(t)

	m, _ = press(t, m, "tab")
	m, cmd := press(t, m, "t")
	m, cmd = exec(t, m, cmd) // ToggleActiveMsg
	m, cmd = exec(t, m, cmd) // habitChangedMsg
	if m.statusErr {
		t.Fatalf("toggle failed: %s", m.status)
	}
	m, _ = exec(t, m, cmd) // refreshedMsg

	if got := len(m.todayModel.Rows()); got != 5 {
		t.Errorf("today shows %d rows after deactivating one, want 5", got)
	}
	if got := len(m.ctrl.Habits()); got != 6 {
		t.Errorf("controller holds %d habits, want 6", got)
	}
}

func TestDeleteHabitConfirm(t *testing.T) {
	m, _ := setupModel(t)
	m, _ = press(t, m, "tab")

	m, cmd := press(t, m, "d")
	m, _ = exec(t, m, cmd)
	if m.mode != modeConfirmDelete {
		t.Fatal("delete did not ask for confirmation")
	}
	m, _ = press(t, m, "n")
	if m.mode != modeBrowse || len(m.ctrl.Habits()) != 6 {
		t.Fatal("cancelled delete changed the habits")
	}

	m, cmd = press(t, m, "d")
	m, _ = exec(t, m, cmd)
	m, cmd = press(t, m, "y")
	m, cmd = exec(t, m, cmd) // habitChangedMsg
	m, _ = exec(t, m, cmd)   // refreshedMsg

	if got := len(m.ctrl.Habits()); got != 5 {
		t.Errorf("controller holds %d habits after delete, want 5", got)
	}
}

func TestReportErrors(t *testing.T) {
	m, _ := setupModel(t)

	stale := bootstrap.Report{Steps: []bootstrap.StepResult{{Step: bootstrap.StepDailyLog, Err: session.ErrStale}}}
	updated, _ := m.Update(reportMsg(stale))
	m = updated.(Model)
	if !m.ready || m.statusErr {
		t.Error("stale report replaced a good screen")
	}

	fresh := New(context.Background(), m.ctrl, nil)
	failed := bootstrap.Report{Steps: []bootstrap.StepResult{{Step: bootstrap.StepHabits, Err: errors.New("boom")}}}
	updated, _ = fresh.Update(reportMsg(failed))
	fresh = updated.(Model)
	if fresh.ready || fresh.loadErr == nil {
		t.Fatal("failed report left the screen ready")
	}
	if view := fresh.View(); !strings.Contains(view, "Could not load") {
		t.Errorf("view does not show the load failure:\n%s", view)
	}
}
