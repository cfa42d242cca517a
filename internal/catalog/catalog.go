// Package catalog holds the fixed set of habit templates a new participant
// starts the challenge with.
package catalog

import (
	"fmt"
	"strings"

	"github.com/julianstephens/hardlog/internal/models"
)

// Template describes a selectable habit and its daily goal. Boolean habits
// have a goal of 1.
type Template struct {
	ID    string
	Label string
	Unit  string
	Kind  models.HabitKind
	Goal  int
}

var templates = []Template{
	{ID: "diet", Label: "Follow diet plan", Unit: "daily completion", Kind: models.HabitKindBoolean, Goal: 1},
	{ID: "water", Label: "Drink water", Unit: "ounces", Kind: models.HabitKindNumeric, Goal: 128},
	{ID: "workout1", Label: "Complete workout (outdoor)", Unit: "minutes", Kind: models.HabitKindNumeric, Goal: 45},
	{ID: "workout2", Label: "Complete workout (any location)", Unit: "minutes", Kind: models.HabitKindNumeric, Goal: 45},
	{ID: "read", Label: "Read nonfiction book", Unit: "pages", Kind: models.HabitKindNumeric, Goal: 10},
	{ID: "progress_photo", Label: "Take progress photo", Unit: "daily completion", Kind: models.HabitKindBoolean, Goal: 1},
}

// Templates returns a copy of the catalog in display order.
func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

// Defaults returns the habit definitions created for a user with no habits.
func Defaults() []models.HabitDefinition {
	defs := make([]models.HabitDefinition, len(templates))
	for i, t := range templates {
		defs[i] = models.HabitDefinition{Name: t.Label, Unit: t.Unit, Kind: t.Kind}
	}
	return defs
}

// Lookup finds a template by id or label, case-insensitively.
func Lookup(key string) (Template, bool) {
	key = strings.TrimSpace(key)
	for _, t := range templates {
		if strings.EqualFold(t.ID, key) || strings.EqualFold(t.Label, key) {
			return t, true
		}
	}
	return Template{}, false
}

// GoalFor returns the daily goal for a habit. Habits that did not come from
// the catalog count as done at 1.
func GoalFor(h models.Habit) int {
	if t, ok := Lookup(h.Name); ok {
		return t.Goal
	}
	return 1
}

// FormatProgress renders an entry against its habit's goal, e.g.
// "64/128 ounces" or "done".
func FormatProgress(h models.Habit, e models.HabitEntry) string {
	if h.Kind == models.HabitKindBoolean {
		if e.Completed {
			return "done"
		}
		return "not done"
	}
	progress := fmt.Sprintf("%d/%d", e.Value, GoalFor(h))
	if h.Unit != "" {
		progress += " " + h.Unit
	}
	return progress
}
