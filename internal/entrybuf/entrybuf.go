// Package entrybuf holds the user's in-progress edits to today's habit
// entries and submits only what changed.
package entrybuf

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/hardlog/internal/logger"
	"github.com/julianstephens/hardlog/internal/models"
)

var (
	// ErrUnknownHabit is returned when no draft entry belongs to the habit.
	ErrUnknownHabit = errors.New("no entry for habit")
	// ErrPartialSave is returned when the store dropped some of the
	// submitted rows. The unsaved edits stay in the draft.
	ErrPartialSave = errors.New("some entries were not saved")
)

// Source is the cache the buffer is seeded from and reloads after a save.
type Source interface {
	ActiveEntries() []models.HabitEntry
	Refresh()
	EnsureHabitEntries(ctx context.Context) ([]models.HabitEntry, bool, error)
}

// Updater persists entry changes.
type Updater interface {
	BatchUpdateHabitEntries(ctx context.Context, updates []models.EntryUpdate) ([]models.HabitEntry, error)
}

// SaveResult reports what a Save sent and what came back.
type SaveResult struct {
	Submitted int
	Saved     int
	// Dropped lists the ids the store did not return.
	Dropped []string
}

// Buffer is a draft copy of the cached active entries. It is not safe for
// concurrent use.
type Buffer struct {
	src      Source
	repo     Updater
	baseline []models.HabitEntry
	draft    []models.HabitEntry
}

// New seeds a buffer from the source's current active entries.
func New(src Source, repo Updater) *Buffer {
	b := &Buffer{src: src, repo: repo}
	b.Reset()
	return b
}

// Reset discards all edits and re-seeds from the source.
func (b *Buffer) Reset() {
	b.baseline = b.src.ActiveEntries()
	b.draft = clone(b.baseline)
}

// Entries returns a copy of the draft.
func (b *Buffer) Entries() []models.HabitEntry {
	return clone(b.draft)
}

// Entry returns the draft entry for habitID.
func (b *Buffer) Entry(habitID string) (models.HabitEntry, bool) {
	i := b.index(habitID)
	if i < 0 {
		return models.HabitEntry{}, false
	}
	return b.draft[i], true
}

func (b *Buffer) index(habitID string) int {
	for i, e := range b.draft {
		if e.HabitID == habitID {
			return i
		}
	}
	return -1
}

// ParseValue reads a numeric input. Anything that is not a non-negative
// integer counts as 0, including prefixed input such as "12abc".
func ParseValue(raw string) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// SetNumericValue stores the parsed raw input and marks the entry completed
// once it reaches goal. A goal below 1 is treated as 1.
func (b *Buffer) SetNumericValue(habitID, raw string, goal int) error {
	i := b.index(habitID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownHabit, habitID)
	}
	goal = max(goal, 1)
	v := ParseValue(raw)
	b.draft[i].Value = v
	b.draft[i].Completed = v >= goal
	return nil
}

// ToggleBoolean flips a yes/no habit between 0 and 1.
func (b *Buffer) ToggleBoolean(habitID string) error {
	i := b.index(habitID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownHabit, habitID)
	}
	if b.draft[i].Value == 0 {
		b.draft[i].Value = 1
	} else {
		b.draft[i].Value = 0
	}
	b.draft[i].Completed = !b.draft[i].Completed
	return nil
}

// Changed reports whether the draft differs from the cached entries.
func (b *Buffer) Changed() bool {
	if len(b.draft) != len(b.baseline) {
		return true
	}
	for i := range b.draft {
		if !b.draft[i].Equal(b.baseline[i]) {
			return true
		}
	}
	return false
}

// AllComplete reports whether every draft entry is completed.
func (b *Buffer) AllComplete() bool {
	if len(b.draft) == 0 {
		return false
	}
	for _, e := range b.draft {
		if !e.Completed {
			return false
		}
	}
	return true
}

// pending returns an update for every draft entry that differs from its
// baseline row.
func (b *Buffer) pending() []models.EntryUpdate {
	base := make(map[string]models.HabitEntry, len(b.baseline))
	for _, e := range b.baseline {
		base[e.ID] = e
	}
	var updates []models.EntryUpdate
	for _, e := range b.draft {
		if old, ok := base[e.ID]; ok && old.Value == e.Value && old.Completed == e.Completed {
			continue
		}
		updates = append(updates, models.EntryUpdate{
			ID:      e.ID,
			Changes: models.EntryChanges{Value: e.Value, Completed: e.Completed},
		})
	}
	return updates
}

// Save submits the changed entries in one batch, then reloads the cache so
// the draft matches the store. When the store drops rows, Save returns
// ErrPartialSave and the draft keeps the unsaved values.
func (b *Buffer) Save(ctx context.Context) (SaveResult, error) {
	updates := b.pending()
	result := SaveResult{Submitted: len(updates)}

	if len(updates) > 0 {
		rows, err := b.repo.BatchUpdateHabitEntries(ctx, updates)
		if err != nil {
			return result, fmt.Errorf("failed to save habit entries: %w", err)
		}
		result.Saved = len(rows)

		returned := make(map[string]models.HabitEntry, len(rows))
		for _, r := range rows {
			returned[r.ID] = r
		}
		for i, e := range b.draft {
			if r, ok := returned[e.ID]; ok {
				b.draft[i] = r
			}
		}
		for _, u := range updates {
			if _, ok := returned[u.ID]; !ok {
				result.Dropped = append(result.Dropped, u.ID)
			}
		}
	}

	b.src.Refresh()
	fresh, _, err := b.src.EnsureHabitEntries(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to reload habit entries: %w", err)
	}
	b.baseline = fresh

	if len(result.Dropped) > 0 {
		logger.Warn("Habit entries not saved", "dropped", len(result.Dropped), "submitted", result.Submitted)
		b.reapply(result.Dropped, updates)
		return result, fmt.Errorf("%w: %d of %d", ErrPartialSave, len(result.Dropped), result.Submitted)
	}

	b.draft = clone(fresh)
	return result, nil
}

// reapply re-seeds the draft from the fresh baseline and puts the unsaved
// edits back on top.
func (b *Buffer) reapply(dropped []string, updates []models.EntryUpdate) {
	lost := make(map[string]models.EntryChanges, len(dropped))
	for _, id := range dropped {
		for _, u := range updates {
			if u.ID == id {
				lost[id] = u.Changes
			}
		}
	}
	b.draft = clone(b.baseline)
	for i, e := range b.draft {
		if c, ok := lost[e.ID]; ok {
			b.draft[i].Value = c.Value
			b.draft[i].Completed = c.Completed
		}
	}
}

// Remaining is how much is left to reach goal, never negative.
func Remaining(value, goal int) int {
	return max(goal-value, 0)
}

func clone(entries []models.HabitEntry) []models.HabitEntry {
	if entries == nil {
		return nil
	}
	out := make([]models.HabitEntry, len(entries))
	copy(out, entries)
	return out
}
