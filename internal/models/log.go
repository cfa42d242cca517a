package models

import "time"

// DailyLog anchors a user's habit entries to one calendar day
type DailyLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"` // YYYY-MM-DD format
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HabitEntry represents one habit's progress within a daily log
type HabitEntry struct {
	ID         string    `json:"id"`
	DailyLogID string    `json:"daily_log_id"`
	HabitID    string    `json:"habit_id"`
	Value      int       `json:"value"`
	Completed  bool      `json:"is_completed"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Equal compares every field, timestamps included.
func (e HabitEntry) Equal(o HabitEntry) bool {
	return e.ID == o.ID &&
		e.DailyLogID == o.DailyLogID &&
		e.HabitID == o.HabitID &&
		e.Value == o.Value &&
		e.Completed == o.Completed &&
		e.CreatedAt.Equal(o.CreatedAt) &&
		e.UpdatedAt.Equal(o.UpdatedAt)
}

// EntryChanges carries the mutable fields of a habit entry
type EntryChanges struct {
	Value     int  `json:"value"`
	Completed bool `json:"is_completed"`
}

// EntryUpdate pairs an entry id with the fields to write
type EntryUpdate struct {
	ID      string       `json:"id"`
	Changes EntryChanges `json:"changes"`
}

// FilterActiveEntries keeps entries whose habit is present and active in habits.
func FilterActiveEntries(entries []HabitEntry, habits []Habit) []HabitEntry {
	active := make(map[string]bool, len(habits))
	for _, h := range habits {
		if h.Active {
			active[h.ID] = true
		}
	}
	filtered := make([]HabitEntry, 0, len(entries))
	for _, e := range entries {
		if active[e.HabitID] {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
