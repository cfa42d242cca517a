package models

import "time"

type HabitKind string

const (
	HabitKindBoolean HabitKind = "boolean"
	HabitKindNumeric HabitKind = "numeric"
)

// Habit represents a trackable practice owned by one user
type Habit struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit,omitempty"`
	Kind      HabitKind `json:"habit_type"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HabitDefinition is the insert shape for a new habit
type HabitDefinition struct {
	Name string    `json:"name"`
	Unit string    `json:"unit,omitempty"`
	Kind HabitKind `json:"habit_type"`
}

// HabitChanges is a partial update; nil fields are left untouched
type HabitChanges struct {
	Name   *string `json:"name,omitempty"`
	Unit   *string `json:"unit,omitempty"`
	Active *bool   `json:"is_active,omitempty"`
}

// Empty reports whether the changes would touch no column.
func (c HabitChanges) Empty() bool {
	return c.Name == nil && c.Unit == nil && c.Active == nil
}

// FilterActive returns the habits whose active flag is set.
func FilterActive(habits []Habit) []Habit {
	active := make([]Habit, 0, len(habits))
	for _, h := range habits {
		if h.Active {
			active = append(active, h)
		}
	}
	return active
}

// IndexHabits maps habits by id.
func IndexHabits(habits []Habit) map[string]Habit {
	byID := make(map[string]Habit, len(habits))
	for _, h := range habits {
		byID[h.ID] = h
	}
	return byID
}
