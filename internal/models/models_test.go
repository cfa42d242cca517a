package models

import (
	"testing"
	"time"
)

func TestFilterActiveEntries(t *testing.T) {
	habits := []Habit{
		{ID: "water", Active: true},
		{ID: "read", Active: false},
	}
	entries := []HabitEntry{
		{ID: "e1", HabitID: "water"},
		{ID: "e2", HabitID: "read"},
		{ID: "e3", HabitID: "unknown"},
	}

	got := FilterActiveEntries(entries, habits)
	if len(got) != 1 || got[0].ID != "e1" {
		t.Fatalf("FilterActiveEntries() = %+v, want only e1", got)
	}
}

func TestHabitEntryEqual(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	base := HabitEntry{ID: "e1", DailyLogID: "l1", HabitID: "h1", Value: 3, CreatedAt: now, UpdatedAt: now}

	tests := []struct {
		name   string
		mutate func(e *HabitEntry)
		want   bool
	}{
		{name: "identical", mutate: func(e *HabitEntry) {}, want: true},
		{name: "same instant other zone", mutate: func(e *HabitEntry) { e.UpdatedAt = now.In(time.FixedZone("x", 3600)) }, want: true},
		{name: "value differs", mutate: func(e *HabitEntry) { e.Value = 4 }, want: false},
		{name: "completion differs", mutate: func(e *HabitEntry) { e.Completed = true }, want: false},
		{name: "updated_at differs", mutate: func(e *HabitEntry) { e.UpdatedAt = now.Add(time.Second) }, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base
			tt.mutate(&other)
			if got := base.Equal(other); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserDisplayName(t *testing.T) {
	if got := (User{Email: "a@b.c"}).DisplayName(); got != "a@b.c" {
		t.Errorf("DisplayName() = %q, want email fallback", got)
	}
	if got := (User{Email: "a@b.c", Name: "Ann"}).DisplayName(); got != "Ann" {
		t.Errorf("DisplayName() = %q, want %q", got, "Ann")
	}
}
