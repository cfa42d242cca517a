package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/julianstephens/hardlog/internal/catalog"
	"github.com/julianstephens/hardlog/internal/models"
	"github.com/julianstephens/hardlog/internal/storage"
)

// TestStore_Integration tests PostgreSQL store with a real database
// Set POSTGRES_TEST_URL environment variable to run this test
// Example: POSTGRES_TEST_URL="postgres://hardlog_user@localhost:5432/hardlog_test?sslmode=disable"
func TestStore_Integration(t *testing.T) {
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}

	store := New(connStr)
	if err := store.Init(); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	user, err := store.CreateUser(ctx, uuid.New().String()+"@example.com", "")
	if err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	var log models.DailyLog
	t.Run("DailyLogs", func(t *testing.T) {
		if _, err := store.GetDailyLog(ctx, user.ID, "2026-10-19"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound before create, got %v", err)
		}
		log, err = store.CreateDailyLog(ctx, user.ID, "2026-10-19")
		if err != nil {
			t.Fatalf("Failed to create daily log: %v", err)
		}
		if log.Date != "2026-10-19" {
			t.Errorf("Expected date 2026-10-19, got %s", log.Date)
		}
		if _, err := store.CreateDailyLog(ctx, user.ID, "2026-10-19"); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("expected ErrConflict on duplicate, got %v", err)
		}
	})

	var habits []models.Habit
	t.Run("Habits", func(t *testing.T) {
		habits, err = store.CreateHabits(ctx, user.ID, catalog.Defaults())
		if err != nil {
			t.Fatalf("Failed to create habits: %v", err)
		}
		got, err := store.GetHabits(ctx, user.ID)
		if err != nil {
			t.Fatalf("Failed to get habits: %v", err)
		}
		if len(got) != len(habits) {
			t.Errorf("Expected %d habits, got %d", len(habits), len(got))
		}

		inactive := false
		updated, err := store.UpdateHabit(ctx, habits[0].ID, models.HabitChanges{Active: &inactive})
		if err != nil {
			t.Fatalf("Failed to update habit: %v", err)
		}
		if updated.Active {
			t.Error("Expected habit to be inactive")
		}
	})

	t.Run("Entries", func(t *testing.T) {
		if log.ID == "" || len(habits) < 2 {
			t.Skip("depends on DailyLogs and Habits")
		}
		created, err := store.CreateHabitEntries(ctx, log.ID, []string{habits[0].ID, habits[1].ID})
		if err != nil {
			t.Fatalf("Failed to create entries: %v", err)
		}

		updated, err := store.BatchUpdateHabitEntries(ctx, []models.EntryUpdate{
			{ID: created[1].ID, Changes: models.EntryChanges{Value: 64}},
			{ID: uuid.New().String(), Changes: models.EntryChanges{Value: 1}},
		})
		if err != nil {
			t.Fatalf("Batch update failed: %v", err)
		}
		if len(updated) != 1 || updated[0].Value != 64 {
			t.Errorf("Expected one updated row with value 64, got %+v", updated)
		}
	})
}
