package storage

import (
	"context"

	"github.com/julianstephens/hardlog/internal/models"
)

// Repository is the typed CRUD surface over the four tracker tables. Every
// call is a round trip to the store and may fail with one of the errors in
// errors.go; nothing here retries.
type Repository interface {
	// Users
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	CreateUser(ctx context.Context, email, name string) (models.User, error)
	UpdateUserName(ctx context.Context, id, name string) (models.User, error)

	// Habits
	GetHabits(ctx context.Context, userID string) ([]models.Habit, error)
	// CreateHabits inserts all definitions in one transaction and returns
	// the stored rows with their generated ids.
	CreateHabits(ctx context.Context, userID string, defs []models.HabitDefinition) ([]models.Habit, error)
	UpdateHabit(ctx context.Context, id string, changes models.HabitChanges) (models.Habit, error)
	DeleteHabit(ctx context.Context, id string) error

	// Daily logs
	// GetDailyLog returns ErrNotFound when the user has no log for date.
	GetDailyLog(ctx context.Context, userID, date string) (models.DailyLog, error)
	// CreateDailyLog returns ErrConflict when a log for (userID, date)
	// already exists.
	CreateDailyLog(ctx context.Context, userID, date string) (models.DailyLog, error)
	ListDailyLogs(ctx context.Context, userID string) ([]models.DailyLog, error)

	// Habit entries
	GetHabitEntries(ctx context.Context, dailyLogID string) ([]models.HabitEntry, error)
	// CreateHabitEntries inserts one zero-valued, incomplete entry per habit
	// id in one transaction.
	CreateHabitEntries(ctx context.Context, dailyLogID string, habitIDs []string) ([]models.HabitEntry, error)
	// BatchUpdateHabitEntries applies every update on its own. Updates that
	// fail are left out of the result; the batch itself does not fail.
	BatchUpdateHabitEntries(ctx context.Context, updates []models.EntryUpdate) ([]models.HabitEntry, error)
	DeleteHabitEntry(ctx context.Context, id string) error
}

// Provider is a Repository backed by a database with a lifecycle.
type Provider interface {
	Repository

	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Utils
	GetConfigPath() string
}

// Migrator is implemented by providers whose schema is managed by the
// embedded migration runner.
type Migrator interface {
	// Migrate applies pending migrations and reports how many ran.
	Migrate(logFn func(string)) (int, error)
	// SchemaVersion returns the applied and the newest known schema version.
	SchemaVersion() (current, latest int, err error)
}
