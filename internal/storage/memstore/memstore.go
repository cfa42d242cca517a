// Package memstore is an in-memory storage.Repository with the same
// uniqueness rules as the SQL backends. Habit and log owners are not
// checked against the users table. It counts calls per method and can
// inject failures, which makes it the fake of choice for controller tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/hardlog/internal/models"
	"github.com/julianstephens/hardlog/internal/storage"
)

// Method names accepted by Calls, FailOn and FailNext.
const (
	MethodGetUser                 = "GetUser"
	MethodGetUserByEmail          = "GetUserByEmail"
	MethodCreateUser              = "CreateUser"
	MethodUpdateUserName          = "UpdateUserName"
	MethodGetHabits               = "GetHabits"
	MethodCreateHabits            = "CreateHabits"
	MethodUpdateHabit             = "UpdateHabit"
	MethodDeleteHabit             = "DeleteHabit"
	MethodGetDailyLog             = "GetDailyLog"
	MethodCreateDailyLog          = "CreateDailyLog"
	MethodListDailyLogs           = "ListDailyLogs"
	MethodGetHabitEntries         = "GetHabitEntries"
	MethodCreateHabitEntries      = "CreateHabitEntries"
	MethodBatchUpdateHabitEntries = "BatchUpdateHabitEntries"
	MethodDeleteHabitEntry        = "DeleteHabitEntry"
)

type Store struct {
	mu sync.Mutex

	users   map[string]models.User
	habits  map[string]models.Habit
	order   []string // habit ids in insertion order
	logs    map[string]models.DailyLog
	entries map[string]models.HabitEntry

	calls    map[string]int
	failOn   map[string]error
	failNext map[string]error
	rejected map[string]bool

	// Hook, when set, runs at the start of every call before any state is
	// touched. Tests use it to hold calls in flight.
	Hook func(method string)

	now func() time.Time
}

var _ storage.Provider = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    make(map[string]models.User),
		habits:   make(map[string]models.Habit),
		logs:     make(map[string]models.DailyLog),
		entries:  make(map[string]models.HabitEntry),
		calls:    make(map[string]int),
		failOn:   make(map[string]error),
		failNext: make(map[string]error),
		rejected: make(map[string]bool),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// The lifecycle methods are no-ops so the store can stand in for a
// database-backed provider.
func (s *Store) Init() error  { return nil }
func (s *Store) Load() error  { return nil }
func (s *Store) Close() error { return nil }

func (s *Store) GetConfigPath() string {
	return "memory"
}

// Calls returns how many times method has been invoked.
func (s *Store) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// ResetCalls zeroes every counter.
func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
}

// FailOn makes every call to method return err until cleared with a nil err.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failOn, method)
		return
	}
	s.failOn[method] = err
}

// FailNext makes only the next call to method return err.
func (s *Store) FailNext(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[method] = err
}

// RejectEntryUpdates makes BatchUpdateHabitEntries drop the given entry ids.
func (s *Store) RejectEntryUpdates(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.rejected[id] = true
	}
}

// begin counts the call and returns an injected failure, if any. The
// caller holds s.mu on success.
func (s *Store) begin(ctx context.Context, method string) error {
	if s.Hook != nil {
		s.Hook(method)
	}
	if err := ctx.Err(); err != nil {
		return storage.Wrap(method, storage.ErrTransport, err)
	}

	s.mu.Lock()
	s.calls[method]++
	if err, ok := s.failNext[method]; ok {
		delete(s.failNext, method)
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", method, err)
	}
	if err, ok := s.failOn[method]; ok {
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func notFound(op string) error {
	return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
}

func conflict(op string) error {
	return fmt.Errorf("%s: %w", op, storage.ErrConflict)
}

// Users

func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	if err := s.begin(ctx, MethodGetUser); err != nil {
		return models.User{}, err
	}
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, notFound("get user")
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	if err := s.begin(ctx, MethodGetUserByEmail); err != nil {
		return models.User{}, err
	}
	defer s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, notFound("get user by email")
}

func (s *Store) CreateUser(ctx context.Context, email, name string) (models.User, error) {
	if err := s.begin(ctx, MethodCreateUser); err != nil {
		return models.User{}, err
	}
	defer s.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return models.User{}, conflict("create user")
		}
	}
	u := models.User{ID: uuid.New().String(), Email: email, Name: strings.TrimSpace(name), CreatedAt: s.now()}
	s.users[u.ID] = u
	return u, nil
}

func (s *Store) UpdateUserName(ctx context.Context, id, name string) (models.User, error) {
	if err := s.begin(ctx, MethodUpdateUserName); err != nil {
		return models.User{}, err
	}
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, notFound("update user")
	}
	u.Name = strings.TrimSpace(name)
	s.users[id] = u
	return u, nil
}

// Habits

func (s *Store) GetHabits(ctx context.Context, userID string) ([]models.Habit, error) {
	if err := s.begin(ctx, MethodGetHabits); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	return s.habitsFor(userID), nil
}

func (s *Store) habitsFor(userID string) []models.Habit {
	habits := []models.Habit{}
	for _, id := range s.order {
		if h, ok := s.habits[id]; ok && h.UserID == userID {
			habits = append(habits, h)
		}
	}
	return habits
}

func (s *Store) CreateHabits(ctx context.Context, userID string, defs []models.HabitDefinition) ([]models.Habit, error) {
	if err := s.begin(ctx, MethodCreateHabits); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	// All-or-nothing: validate every name before inserting
	taken := make(map[string]bool)
	for _, h := range s.habitsFor(userID) {
		taken[h.Name] = true
	}
	for _, def := range defs {
		name := strings.TrimSpace(def.Name)
		if taken[name] {
			return nil, conflict("create habits")
		}
		taken[name] = true
	}

	ts := s.now()
	created := make([]models.Habit, 0, len(defs))
	for _, def := range defs {
		h := models.Habit{
			ID:        uuid.New().String(),
			UserID:    userID,
			Name:      strings.TrimSpace(def.Name),
			Unit:      def.Unit,
			Kind:      def.Kind,
			Active:    true,
			CreatedAt: ts,
			UpdatedAt: ts,
		}
		s.habits[h.ID] = h
		s.order = append(s.order, h.ID)
		created = append(created, h)
	}
	return created, nil
}

func (s *Store) UpdateHabit(ctx context.Context, id string, changes models.HabitChanges) (models.Habit, error) {
	if err := s.begin(ctx, MethodUpdateHabit); err != nil {
		return models.Habit{}, err
	}
	defer s.mu.Unlock()

	h, ok := s.habits[id]
	if !ok {
		return models.Habit{}, notFound("update habit")
	}
	if changes.Empty() {
		return h, nil
	}
	if changes.Name != nil {
		name := strings.TrimSpace(*changes.Name)
		for _, other := range s.habitsFor(h.UserID) {
			if other.ID != id && other.Name == name {
				return models.Habit{}, conflict("update habit")
			}
		}
		h.Name = name
	}
	if changes.Unit != nil {
		h.Unit = *changes.Unit
	}
	if changes.Active != nil {
		h.Active = *changes.Active
	}
	h.UpdatedAt = s.now()
	s.habits[id] = h
	return h, nil
}

func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	if err := s.begin(ctx, MethodDeleteHabit); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if _, ok := s.habits[id]; !ok {
		return notFound("delete habit")
	}
	delete(s.habits, id)
	for eid, e := range s.entries {
		if e.HabitID == id {
			delete(s.entries, eid)
		}
	}
	return nil
}

// Daily logs

func (s *Store) GetDailyLog(ctx context.Context, userID, date string) (models.DailyLog, error) {
	if err := s.begin(ctx, MethodGetDailyLog); err != nil {
		return models.DailyLog{}, err
	}
	defer s.mu.Unlock()

	for _, l := range s.logs {
		if l.UserID == userID && l.Date == date {
			return l, nil
		}
	}
	return models.DailyLog{}, notFound("get daily log")
}

func (s *Store) CreateDailyLog(ctx context.Context, userID, date string) (models.DailyLog, error) {
	if err := s.begin(ctx, MethodCreateDailyLog); err != nil {
		return models.DailyLog{}, err
	}
	defer s.mu.Unlock()

	for _, l := range s.logs {
		if l.UserID == userID && l.Date == date {
			return models.DailyLog{}, conflict("create daily log")
		}
	}
	ts := s.now()
	l := models.DailyLog{ID: uuid.New().String(), UserID: userID, Date: date, CreatedAt: ts, UpdatedAt: ts}
	s.logs[l.ID] = l
	return l, nil
}

func (s *Store) ListDailyLogs(ctx context.Context, userID string) ([]models.DailyLog, error) {
	if err := s.begin(ctx, MethodListDailyLogs); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	logs := []models.DailyLog{}
	for _, l := range s.logs {
		if l.UserID == userID {
			logs = append(logs, l)
		}
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].Date > logs[j].Date })
	return logs, nil
}

// Habit entries

func (s *Store) GetHabitEntries(ctx context.Context, dailyLogID string) ([]models.HabitEntry, error) {
	if err := s.begin(ctx, MethodGetHabitEntries); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	return s.entriesFor(dailyLogID), nil
}

// entriesFor lists a log's entries in habit order.
func (s *Store) entriesFor(dailyLogID string) []models.HabitEntry {
	rank := make(map[string]int, len(s.order))
	for i, id := range s.order {
		rank[id] = i
	}
	entries := []models.HabitEntry{}
	for _, e := range s.entries {
		if e.DailyLogID == dailyLogID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return rank[entries[i].HabitID] < rank[entries[j].HabitID] })
	return entries
}

func (s *Store) CreateHabitEntries(ctx context.Context, dailyLogID string, habitIDs []string) ([]models.HabitEntry, error) {
	if err := s.begin(ctx, MethodCreateHabitEntries); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	if _, ok := s.logs[dailyLogID]; !ok {
		return nil, notFound("create habit entries")
	}
	existing := make(map[string]bool)
	for _, e := range s.entriesFor(dailyLogID) {
		existing[e.HabitID] = true
	}
	for _, id := range habitIDs {
		if _, ok := s.habits[id]; !ok {
			return nil, notFound("create habit entries")
		}
		if existing[id] {
			return nil, conflict("create habit entries")
		}
		existing[id] = true
	}

	ts := s.now()
	created := make([]models.HabitEntry, 0, len(habitIDs))
	for _, id := range habitIDs {
		e := models.HabitEntry{ID: uuid.New().String(), DailyLogID: dailyLogID, HabitID: id, CreatedAt: ts, UpdatedAt: ts}
		s.entries[e.ID] = e
		created = append(created, e)
	}
	return created, nil
}

func (s *Store) BatchUpdateHabitEntries(ctx context.Context, updates []models.EntryUpdate) ([]models.HabitEntry, error) {
	if err := s.begin(ctx, MethodBatchUpdateHabitEntries); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()

	updated := make([]models.HabitEntry, 0, len(updates))
	for _, u := range updates {
		e, ok := s.entries[u.ID]
		if !ok || s.rejected[u.ID] || u.Changes.Value < 0 {
			continue
		}
		e.Value = u.Changes.Value
		e.Completed = u.Changes.Completed
		e.UpdatedAt = s.now()
		s.entries[e.ID] = e
		updated = append(updated, e)
	}
	return updated, nil
}

func (s *Store) DeleteHabitEntry(ctx context.Context, id string) error {
	if err := s.begin(ctx, MethodDeleteHabitEntry); err != nil {
		return err
	}
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return notFound("delete habit entry")
	}
	delete(s.entries, id)
	return nil
}
