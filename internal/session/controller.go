// Package session owns the per-user cache of today's tracking records and
// the ensure operations that materialize them on the store.
//
// The store offers no get-or-create, so each ensure step reads first,
// creates when the row is absent, and treats a uniqueness conflict as
// "someone else created it": re-read and use that row. Steps are
// single-flight per user, so concurrent callers share one remote sequence.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/julianstephens/hardlog/internal/auth"
	"github.com/julianstephens/hardlog/internal/catalog"
	"github.com/julianstephens/hardlog/internal/constants"
	"github.com/julianstephens/hardlog/internal/logger"
	"github.com/julianstephens/hardlog/internal/models"
	"github.com/julianstephens/hardlog/internal/storage"
	"github.com/julianstephens/hardlog/internal/utils"
)

// ErrStale is returned to callers whose load finished after the signed-in
// user changed. The result was discarded.
var ErrStale = errors.New("session changed while loading")

// ErrLastHabit is returned when deleting the only habit a user has left.
var ErrLastHabit = errors.New("cannot delete the last habit; deactivate it instead")

const (
	stepLog           = "log"
	stepHabits        = "habits"
	stepEntries       = "entries"
	stepCreateEntries = "create-entries"
)

// Controller caches one user's daily log, habits and active habit entries.
// All methods are safe for concurrent use. Accessors return copies.
type Controller struct {
	repo  storage.Repository
	loc   *time.Location
	clock func() time.Time

	mu      sync.Mutex
	userID  string
	gen     uint64
	state   constants.SessionState
	log     *models.DailyLog
	habits  []models.Habit
	entries []models.HabitEntry
	// fetched holds every entry last read for fetchedLog, inactive habits
	// included
	fetched    []models.HabitEntry
	fetchedLog string

	group singleflight.Group
}

// Option configures a Controller.
type Option func(*Controller)

// WithLocation sets the timezone that decides which day is "today".
func WithLocation(loc *time.Location) Option {
	return func(c *Controller) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New returns an empty controller with no user.
func New(repo storage.Repository, opts ...Option) *Controller {
	c := &Controller{
		repo:  repo,
		loc:   time.Local,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Watch follows s: the current user is adopted immediately and every later
// change resets the cache. The returned func stops watching.
func (c *Controller) Watch(s auth.Session) (stop func()) {
	userID, _ := s.CurrentUserID()
	c.SetUser(userID)
	return s.Subscribe(c.SetUser)
}

// SetUser clears the cache and starts a new generation for userID. Loads
// still running for the previous user finish with ErrStale.
func (c *Controller) SetUser(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
	c.gen++
	c.state = constants.StateEmpty
	c.log = nil
	c.habits = nil
	c.entries = nil
	c.fetched = nil
	c.fetchedLog = ""
	logger.Debug("Session reset", "user", userID, "generation", c.gen)
}

// Today returns the current date in the controller's timezone.
func (c *Controller) Today() string {
	return utils.DateIn(c.clock(), c.loc)
}

// snapshot returns the active user and generation.
func (c *Controller) snapshot() (string, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userID == "" {
		return "", 0, auth.ErrNoUser
	}
	return c.userID, c.gen, nil
}

func flightKey(step, userID string, gen uint64) string {
	return fmt.Sprintf("%s/%s/%d", step, userID, gen)
}

// begin enters a loading state unless the session is already past it, and
// returns the state to restore on failure. Callers hold c.mu.
func (c *Controller) begin(loading constants.SessionState) constants.SessionState {
	prev := c.state
	if c.state < loading {
		c.state = loading
	}
	return prev
}

// finish settles the state after a load. Other steps may have moved the
// state meanwhile; only our own loading state is rolled back. Callers hold
// c.mu.
func (c *Controller) finish(prev, loading constants.SessionState, err error) {
	if err != nil {
		if c.state == loading {
			c.state = prev
		}
		return
	}
	// Each ready state directly follows its loading state
	c.state = max(c.state, loading+1)
}

// advance records that a step is satisfied from cache. Callers hold c.mu.
func (c *Controller) advance(ready constants.SessionState) {
	if !c.state.Loading() && c.state < ready {
		c.state = ready
	}
}

// invalidateEntries drops cached entries. Callers hold c.mu.
func (c *Controller) invalidateEntries() {
	c.entries = nil
	c.fetched = nil
	c.fetchedLog = ""
	if c.state >= constants.StateEntriesLoading {
		c.state = constants.StateHabitsReady
	}
}

// EnsureDailyLog returns today's log, creating it when the user has none.
// A cached log from an earlier day is dropped along with its entries.
func (c *Controller) EnsureDailyLog(ctx context.Context) (models.DailyLog, error) {
	userID, gen, err := c.snapshot()
	if err != nil {
		return models.DailyLog{}, err
	}
	today := c.Today()

	c.mu.Lock()
	if c.gen == gen && c.log != nil {
		if c.log.Date == today {
			l := *c.log
			c.advance(constants.StateLogReady)
			c.mu.Unlock()
			return l, nil
		}
		logger.Debug("Daily log rolled over", "from", c.log.Date, "to", today)
		c.log = nil
		c.invalidateEntries()
		if len(c.habits) == 0 {
			c.state = constants.StateEmpty
		} else {
			c.state = constants.StateHabitsReady
		}
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(flightKey(stepLog+"/"+today, userID, gen), func() (any, error) {
		c.mu.Lock()
		prev := c.begin(constants.StateLogLoading)
		c.mu.Unlock()

		l, err := c.fetchOrCreateLog(ctx, userID, today)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != gen {
			return nil, ErrStale
		}
		c.finish(prev, constants.StateLogLoading, err)
		if err != nil {
			return nil, err
		}
		c.log = &l
		return l, nil
	})
	if err != nil {
		return models.DailyLog{}, err
	}
	return v.(models.DailyLog), nil
}

func (c *Controller) fetchOrCreateLog(ctx context.Context, userID, date string) (models.DailyLog, error) {
	l, err := c.repo.GetDailyLog(ctx, userID, date)
	if err == nil {
		return l, nil
	}
	if !storage.IsNotFound(err) {
		return models.DailyLog{}, fmt.Errorf("failed to load daily log: %w", err)
	}

	l, err = c.repo.CreateDailyLog(ctx, userID, date)
	if err == nil {
		logger.Info("Created daily log", "user", userID, "date", date)
		return l, nil
	}
	if !storage.IsConflict(err) {
		return models.DailyLog{}, fmt.Errorf("failed to create daily log: %w", err)
	}

	// Lost the race to another session; the row exists now
	l, err = c.repo.GetDailyLog(ctx, userID, date)
	if err != nil {
		return models.DailyLog{}, fmt.Errorf("failed to reload daily log: %w", err)
	}
	return l, nil
}

// EnsureHabits returns the user's habits, active or not. A user with no
// habits gets the catalog defaults, created once.
func (c *Controller) EnsureHabits(ctx context.Context) ([]models.Habit, error) {
	userID, gen, err := c.snapshot()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.gen == gen && len(c.habits) > 0 {
		habits := cloneHabits(c.habits)
		c.advance(constants.StateHabitsReady)
		c.mu.Unlock()
		return habits, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(flightKey(stepHabits, userID, gen), func() (any, error) {
		c.mu.Lock()
		prev := c.begin(constants.StateHabitsLoading)
		c.mu.Unlock()

		habits, err := c.fetchOrCreateHabits(ctx, userID)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != gen {
			return nil, ErrStale
		}
		c.finish(prev, constants.StateHabitsLoading, err)
		if err != nil {
			return nil, err
		}
		c.habits = habits
		return cloneHabits(habits), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Habit), nil
}

func (c *Controller) fetchOrCreateHabits(ctx context.Context, userID string) ([]models.Habit, error) {
	habits, err := c.repo.GetHabits(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load habits: %w", err)
	}
	if len(habits) > 0 {
		return habits, nil
	}

	habits, err = c.repo.CreateHabits(ctx, userID, catalog.Defaults())
	if err == nil {
		logger.Info("Created default habits", "user", userID, "count", len(habits))
		return habits, nil
	}
	if !storage.IsConflict(err) {
		return nil, fmt.Errorf("failed to create habits: %w", err)
	}

	habits, err = c.repo.GetHabits(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload habits: %w", err)
	}
	return habits, nil
}

// EnsureHabitEntries returns today's entries for active habits. The bool is
// false when any active habit has no entry yet; the entries are not cached
// in that case so CreateHabitEntriesIfMissing can fill the gap.
func (c *Controller) EnsureHabitEntries(ctx context.Context) ([]models.HabitEntry, bool, error) {
	if entries, ok := c.cachedEntries(); ok {
		return entries, true, nil
	}

	log, err := c.EnsureDailyLog(ctx)
	if err != nil {
		return nil, false, err
	}
	habits, err := c.EnsureHabits(ctx)
	if err != nil {
		return nil, false, err
	}
	userID, gen, err := c.snapshot()
	if err != nil {
		return nil, false, err
	}

	type result struct {
		entries  []models.HabitEntry
		complete bool
	}
	v, err, _ := c.group.Do(flightKey(stepEntries+"/"+log.ID, userID, gen), func() (any, error) {
		c.mu.Lock()
		prev := c.begin(constants.StateEntriesLoading)
		c.mu.Unlock()

		fetched, err := c.repo.GetHabitEntries(ctx, log.ID)
		if err != nil {
			err = fmt.Errorf("failed to load habit entries: %w", err)
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != gen {
			return nil, ErrStale
		}
		if err != nil {
			c.finish(prev, constants.StateEntriesLoading, err)
			return nil, err
		}

		c.fetched = fetched
		c.fetchedLog = log.ID
		active, missing := activeEntries(fetched, habits)
		if len(active) == 0 || len(missing) > 0 {
			// Absent is not a failure, but the step is not satisfied either
			if c.state == constants.StateEntriesLoading {
				c.state = prev
			}
			return result{entries: active}, nil
		}
		c.entries = active
		c.finish(prev, constants.StateEntriesLoading, nil)
		return result{entries: cloneEntries(active), complete: true}, nil
	})
	if err != nil {
		return nil, false, err
	}
	r := v.(result)
	return cloneEntries(r.entries), r.complete, nil
}

// CreateHabitEntriesIfMissing creates today's entry for every active habit
// that lacks one and returns the full set of active entries.
func (c *Controller) CreateHabitEntriesIfMissing(ctx context.Context) ([]models.HabitEntry, error) {
	if entries, ok := c.cachedEntries(); ok {
		return entries, nil
	}

	log, err := c.EnsureDailyLog(ctx)
	if err != nil {
		return nil, err
	}
	habits, err := c.EnsureHabits(ctx)
	if err != nil {
		return nil, err
	}
	userID, gen, err := c.snapshot()
	if err != nil {
		return nil, err
	}

	v, err, _ := c.group.Do(flightKey(stepCreateEntries+"/"+log.ID, userID, gen), func() (any, error) {
		c.mu.Lock()
		prev := c.begin(constants.StateEntriesLoading)
		fetched := cloneEntries(c.fetched)
		known := c.fetchedLog == log.ID
		c.mu.Unlock()

		all, err := c.createMissingEntries(ctx, log.ID, habits, fetched, known)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen != gen {
			return nil, ErrStale
		}
		c.finish(prev, constants.StateEntriesLoading, err)
		if err != nil {
			return nil, err
		}
		c.fetched = all
		c.fetchedLog = log.ID
		active, _ := activeEntries(all, habits)
		c.entries = active
		return cloneEntries(active), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.HabitEntry), nil
}

func (c *Controller) createMissingEntries(ctx context.Context, logID string, habits []models.Habit, fetched []models.HabitEntry, known bool) ([]models.HabitEntry, error) {
	if !known {
		var err error
		fetched, err = c.repo.GetHabitEntries(ctx, logID)
		if err != nil {
			return nil, fmt.Errorf("failed to load habit entries: %w", err)
		}
	}

	_, missing := activeEntries(fetched, habits)
	if len(missing) == 0 {
		return fetched, nil
	}

	created, err := c.repo.CreateHabitEntries(ctx, logID, missing)
	if err == nil {
		logger.Info("Created habit entries", "log", logID, "count", len(created))
		return append(fetched, created...), nil
	}
	if !storage.IsConflict(err) {
		return nil, fmt.Errorf("failed to create habit entries: %w", err)
	}

	all, err := c.repo.GetHabitEntries(ctx, logID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload habit entries: %w", err)
	}
	return all, nil
}

// cachedEntries returns the cached active entries when they belong to
// today's log.
func (c *Controller) cachedEntries() ([]models.HabitEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userID == "" || len(c.entries) == 0 || c.log == nil || c.log.Date != c.Today() {
		return nil, false
	}
	c.advance(constants.StateEntriesReady)
	return cloneEntries(c.entries), true
}

// activeEntries orders entries by habit and keeps those of active habits. It
// also returns the ids of active habits that have no entry.
func activeEntries(entries []models.HabitEntry, habits []models.Habit) ([]models.HabitEntry, []string) {
	byHabit := make(map[string]models.HabitEntry, len(entries))
	for _, e := range entries {
		byHabit[e.HabitID] = e
	}
	active := make([]models.HabitEntry, 0, len(habits))
	var missing []string
	for _, h := range habits {
		if !h.Active {
			continue
		}
		if e, ok := byHabit[h.ID]; ok {
			active = append(active, e)
		} else {
			missing = append(missing, h.ID)
		}
	}
	return active, missing
}

// ToggleHabitActive flips a habit's active flag on the store and, only once
// that succeeds, patches the cached habit and drops the cached entries.
func (c *Controller) ToggleHabitActive(ctx context.Context, habitID string) (models.Habit, error) {
	userID, gen, err := c.snapshot()
	if err != nil {
		return models.Habit{}, err
	}

	current, err := c.findHabit(ctx, userID, habitID)
	if err != nil {
		return models.Habit{}, err
	}

	active := !current.Active
	updated, err := c.repo.UpdateHabit(ctx, habitID, models.HabitChanges{Active: &active})
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to update habit: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return updated, nil
	}
	for i := range c.habits {
		if c.habits[i].ID == habitID {
			c.habits[i] = updated
		}
	}
	c.invalidateEntries()
	return updated, nil
}

// DeleteHabit removes a habit and its entries from the store, then from the
// cache.
func (c *Controller) DeleteHabit(ctx context.Context, habitID string) error {
	userID, gen, err := c.snapshot()
	if err != nil {
		return err
	}
	if _, err := c.findHabit(ctx, userID, habitID); err != nil {
		return err
	}
	// With no habits left EnsureHabits would hand out the catalog again
	habits, err := c.repo.GetHabits(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load habits: %w", err)
	}
	if len(habits) <= 1 {
		return ErrLastHabit
	}
	if err := c.repo.DeleteHabit(ctx, habitID); err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return nil
	}
	kept := c.habits[:0]
	for _, h := range c.habits {
		if h.ID != habitID {
			kept = append(kept, h)
		}
	}
	c.habits = kept
	c.invalidateEntries()
	return nil
}

// findHabit looks habitID up in the cache, then on the store. Habits of
// other users are reported as not found.
func (c *Controller) findHabit(ctx context.Context, userID, habitID string) (models.Habit, error) {
	c.mu.Lock()
	for _, h := range c.habits {
		if h.ID == habitID {
			c.mu.Unlock()
			return h, nil
		}
	}
	c.mu.Unlock()

	habits, err := c.repo.GetHabits(ctx, userID)
	if err != nil {
		return models.Habit{}, fmt.Errorf("failed to load habits: %w", err)
	}
	for _, h := range habits {
		if h.ID == habitID {
			return h, nil
		}
	}
	return models.Habit{}, fmt.Errorf("habit %s: %w", habitID, storage.ErrNotFound)
}

// Refresh drops the cached entries so the next EnsureHabitEntries re-reads
// them.
func (c *Controller) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateEntries()
}

// Accessors

// UserID returns the signed-in user, or "".
func (c *Controller) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// Generation returns the signed-in user and the session generation, which
// SetUser bumps on every call.
func (c *Controller) Generation() (string, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID, c.gen
}

// State returns where the session is in its load sequence.
func (c *Controller) State() constants.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// DailyLog returns the cached log, if any.
func (c *Controller) DailyLog() (models.DailyLog, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.log == nil {
		return models.DailyLog{}, false
	}
	return *c.log, true
}

// Habits returns the cached habits, inactive ones included.
func (c *Controller) Habits() []models.Habit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneHabits(c.habits)
}

// ActiveHabits returns the cached habits that are being tracked.
func (c *Controller) ActiveHabits() []models.Habit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.FilterActive(c.habits)
}

// ActiveEntries returns today's cached entries for active habits, or nil
// before EnsureHabitEntries has populated them.
func (c *Controller) ActiveEntries() []models.HabitEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneEntries(c.entries)
}

func cloneHabits(habits []models.Habit) []models.Habit {
	if habits == nil {
		return nil
	}
	out := make([]models.Habit, len(habits))
	copy(out, habits)
	return out
}

func cloneEntries(entries []models.HabitEntry) []models.HabitEntry {
	if entries == nil {
		return nil
	}
	out := make([]models.HabitEntry, len(entries))
	copy(out, entries)
	return out
}
