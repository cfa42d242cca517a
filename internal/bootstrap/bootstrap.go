// Package bootstrap brings a signed-in user's records for today into
// existence: the daily log, then the habit set, then one entry per active
// habit.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/julianstephens/hardlog/internal/auth"
	"github.com/julianstephens/hardlog/internal/logger"
	"github.com/julianstephens/hardlog/internal/models"
	"github.com/julianstephens/hardlog/internal/session"
)

type Step string

const (
	StepDailyLog      Step = "daily-log"
	StepHabits        Step = "habits"
	StepEntries       Step = "habit-entries"
	StepCreateEntries Step = "create-habit-entries"
)

// StepResult records how one step went. Err is nil on success.
type StepResult struct {
	Step Step
	Err  error
}

// Report describes one bootstrap run. Steps lists every step attempted, in
// order; a failed step is always the last one.
type Report struct {
	UserID  string
	Steps   []StepResult
	Entries []models.HabitEntry
	// Created is set when entries had to be created during this run.
	Created bool
}

// Err returns the error of the failed step, if any.
func (r Report) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return s.Err
		}
	}
	return nil
}

// FailedStep returns the step that failed, or "".
func (r Report) FailedStep() Step {
	for _, s := range r.Steps {
		if s.Err != nil {
			return s.Step
		}
	}
	return ""
}

// Sequencer runs the bootstrap steps for a session controller. Runs for the
// same session generation share one in-flight sequence.
type Sequencer struct {
	ctrl  *session.Controller
	group singleflight.Group
	wg    sync.WaitGroup
}

func New(ctrl *session.Controller) *Sequencer {
	return &Sequencer{ctrl: ctrl}
}

// Run performs the steps in order and stops at the first failure, leaving
// whatever was cached so a later run resumes from there. It never retries.
func (s *Sequencer) Run(ctx context.Context) Report {
	userID, gen := s.ctrl.Generation()
	if userID == "" {
		return Report{Steps: []StepResult{{Step: StepDailyLog, Err: auth.ErrNoUser}}}
	}

	v, _, shared := s.group.Do(fmt.Sprintf("%s/%d", userID, gen), func() (any, error) {
		return s.run(ctx, userID), nil
	})
	if shared {
		logger.Debug("Joined in-flight bootstrap", "user", userID)
	}
	r := v.(Report)
	// Callers may keep the report; do not share its slices
	r.Steps = append([]StepResult(nil), r.Steps...)
	r.Entries = append([]models.HabitEntry(nil), r.Entries...)
	return r
}

func (s *Sequencer) run(ctx context.Context, userID string) Report {
	r := Report{UserID: userID}
	record := func(step Step, err error) bool {
		r.Steps = append(r.Steps, StepResult{Step: step, Err: err})
		if err == nil {
			return true
		}
		if errors.Is(err, session.ErrStale) {
			logger.Debug("Bootstrap superseded by session change", "user", userID, "step", step)
		} else {
			logger.Error("Bootstrap step failed", "user", userID, "step", step, "error", err)
		}
		return false
	}

	if _, err := s.ctrl.EnsureDailyLog(ctx); !record(StepDailyLog, err) {
		return r
	}
	if _, err := s.ctrl.EnsureHabits(ctx); !record(StepHabits, err) {
		return r
	}

	entries, present, err := s.ctrl.EnsureHabitEntries(ctx)
	if !record(StepEntries, err) {
		return r
	}
	if present {
		r.Entries = entries
		return r
	}

	entries, err = s.ctrl.CreateHabitEntriesIfMissing(ctx)
	if !record(StepCreateEntries, err) {
		return r
	}
	r.Entries = entries
	r.Created = true
	logger.Debug("Bootstrap complete", "user", userID, "entries", len(entries))
	return r
}

// Start makes the controller follow sess and bootstraps the current user
// and every user signed in later, in the background. onDone, if set,
// receives each report. The returned func unsubscribes and waits for
// running bootstraps.
func (s *Sequencer) Start(ctx context.Context, sess auth.Session, onDone func(Report)) (stop func()) {
	trigger := func(userID string) {
		// Reset before running so the run cannot see the previous user's cache
		s.ctrl.SetUser(userID)
		if userID == "" {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			r := s.Run(ctx)
			if onDone != nil {
				onDone(r)
			}
		}()
	}

	unsubscribe := sess.Subscribe(trigger)
	userID, _ := sess.CurrentUserID()
	trigger(userID)

	return func() {
		unsubscribe()
		s.wg.Wait()
	}
}
