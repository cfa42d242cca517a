package day

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/hardlog/internal/catalog"
	"github.com/julianstephens/hardlog/internal/cli"
	"github.com/julianstephens/hardlog/internal/entrybuf"
	"github.com/julianstephens/hardlog/internal/models"
)

// LogCmd records today's progress. Without flags it opens a form.
type LogCmd struct {
	Set    []string `help:"Set a numeric habit's value for today." placeholder:"HABIT=VALUE"`
	Toggle []string `help:"Flip a yes/no habit for today." placeholder:"HABIT"`
}

func (c *LogCmd) Run(ctx *cli.Context) error {
	ctrl, err := ctx.PrepareToday()
	if err != nil {
		return err
	}

	buf := entrybuf.New(ctrl, ctx.Store)
	habits := ctrl.ActiveHabits()
	if len(habits) == 0 {
		fmt.Println("No active habits to log.")
		return nil
	}

	if len(c.Set) == 0 && len(c.Toggle) == 0 {
		if err := runForm(buf, habits); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Println("Cancelled.")
				return nil
			}
			return err
		}
	} else if err := applyFlags(buf, habits, c.Set, c.Toggle); err != nil {
		return err
	}

	if !buf.Changed() {
		fmt.Println("Nothing to save.")
		return nil
	}

	res, err := buf.Save(ctx.Background())
	if errors.Is(err, entrybuf.ErrPartialSave) {
		fmt.Printf("⚠ Saved %d of %d habit(s); the rest were not written. Run the command again to retry.\n", res.Saved, res.Submitted)
		return err
	}
	if err != nil {
		return err
	}

	fmt.Printf("✓ Saved %d habit(s)\n", res.Saved)
	if buf.AllComplete() {
		fmt.Println("All habits complete for today!")
	}
	return nil
}

// applyFlags applies --set and --toggle edits to the buffer.
func applyFlags(buf *entrybuf.Buffer, habits []models.Habit, sets, toggles []string) error {
	for _, s := range sets {
		key, raw, ok := strings.Cut(s, "=")
		if !ok {
			return fmt.Errorf("invalid --set %q: expected HABIT=VALUE", s)
		}
		h, found := cli.FindHabit(habits, key)
		if !found {
			return fmt.Errorf("no active habit named %q", key)
		}
		if h.Kind != models.HabitKindNumeric {
			return fmt.Errorf("%q is a yes/no habit, use --toggle", h.Name)
		}
		if _, err := strconv.Atoi(strings.TrimSpace(raw)); err != nil {
			return fmt.Errorf("invalid value for %q: %q is not a whole number", h.Name, raw)
		}
		if err := buf.SetNumericValue(h.ID, raw, catalog.GoalFor(h)); err != nil {
			return err
		}
	}

	for _, key := range toggles {
		h, found := cli.FindHabit(habits, key)
		if !found {
			return fmt.Errorf("no active habit named %q", key)
		}
		if h.Kind != models.HabitKindBoolean {
			return fmt.Errorf("%q is a numeric habit, use --set", h.Name)
		}
		if err := buf.ToggleBoolean(h.ID); err != nil {
			return err
		}
	}
	return nil
}

// runForm asks for every active habit's value, pre-filled from the draft.
func runForm(buf *entrybuf.Buffer, habits []models.Habit) error {
	values := make([]string, len(habits))
	checks := make([]bool, len(habits))
	fields := make([]huh.Field, 0, len(habits))

	for i, h := range habits {
		e, ok := buf.Entry(h.ID)
		if !ok {
			continue
		}
		switch h.Kind {
		case models.HabitKindBoolean:
			checks[i] = e.Completed
			fields = append(fields, huh.NewConfirm().
				Title(h.Name).
				Affirmative("Done").
				Negative("Not yet").
				Value(&checks[i]))
		default:
			values[i] = strconv.Itoa(e.Value)
			fields = append(fields, huh.NewInput().
				Title(h.Name).
				Description(fmt.Sprintf("Goal: %d %s", catalog.GoalFor(h), h.Unit)).
				Value(&values[i]).
				Validate(validateCount))
		}
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return err
	}

	for i, h := range habits {
		e, ok := buf.Entry(h.ID)
		if !ok {
			continue
		}
		switch h.Kind {
		case models.HabitKindBoolean:
			if checks[i] != e.Completed {
				if err := buf.ToggleBoolean(h.ID); err != nil {
					return err
				}
			}
		default:
			if err := buf.SetNumericValue(h.ID, values[i], catalog.GoalFor(h)); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateCount(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if v, err := strconv.Atoi(s); err != nil || v < 0 {
		return errors.New("enter a whole number, 0 or more")
	}
	return nil
}
