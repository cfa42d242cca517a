package habits

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/hardlog/internal/catalog"
	"github.com/julianstephens/hardlog/internal/cli"
	"github.com/julianstephens/hardlog/internal/models"
)

type HabitCmd struct {
	List   HabitListCmd   `cmd:"" help:"List habits." default:"1"`
	Toggle HabitToggleCmd `cmd:"" help:"Activate or deactivate a habit."`
	Delete HabitDeleteCmd `cmd:"" help:"Delete a habit and its history."`
}

type HabitListCmd struct{}

func (c *HabitListCmd) Run(ctx *cli.Context) error {
	ctrl, err := ctx.Ready(ctx.Background())
	if err != nil {
		return err
	}
	habits, err := ctrl.EnsureHabits(ctx.Background())
	if err != nil {
		return err
	}

	for _, h := range habits {
		status := "active"
		if !h.Active {
			status = "inactive"
		}
		fmt.Printf("  %-32s %-8s %s\n", h.Name, status, describeGoal(h))
	}
	return nil
}

func describeGoal(h models.Habit) string {
	if h.Kind == models.HabitKindBoolean {
		return "yes/no"
	}
	return fmt.Sprintf("goal %d %s", catalog.GoalFor(h), h.Unit)
}

type HabitToggleCmd struct {
	Habit string `arg:"" help:"Habit name or catalog id."`
}

func (c *HabitToggleCmd) Run(ctx *cli.Context) error {
	ctrl, err := ctx.Ready(ctx.Background())
	if err != nil {
		return err
	}
	habits, err := ctrl.EnsureHabits(ctx.Background())
	if err != nil {
		return err
	}
	h, ok := cli.FindHabit(habits, c.Habit)
	if !ok {
		return fmt.Errorf("no habit named %q", c.Habit)
	}

	updated, err := ctrl.ToggleHabitActive(ctx.Background(), h.ID)
	if err != nil {
		return err
	}
	if updated.Active {
		fmt.Printf("✓ Activated %s\n", updated.Name)
	} else {
		fmt.Printf("✓ Deactivated %s\n", updated.Name)
	}
	return nil
}

type HabitDeleteCmd struct {
	Habit string `arg:"" help:"Habit name or catalog id."`
	Yes   bool   `short:"y" help:"Do not ask for confirmation."`
}

func (c *HabitDeleteCmd) Run(ctx *cli.Context) error {
	ctrl, err := ctx.Ready(ctx.Background())
	if err != nil {
		return err
	}
	habits, err := ctrl.EnsureHabits(ctx.Background())
	if err != nil {
		return err
	}
	h, ok := cli.FindHabit(habits, c.Habit)
	if !ok {
		return fmt.Errorf("no habit named %q", c.Habit)
	}

	if !c.Yes {
		confirmed := false
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Delete %q?", h.Name)).
			Description("Every logged entry for this habit is deleted too.").
			Value(&confirmed).
			Run()
		if err != nil && !errors.Is(err, huh.ErrUserAborted) {
			return err
		}
		if !confirmed {
			fmt.Println("Delete cancelled.")
			return nil
		}
	}

	if err := ctrl.DeleteHabit(ctx.Background(), h.ID); err != nil {
		return err
	}
	fmt.Printf("✓ Deleted %s\n", h.Name)
	return nil
}
