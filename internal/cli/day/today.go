package day

import (
	"fmt"

	"github.com/julianstephens/hardlog/internal/catalog"
	"github.com/julianstephens/hardlog/internal/cli"
	"github.com/julianstephens/hardlog/internal/entrybuf"
	"github.com/julianstephens/hardlog/internal/models"
	"github.com/julianstephens/hardlog/internal/utils"
)

type TodayCmd struct{}

func (c *TodayCmd) Run(ctx *cli.Context) error {
	ctrl, err := ctx.PrepareToday()
	if err != nil {
		return err
	}

	user, err := ctrl.CurrentUser(ctx.Background())
	if err != nil {
		return err
	}
	streak, err := ctrl.Streak(ctx.Background())
	if err != nil {
		return err
	}

	fmt.Printf("%s · %s · %s\n\n", user.DisplayName(), ctrl.Today(), utils.ChallengeDay(streak))

	habits := models.IndexHabits(ctrl.ActiveHabits())
	entries := ctrl.ActiveEntries()
	if len(entries) == 0 {
		fmt.Println("No active habits. Use 'hardlog habit toggle' to reactivate one.")
		return nil
	}

	done := 0
	for _, e := range entries {
		h := habits[e.HabitID]
		mark := "○"
		if e.Completed {
			mark = "✓"
			done++
		}
		fmt.Printf("  %s %-32s %s", mark, h.Name, catalog.FormatProgress(h, e))
		if h.Kind == models.HabitKindNumeric && !e.Completed {
			if left := entrybuf.Remaining(e.Value, catalog.GoalFor(h)); left > 0 {
				fmt.Printf("  (%d %s more to reach goal)", left, h.Unit)
			}
		}
		fmt.Println()
	}

	fmt.Println()
	if done == len(entries) {
		fmt.Println("All habits complete for today!")
	} else {
		fmt.Printf("%d of %d habits complete.\n", done, len(entries))
	}
	return nil
}
