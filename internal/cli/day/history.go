package day

import (
	"fmt"

	"github.com/julianstephens/hardlog/internal/cli"
	"github.com/julianstephens/hardlog/internal/utils"
)

type HistoryCmd struct {
	Limit int `help:"Number of days to show (0 for all)." default:"14"`
}

func (c *HistoryCmd) Run(ctx *cli.Context) error {
	ctrl, err := ctx.Ready(ctx.Background())
	if err != nil {
		return err
	}
	days, err := ctrl.History(ctx.Background(), c.Limit)
	if err != nil {
		return err
	}
	if len(days) == 0 {
		fmt.Println("No days logged yet. Run 'hardlog today' to start.")
		return nil
	}

	for _, d := range days {
		mark := " "
		if d.Done() {
			mark = "✓"
		}
		fmt.Printf("  %s %s  %d/%d\n", mark, d.Date, d.Completed, d.Total)
	}
	return nil
}

type StreakCmd struct{}

func (c *StreakCmd) Run(ctx *cli.Context) error {
	ctrl, err := ctx.Ready(ctx.Background())
	if err != nil {
		return err
	}
	streak, err := ctrl.Streak(ctx.Background())
	if err != nil {
		return err
	}
	fmt.Println(utils.ChallengeDay(streak))
	return nil
}
