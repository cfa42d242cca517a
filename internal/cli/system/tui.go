package system

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/hardlog/internal/cli"
	"github.com/julianstephens/hardlog/internal/tui"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	ctrl, err := ctx.Ready(ctx.Background())
	if err != nil {
		return err
	}

	ctx.SnapshotDatabase("tui startup")

	runCtx, cancel := context.WithCancel(ctx.Background())
	model := tui.New(runCtx, ctrl, ctx.Store)
	stop := model.Follow(ctx.Auth)

	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(runCtx)).Run()
	cancel()
	stop()
	if err != nil {
		return fmt.Errorf("tui exited with an error: %w", err)
	}
	return nil
}
