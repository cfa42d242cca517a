package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/hardlog/internal/cli"
	"github.com/julianstephens/hardlog/internal/constants"
	"github.com/julianstephens/hardlog/internal/storage/sqlite"
)

type InitCmd struct {
	Force bool `help:"Delete an existing SQLite database before initializing. A backup is taken first."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if _, ok := ctx.Store.(*sqlite.Store); !ok {
			return fmt.Errorf("--force is only supported for SQLite databases")
		}
		dbPath := ctx.Store.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			if snapshot := ctx.SnapshotDatabase("init --force"); snapshot != "" {
				fmt.Printf("Backed up existing database to: %s\n", snapshot)
			}
			if err := ctx.Store.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			// The closed handle cannot be reopened
			ctx.Store = sqlite.NewStore(dbPath)
			fmt.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Printf("Initialized %s storage at: %s\n", constants.AppName, ctx.Store.GetConfigPath())
	fmt.Printf("Next: create a participant with '%s user create --use'\n", constants.AppName)
	return nil
}
