package system

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/hardlog/internal/backup"
	"github.com/julianstephens/hardlog/internal/cli"
	"github.com/julianstephens/hardlog/internal/constants"
	"github.com/julianstephens/hardlog/internal/keyring"
	"github.com/julianstephens/hardlog/internal/storage"
	"github.com/julianstephens/hardlog/internal/storage/sqlite"
	"github.com/julianstephens/hardlog/internal/utils"
)

// skipError marks a check that does not apply to the configured backend.
type skipError struct{ reason string }

func (e skipError) Error() string { return "skipped: " + e.reason }

func skipped(reason string) error {
	return skipError{reason: reason}
}

type check struct {
	name string
	// needsDB checks are skipped when the database is unreachable
	needsDB bool
	// warnOnly failures do not fail the command
	warnOnly bool
	run      func(ctx *cli.Context) error
}

var checks = []check{
	{name: "Schema version", needsDB: true, run: checkSchemaVersion},
	{name: "Migrations complete", needsDB: true, run: checkMigrationsComplete},
	{name: "Backups present", warnOnly: true, run: checkBackupsPresent},
	{name: "Clock/timezone", run: checkClockTimezone},
	{name: "OS keyring", warnOnly: true, run: checkKeyring},
	{name: "Participant selected", needsDB: true, warnOnly: true, run: checkParticipant},
}

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	fmt.Println("Running diagnostics...")
	fmt.Println()

	hasError := false
	dbReachable := true
	if err := checkDBReachable(ctx); err != nil {
		fmt.Printf("❌ Database reachable: FAIL\n")
		fmt.Printf("   Error: %v\n", err)
		hasError = true
		dbReachable = false
	} else {
		fmt.Printf("✓ Database reachable: OK\n")
	}

	for _, c := range checks {
		if c.needsDB && !dbReachable {
			fmt.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		var skip skipError
		switch {
		case err == nil:
			fmt.Printf("✓ %s: OK\n", c.name)
		case errors.As(err, &skip):
			fmt.Printf("⊘ %s: SKIPPED (%s)\n", c.name, skip.reason)
		case c.warnOnly:
			fmt.Printf("⚠ %s: WARNING\n", c.name)
			fmt.Printf("   %v\n", err)
		default:
			fmt.Printf("❌ %s: FAIL\n", c.name)
			fmt.Printf("   Error: %v\n", err)
			hasError = true
		}
	}

	fmt.Println()
	if hasError {
		fmt.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	fmt.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	if s, ok := ctx.Store.(*sqlite.Store); ok {
		db := s.GetDB()
		if db == nil {
			return fmt.Errorf("database connection is nil")
		}
		var result int
		if err := db.QueryRow("SELECT 1").Scan(&result); err != nil {
			return fmt.Errorf("failed to query database: %w", err)
		}
	}
	return nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	m, ok := ctx.Store.(storage.Migrator)
	if !ok {
		return skipped("backend has no schema version")
	}
	current, latest, err := m.SchemaVersion()
	if err != nil {
		return err
	}
	if current == 0 {
		return fmt.Errorf("no schema version recorded; run '%s init'", constants.AppName)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	m, ok := ctx.Store.(storage.Migrator)
	if !ok {
		return skipped("backend has no migrations")
	}
	current, latest, err := m.SchemaVersion()
	if err != nil {
		return err
	}
	if current < latest {
		return fmt.Errorf("%d migration(s) pending; run '%s migrate'", latest-current, constants.AppName)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*sqlite.Store); !ok {
		return skipped("backups are only taken for SQLite")
	}
	mgr := backup.NewManager(ctx.Store.GetConfigPath())
	backups, err := mgr.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found in %s; run '%s backup create'", mgr.Dir(), constants.AppName)
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	loc := ctx.Location
	if loc == nil {
		loc = time.Local
	}
	now := time.Now()
	if now.Year() < 2020 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	return utils.ValidateDate(utils.DateIn(now, loc))
}

func checkKeyring(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		return fmt.Errorf("OS keyring is not available; pass --user or set %s", constants.EnvUser)
	}
	return nil
}

func checkParticipant(ctx *cli.Context) error {
	if _, err := ctx.Ready(ctx.Background()); err != nil {
		return fmt.Errorf("%w; run '%s user create --use'", err, constants.AppName)
	}
	return nil
}
