package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/hardlog/internal/cli"
	"github.com/julianstephens/hardlog/internal/cli/backups"
	"github.com/julianstephens/hardlog/internal/cli/day"
	"github.com/julianstephens/hardlog/internal/cli/habits"
	"github.com/julianstephens/hardlog/internal/cli/system"
	"github.com/julianstephens/hardlog/internal/cli/users"
	"github.com/julianstephens/hardlog/internal/constants"
	"github.com/julianstephens/hardlog/internal/errors"
	"github.com/julianstephens/hardlog/internal/keyring"
	"github.com/julianstephens/hardlog/internal/logger"
	"github.com/julianstephens/hardlog/internal/storage"
	"github.com/julianstephens/hardlog/internal/storage/postgres"
	"github.com/julianstephens/hardlog/internal/storage/sqlite"
	"github.com/julianstephens/hardlog/internal/utils"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"SQLite database path or PostgreSQL connection string. PostgreSQL credentials must NOT be embedded; use the OS keyring, ${env_db} or .pgpass." type:"string" default:"${default_config}" env:"${env_config}"`
	UserRef  string `name:"user" help:"Email address or id of the participant to track as. Defaults to the one chosen with 'user use'." env:"${env_user}"`
	Timezone string `help:"IANA timezone that decides which day is today." default:"${default_timezone}" env:"${env_timezone}"`
	Debug    bool   `help:"Log debug output to stderr as well as the log file."`

	Init    system.InitCmd    `cmd:"" help:"Initialize hardlog storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Tui     system.TuiCmd     `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Today   day.TodayCmd      `cmd:"" help:"Prepare and show today's habits."`
	Log     day.LogCmd        `cmd:"" help:"Record today's progress."`
	History day.HistoryCmd    `cmd:"" help:"Show completion for recent days."`
	Streak  day.StreakCmd     `cmd:"" help:"Show progress through the challenge."`
	Habit   habits.HabitCmd   `cmd:"" help:"Manage habits."`
	User    users.UserCmd     `cmd:"" help:"Manage participants."`
	Backup  backups.BackupCmd `cmd:"" help:"Manage database backups."`
	Keyring system.KeyringCmd `cmd:"" help:"Manage credentials in the OS keyring."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Daily habit tracker for a 75-day challenge"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":          constants.Version,
			"default_config":   constants.DefaultConfigPath,
			"default_timezone": constants.DefaultTimezone,
			"env_config":       constants.EnvConfig,
			"env_user":         constants.EnvUser,
			"env_timezone":     constants.EnvTimezone,
			"env_db":           constants.EnvDBConnection,
		},
	)

	store, configDir, err := openStore(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}

	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: configDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: file logging disabled: %v\n", err)
	}

	loc, err := utils.LoadLocation(CLI.Timezone)
	if err != nil {
		errors.Fatal(err)
	}

	runCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	appCtx := &cli.Context{
		Ctx:      runCtx,
		Store:    store,
		Location: loc,
		UserRef:  CLI.UserRef,
	}

	err = ctx.Run(appCtx)
	cancel()
	if closeErr := appCtx.Store.Close(); closeErr != nil {
		logger.Warn("Failed to close database", "error", closeErr)
	}
	errors.Fatal(err)
}

// openStore picks the backend. A PostgreSQL URL in --config wins; with the
// default --config, a connection string from the environment or the OS
// keyring selects PostgreSQL; anything else is a SQLite path. Also returns
// the directory that holds the log files.
func openStore(config string) (storage.Provider, string, error) {
	defaultDir := filepath.Dir(expandHome(constants.DefaultConfigPath))

	if postgres.IsConnString(config) || strings.Contains(config, "host=") {
		if _, err := postgres.ValidateConnString(config); err != nil {
			if stderrors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, "", fmt.Errorf("PostgreSQL connection strings with embedded credentials are not allowed in --config; store it with '%s keyring set' or export %s instead", constants.AppName, constants.EnvDBConnection)
			}
			return nil, "", err
		}
		return postgres.New(config), defaultDir, nil
	}

	if config == constants.DefaultConfigPath {
		if connStr := os.Getenv(constants.EnvDBConnection); connStr != "" {
			return postgres.New(connStr), defaultDir, nil
		}
		if connStr, err := keyring.GetConnectionString(); err == nil {
			return postgres.New(connStr), defaultDir, nil
		}
	}

	path := expandHome(config)
	return sqlite.NewStore(path), filepath.Dir(path), nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
