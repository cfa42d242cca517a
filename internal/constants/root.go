package constants

import "time"

const (
	AppName            = "hardlog"
	DefaultKeyringUser = "database-connection"
	SessionKeyringUser = "session-user"
	DefaultConfigPath  = "~/.config/hardlog/hardlog.db"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// DefaultTimezone selects the system local timezone
	DefaultTimezone = "Local"

	// ChallengeDays is the length of the challenge the streak counts toward
	ChallengeDays = 75

	// Environment overrides
	EnvConfig       = "HARDLOG_CONFIG"
	EnvUser         = "HARDLOG_USER"
	EnvTimezone     = "HARDLOG_TZ"
	EnvDBConnection = "HARDLOG_DB_CONNECTION"

	// Postgres connection pool
	PostgresMaxOpenConns    = 25
	PostgresMaxIdleConns    = 25
	PostgresConnMaxLifetime = 5 * time.Minute

	// SQLite busy timeout in milliseconds
	SQLiteBusyTimeoutMs = 5000
)
