package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/julianstephens/hardlog/internal/storage"
)

// classify maps a modernc.org/sqlite error onto the storage taxonomy.
func classify(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return storage.ErrConflict
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return storage.ErrNotFound
	case strings.Contains(msg, "attempt to write a readonly database"):
		return storage.ErrUnauthorized
	}
	return storage.ErrTransport
}

func wrap(op string, err error) error {
	return storage.Classify(op, err, classify)
}

// requireRow turns an update or delete that matched nothing into ErrNoRows.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

var (
	_ storage.Provider = (*Store)(nil)
	_ storage.Migrator = (*Store)(nil)
)
