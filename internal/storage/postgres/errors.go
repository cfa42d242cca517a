package postgres

import (
	"database/sql"
	"errors"

	pq "github.com/lib/pq"

	"github.com/julianstephens/hardlog/internal/storage"
)

// classify maps lib/pq and database/sql errors onto the storage taxonomy.
func classify(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "23505":
			return storage.ErrConflict
		case pqErr.Code == "23503":
			// foreign_key_violation: the referenced row is gone
			return storage.ErrNotFound
		case pqErr.Code == "42501", pqErr.Code.Class() == "28":
			return storage.ErrUnauthorized
		}
	}
	// Dial failures, driver.ErrBadConn and anything else the server said
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
