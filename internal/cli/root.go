package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/julianstephens/hardlog/internal/auth"
	"github.com/julianstephens/hardlog/internal/backup"
	"github.com/julianstephens/hardlog/internal/bootstrap"
	"github.com/julianstephens/hardlog/internal/catalog"
	"github.com/julianstephens/hardlog/internal/keyring"
	"github.com/julianstephens/hardlog/internal/logger"
	"github.com/julianstephens/hardlog/internal/models"
	"github.com/julianstephens/hardlog/internal/session"
	"github.com/julianstephens/hardlog/internal/storage"
	"github.com/julianstephens/hardlog/internal/storage/sqlite"
)

// Context is shared by every command.
type Context struct {
	// Ctx is cancelled on interrupt. Nil means context.Background().
	Ctx context.Context

	Store    storage.Provider
	Location *time.Location
	// UserRef is the --user flag: an email address or a user id. Empty
	// falls back to the user remembered in the keyring.
	UserRef string

	Auth       *auth.Local
	Controller *session.Controller
}

// Background returns the context commands run their store calls under.
func (c *Context) Background() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

// SnapshotDatabase backs up a SQLite database file before it is rewritten.
// Failures are logged and do not stop the caller. Other backends are
// skipped. Returns the snapshot path, or "".
func (c *Context) SnapshotDatabase(reason string) string {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return ""
	}
	path, err := backup.NewManager(c.Store.GetConfigPath()).Create()
	if err != nil {
		if !errors.Is(err, backup.ErrNoDatabase) {
			logger.Warn("Automatic backup failed", "reason", reason, "error", err)
		}
		return ""
	}
	logger.Info("Automatic backup created", "reason", reason, "path", path)
	return path
}

// Ready loads the store, signs in the selected user and returns a session
// controller that follows the sign-in.
func (c *Context) Ready(ctx context.Context) (*session.Controller, error) {
	if err := c.Store.Load(); err != nil {
		return nil, err
	}
	if c.Controller != nil {
		return c.Controller, nil
	}

	userID, err := c.resolveUser(ctx)
	if err != nil {
		return nil, err
	}

	c.Auth = auth.NewLocal(userID)
	c.Controller = session.New(c.Store, session.WithLocation(c.Location))
	c.Controller.Watch(c.Auth)
	logger.Debug("Signed in", "user", userID)
	return c.Controller, nil
}

// PrepareToday signs in and bootstraps today's log, habits and entries.
func (c *Context) PrepareToday() (*session.Controller, error) {
	ctrl, err := c.Ready(c.Background())
	if err != nil {
		return nil, err
	}
	r := bootstrap.New(ctrl).Run(c.Background())
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("failed to prepare %s (%s): %w", ctrl.Today(), r.FailedStep(), err)
	}
	return ctrl, nil
}

// resolveUser turns --user or the remembered keyring user into a user id
// that exists in the store.
func (c *Context) resolveUser(ctx context.Context) (string, error) {
	ref := strings.TrimSpace(c.UserRef)
	if ref == "" {
		stored, err := keyring.GetSessionUser()
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return "", auth.ErrNoUser
			}
			logger.Warn("Could not read selected user from keyring", "error", err)
			return "", auth.ErrNoUser
		}
		ref = stored
	}

	u, err := LookupUser(ctx, c.Store, ref)
	if err != nil {
		if storage.IsNotFound(err) {
			return "", fmt.Errorf("%w: unknown user %q", auth.ErrNoUser, ref)
		}
		return "", err
	}
	return u.ID, nil
}

// LookupUser finds a user by email address or id.
func LookupUser(ctx context.Context, repo storage.Repository, ref string) (models.User, error) {
	if strings.Contains(ref, "@") {
		return repo.GetUserByEmail(ctx, ref)
	}
	return repo.GetUser(ctx, ref)
}

// FindHabit matches key against habit names and catalog ids, ignoring case.
func FindHabit(habits []models.Habit, key string) (models.Habit, bool) {
	key = strings.TrimSpace(key)
	for _, h := range habits {
		if strings.EqualFold(h.Name, key) || h.ID == key {
			return h, true
		}
	}
	if t, ok := catalog.Lookup(key); ok {
		for _, h := range habits {
			if h.Name == t.Label {
				return h, true
			}
		}
	}
	return models.Habit{}, false
}
