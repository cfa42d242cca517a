// Package auth is the boundary to whoever decides which user is signed in.
// The tracker never handles credentials; it only reads the current user id
// and reacts when it changes.
package auth

import (
	"errors"
	"sync"
)

// ErrNoUser is returned by operations that need a signed-in user.
var ErrNoUser = errors.New("no user signed in")

// Session exposes the signed-in user and notifies subscribers when it changes.
type Session interface {
	CurrentUserID() (string, bool)
	// Subscribe registers fn for session changes. fn receives the new user
	// id ("" after sign-out). The returned func removes the subscription.
	Subscribe(fn func(userID string)) (unsubscribe func())
}

// Local is an in-process Session. The CLI resolves the user id from flags,
// the environment or the keyring and installs it with SetUser.
type Local struct {
	mu     sync.Mutex
	userID string
	nextID int
	// subs are notified in subscription order
	subs []subscriber
}

type subscriber struct {
	id int
	fn func(string)
}

// NewLocal returns a session signed in as userID ("" for signed out).
func NewLocal(userID string) *Local {
	return &Local{
		userID: userID,
	}
}

func (l *Local) CurrentUserID() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.userID, l.userID != ""
}

func (l *Local) Subscribe(fn func(userID string)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	l.subs = append(l.subs, subscriber{id: id, fn: fn})
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, s := range l.subs {
			if s.id == id {
				l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
				return
			}
		}
	}
}

// SetUser switches the signed-in user and notifies subscribers. Setting the
// same id again is not a change.
func (l *Local) SetUser(userID string) {
	l.mu.Lock()
	if l.userID == userID {
		l.mu.Unlock()
		return
	}
	l.userID = userID
	subs := append([]subscriber(nil), l.subs...)
	l.mu.Unlock()

	for _, s := range subs {
		s.fn(userID)
	}
}

// SignOut clears the signed-in user.
func (l *Local) SignOut() {
	l.SetUser("")
}
