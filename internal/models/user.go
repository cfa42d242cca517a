package models

import "time"

// User is a challenge participant. Rows are created by the auth side of the
// application; the tracker only ever renames them.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName falls back to the email when no name has been set.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}
