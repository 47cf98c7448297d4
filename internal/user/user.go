package user

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("user not found")

// User is an application account. Accounts are provisioned lazily the first
// time a verified identity token is seen, keyed by the identity provider's
// subject ID.
type User struct {
	ID        int64
	ClerkID   string
	Email     string
	CreatedAt time.Time
}
