// Package profile holds a user's key-derivation salt and canary record, the
// only persistent state the passphrase verifier needs.
//
// Both values are write-once. LocalStore keeps them in the client database;
// RemoteStore keeps them on a zkvault server.
package profile

import (
	"context"
	"errors"
)

// ErrAlreadySet is returned when a write-once value already exists.
var ErrAlreadySet = errors.New("profile value already set")

// CanaryRecord is the canary constant encrypted under the user's key.
type CanaryRecord struct {
	IV         string
	Ciphertext string
}

type Profile struct {
	User   string
	Salt   string
	Canary *CanaryRecord
}

func (p Profile) HasSalt() bool {
	return p.Salt != ""
}

func (p Profile) HasCanary() bool {
	return p.Canary != nil
}

// Store is consumed by the passphrase verifier. Implementations are bound to a
// single user.
type Store interface {
	GetProfile(ctx context.Context) (Profile, error)
	// SetSalt returns ErrAlreadySet if a salt exists.
	SetSalt(ctx context.Context, salt string) error
	// SetCanary returns ErrAlreadySet if a canary record exists.
	SetCanary(ctx context.Context, rec CanaryRecord) error
}
