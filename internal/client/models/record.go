// Package models defines client-side data models for the zkvault CLI.
package models

import (
	"errors"
	"strings"
	"time"
)

// Record is one encrypted field persisted locally. IV and Ciphertext are the
// base64 halves of a cryptox.Payload; the plaintext never reaches this type.
type Record struct {
	// ID is a random UUID assigned when the record is first stored.
	ID string

	// Name is the user-chosen key, unique per database.
	Name string

	IV         string
	Ciphertext string

	// UpdatedAt is the last modification time in UTC.
	UpdatedAt time.Time
}

var ErrInvalidName = errors.New("record name must be non-empty, must not start with '#' and must not contain '=' or whitespace")

// ValidateName reports whether name can be stored and exported as an
// interchange key.
func ValidateName(name string) error {
	if name == "" || strings.HasPrefix(name, "#") || strings.ContainsAny(name, "= \t\r\n") {
		return ErrInvalidName
	}
	return nil
}
