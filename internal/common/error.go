// Package common defines sentinel errors and small helpers shared by the
// client and server layers of zkvault. Callers should use errors.Is to match
// these values; wrapped errors keep their kind.
package common

import "errors"

// Repository-level errors.
var (
	ErrorNotFound = errors.New("not found")
)

// Session and cryptography errors. Messages are fixed strings and never carry
// passphrases, key bytes or plaintext.
var (
	// ErrIncorrectPassphrase is returned by unlock when the canary does not
	// authenticate or does not match. The two causes are not distinguished.
	ErrIncorrectPassphrase = errors.New("incorrect passphrase")

	// ErrAuthentication is returned when an AEAD integrity check fails on a
	// record payload. The session stays unlocked.
	ErrAuthentication = errors.New("authentication failed")

	// ErrMalformedPayload means an iv or ciphertext is not valid base64 (or the
	// iv has the wrong length). It is raised before any decrypt attempt.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrSessionLocked is returned by field operations while the session is
	// not unlocked.
	ErrSessionLocked = errors.New("session is locked")

	// ErrStorage wraps failures of the profile store. Retryable.
	ErrStorage = errors.New("profile storage failure")

	// ErrInvalidSalt means the stored salt is not base64 of 16 bytes.
	ErrInvalidSalt = errors.New("invalid salt")
)
