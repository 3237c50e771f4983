package cryptox

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// MinIterations and MaxIterations bound the configurable PBKDF2 work factor.
	MinIterations = 300_000
	MaxIterations = 600_000
	// DefaultIterations is used when no iteration count is configured.
	DefaultIterations = 350_000

	// SaltSize is the decoded salt length in bytes.
	SaltSize = 16
	// KeySize is the derived key length (AES-256).
	KeySize = 32
)

// ErrInvalidIterations is returned by NewDeriver for counts outside
// [MinIterations, MaxIterations].
var ErrInvalidIterations = errors.New("pbkdf2 iterations out of range")

// KeyDeriver turns a passphrase and a base64 salt into a key handle.
type KeyDeriver interface {
	Derive(ctx context.Context, passphrase, saltB64 string) (*Key, error)
}

// Deriver derives keys with PBKDF2-HMAC-SHA-256.
type Deriver struct {
	iterations int
}

// NewDeriver validates the iteration count and returns a Deriver.
func NewDeriver(iterations int) (*Deriver, error) {
	if iterations < MinIterations || iterations > MaxIterations {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidIterations, iterations, MinIterations, MaxIterations)
	}
	return &Deriver{iterations: iterations}, nil
}

// Iterations returns the configured PBKDF2 work factor.
func (d *Deriver) Iterations() int {
	if d.iterations == 0 {
		return DefaultIterations
	}
	return d.iterations
}

// Derive runs PBKDF2 over passphrase and the decoded salt. The result is
// deterministic for a given passphrase, salt and iteration count.
//
// The context is checked before the derivation starts; a running derivation
// is not interrupted.
func (d *Deriver) Derive(ctx context.Context, passphrase, saltB64 string) (*Key, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	salt, err := DecodeSalt(saltB64)
	if err != nil {
		return nil, err
	}

	pw := []byte(passphrase)
	defer common.WipeByteArray(pw)

	raw := pbkdf2.Key(pw, salt, d.Iterations(), KeySize, sha256.New)
	return newKey(raw), nil
}

// DecodeSalt decodes a standard base64 salt and checks its length.
func DecodeSalt(saltB64 string) ([]byte, error) {
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return nil, fmt.Errorf("%w: not base64", common.ErrInvalidSalt)
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", common.ErrInvalidSalt, SaltSize, len(salt))
	}
	return salt, nil
}

// NewSalt returns SaltSize random bytes encoded with standard base64.
func NewSalt() (string, error) {
	salt, err := common.GenerateRandByteArray(SaltSize)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}
