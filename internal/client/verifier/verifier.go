// Package verifier checks a passphrase against the user's canary record and
// bootstraps the canary (and salt) on first use.
//
// A wrong passphrase is detected in two layers: the AEAD tag of the canary
// ciphertext must verify, and the decrypted text must equal Canary byte for
// byte. Both failures are reported as common.ErrIncorrectPassphrase.
package verifier

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/client/profile"
	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/cryptox"
	"github.com/dmitrijs2005/zkvault/internal/logging"
)

// Canary is the known plaintext stored encrypted in every profile.
const Canary = "UNLOCK_OK"

// Result of a successful verification. The caller owns Key.
type Result struct {
	Key          *cryptox.Key
	Bootstrapped bool
}

type Verifier struct {
	store   profile.Store
	deriver cryptox.KeyDeriver
	logger  logging.Logger
}

type Option func(*Verifier)

func WithLogger(l logging.Logger) Option {
	return func(v *Verifier) { v.logger = l }
}

func New(store profile.Store, deriver cryptox.KeyDeriver, opts ...Option) *Verifier {
	v := &Verifier{store: store, deriver: deriver, logger: logging.Nop()}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.With("module", "verifier")
	return v
}

// Verify derives a key from passphrase and checks it against the stored
// canary. Without a canary the key is accepted and a canary is written.
//
// Errors: common.ErrIncorrectPassphrase, common.ErrStorage,
// common.ErrInvalidSalt, or the context error. The derived key is destroyed
// on every error path.
func (v *Verifier) Verify(ctx context.Context, passphrase string) (Result, error) {
	p, err := v.profileWithSalt(ctx)
	if err != nil {
		return Result{}, err
	}

	key, err := v.deriver.Derive(ctx, passphrase, p.Salt)
	if err != nil {
		return Result{}, err
	}

	if !p.HasCanary() {
		bootstrapped, err := v.bootstrap(ctx, key)
		if err == nil {
			return Result{Key: key, Bootstrapped: bootstrapped}, nil
		}
		if !errors.Is(err, profile.ErrAlreadySet) {
			key.Destroy()
			return Result{}, err
		}

		// another client wrote the canary first; check against theirs
		p, err = v.store.GetProfile(ctx)
		if err != nil {
			key.Destroy()
			return Result{}, storageError("get profile", err)
		}
		if !p.HasCanary() {
			key.Destroy()
			return Result{}, storageError("get profile", errors.New("canary reported set but missing"))
		}
	}

	if err := checkCanary(key, *p.Canary); err != nil {
		key.Destroy()
		return Result{}, err
	}
	return Result{Key: key}, nil
}

// IsConfigured reports whether a canary record exists for the user.
func (v *Verifier) IsConfigured(ctx context.Context) (bool, error) {
	p, err := v.store.GetProfile(ctx)
	if err != nil {
		return false, storageError("get profile", err)
	}
	return p.HasCanary(), nil
}

func (v *Verifier) profileWithSalt(ctx context.Context) (profile.Profile, error) {
	p, err := v.store.GetProfile(ctx)
	if err != nil {
		return profile.Profile{}, storageError("get profile", err)
	}
	if p.HasSalt() {
		return p, nil
	}

	salt, err := cryptox.NewSalt()
	if err != nil {
		return profile.Profile{}, err
	}

	err = v.store.SetSalt(ctx, salt)
	switch {
	case err == nil:
		p.Salt = salt
		v.logger.Info(ctx, "salt created", "user", p.User)
		return p, nil
	case errors.Is(err, profile.ErrAlreadySet):
		p, err = v.store.GetProfile(ctx)
		if err != nil {
			return profile.Profile{}, storageError("get profile", err)
		}
		if !p.HasSalt() {
			return profile.Profile{}, storageError("get profile", errors.New("salt reported set but missing"))
		}
		return p, nil
	default:
		return profile.Profile{}, storageError("set salt", err)
	}
}

func (v *Verifier) bootstrap(ctx context.Context, key *cryptox.Key) (bool, error) {
	payload, err := cryptox.Encrypt(key, Canary)
	if err != nil {
		return false, err
	}

	err = v.store.SetCanary(ctx, profile.CanaryRecord{IV: payload.IV, Ciphertext: payload.Ciphertext})
	if errors.Is(err, profile.ErrAlreadySet) {
		return false, err
	}
	if err != nil {
		return false, storageError("set canary", err)
	}

	v.logger.Info(ctx, "canary bootstrapped")
	return true, nil
}

func checkCanary(key *cryptox.Key, rec profile.CanaryRecord) error {
	plain, err := cryptox.Decrypt(key, cryptox.Payload{IV: rec.IV, Ciphertext: rec.Ciphertext})
	if errors.Is(err, common.ErrAuthentication) || errors.Is(err, common.ErrMalformedPayload) {
		return common.ErrIncorrectPassphrase
	}
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(plain), []byte(Canary)) != 1 {
		return common.ErrIncorrectPassphrase
	}
	return nil
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrStorage, op, err)
}
