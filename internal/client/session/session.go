// Package session owns the derived key for the lifetime of an unlock.
//
// A Session starts Locked. Unlock verifies a passphrase and, on success,
// holds the resulting key; Lock (explicit or from the auto-lock monitor)
// destroys it. Field encryption and decryption go through the session so the
// key never leaves it.
//
// Every Lock bumps a generation counter. An Unlock remembers the generation
// it started under and, if a Lock happened while it was verifying, throws its
// result away: a late success never resurrects a key the user already locked.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dmitrijs2005/zkvault/internal/client/verifier"
	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/cryptox"
	"github.com/dmitrijs2005/zkvault/internal/logging"
)

// ErrUnlockSuperseded is returned by an Unlock whose successful result was
// discarded because the session was locked while it was running.
var ErrUnlockSuperseded = errors.New("unlock superseded by lock")

// Verifier is the passphrase check used by Unlock.
type Verifier interface {
	Verify(ctx context.Context, passphrase string) (verifier.Result, error)
	IsConfigured(ctx context.Context) (bool, error)
}

type Session struct {
	verifier Verifier
	clock    clock.Clock
	logger   logging.Logger

	// mu guards the fields below. AEAD calls hold the read lock so the key
	// cannot be destroyed underneath them.
	mu           sync.RWMutex
	phase        Phase
	key          *cryptox.Key
	generation   uint64
	lastActivity time.Time

	listenersMu sync.Mutex
	listeners   map[uint64]func(Phase)
	nextID      uint64
}

type Option func(*Session)

func WithLogger(l logging.Logger) Option {
	return func(s *Session) { s.logger = l }
}

func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// New returns a Locked session.
func New(v Verifier, opts ...Option) *Session {
	s := &Session{
		verifier:  v,
		clock:     clock.New(),
		logger:    logging.Nop(),
		phase:     PhaseLocked,
		listeners: make(map[uint64]func(Phase)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("module", "session")
	return s
}

// Unlock verifies passphrase and, if the session was not locked meanwhile,
// installs the derived key. It blocks for the duration of key derivation.
//
// Errors: common.ErrIncorrectPassphrase, common.ErrStorage,
// common.ErrInvalidSalt, ErrUnlockSuperseded, or the context error.
func (s *Session) Unlock(ctx context.Context, passphrase string) error {
	s.mu.Lock()
	gen := s.generation
	changed := s.phase == PhaseLocked
	if changed {
		s.phase = PhaseUnlocking
	}
	s.mu.Unlock()
	if changed {
		s.notify(PhaseUnlocking)
	}

	res, err := s.verifier.Verify(ctx, passphrase)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		if err != nil {
			s.logger.Debug(ctx, "stale unlock failed", "generation", gen)
			return err
		}
		res.Key.Destroy()
		s.logger.Info(ctx, "stale unlock discarded", "generation", gen)
		return ErrUnlockSuperseded
	}

	prev := s.phase
	if err != nil {
		s.dropKeyLocked()
		s.lastActivity = time.Time{}
		s.phase = PhaseLocked
		s.mu.Unlock()

		s.logger.Warn(ctx, "unlock failed", "generation", gen, "reason", reason(err))
		if prev != PhaseLocked {
			s.notify(PhaseLocked)
		}
		return err
	}

	s.dropKeyLocked()
	s.key = res.Key
	s.phase = PhaseUnlocked
	s.lastActivity = s.clock.Now()
	s.mu.Unlock()

	s.logger.Info(ctx, "session unlocked", "generation", gen, "bootstrapped", res.Bootstrapped)
	if prev != PhaseUnlocked {
		s.notify(PhaseUnlocked)
	}
	return nil
}

// Lock destroys the key and invalidates every in-flight Unlock. It is
// idempotent.
func (s *Session) Lock() {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.dropKeyLocked()
	s.lastActivity = time.Time{}
	changed := s.phase != PhaseLocked
	s.phase = PhaseLocked
	s.mu.Unlock()

	if changed {
		s.logger.Info(context.Background(), "session locked", "generation", gen)
		s.notify(PhaseLocked)
	}
}

func (s *Session) IsUnlocked() bool {
	return s.Phase() == PhaseUnlocked
}

func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// IsPassphraseConfigured reports whether a canary record exists, i.e. whether
// the next Unlock checks a passphrase rather than setting one.
func (s *Session) IsPassphraseConfigured(ctx context.Context) (bool, error) {
	return s.verifier.IsConfigured(ctx)
}

// EncryptField encrypts plaintext under the session key with a fresh IV.
func (s *Session) EncryptField(plaintext string) (cryptox.Payload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.phase != PhaseUnlocked || s.key == nil {
		return cryptox.Payload{}, common.ErrSessionLocked
	}
	return cryptox.Encrypt(s.key, plaintext)
}

// DecryptField decrypts a payload produced by EncryptField. Malformed input
// is rejected before decryption; an authentication failure leaves the session
// unlocked.
func (s *Session) DecryptField(iv, ciphertext string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.phase != PhaseUnlocked || s.key == nil {
		return "", common.ErrSessionLocked
	}
	p, err := cryptox.ParsePayload(iv, ciphertext)
	if err != nil {
		return "", err
	}
	return cryptox.Decrypt(s.key, p)
}

// MarkActivity records user activity. It has no effect while not unlocked.
func (s *Session) MarkActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseUnlocked {
		s.lastActivity = s.clock.Now()
	}
}

// LastActivity returns the time of the last unlock or activity, or the zero
// time while locked.
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// Subscribe registers fn to be called after each phase change. fn runs on the
// goroutine that caused the change, outside the session's locks, so it may
// call back into the session. The returned function unsubscribes.
func (s *Session) Subscribe(fn func(Phase)) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

func (s *Session) notify(p Phase) {
	s.listenersMu.Lock()
	fns := make([]func(Phase), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}

func (s *Session) dropKeyLocked() {
	if s.key != nil {
		s.key.Destroy()
		s.key = nil
	}
}

// reason maps an unlock error to a log-safe label.
func reason(err error) string {
	switch {
	case errors.Is(err, common.ErrIncorrectPassphrase):
		return "incorrect_passphrase"
	case errors.Is(err, common.ErrStorage):
		return "storage"
	case errors.Is(err, common.ErrInvalidSalt):
		return "invalid_salt"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}
