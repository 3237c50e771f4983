package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/client/session"
	"github.com/dmitrijs2005/zkvault/internal/logging"
	"github.com/nbutton23/zxcvbn-go"
	"golang.org/x/time/rate"
)

const (
	DefaultUnlockAttemptsPerMinute = 5
	DefaultMinPassphraseScore      = 3
)

var (
	ErrTooManyAttempts    = errors.New("too many unlock attempts, try again later")
	ErrWeakPassphrase     = errors.New("passphrase is too weak")
	ErrPassphraseMismatch = errors.New("passphrases do not match")
	ErrAlreadyConfigured  = errors.New("passphrase is already configured")
	ErrNotConfigured      = errors.New("passphrase is not configured yet, run setup first")
)

// Status is a snapshot of the session for display.
type Status struct {
	Phase        session.Phase
	Configured   bool
	LastActivity time.Time
}

// AuthService defines passphrase operations for the CLI.
//
// Contract:
//   - Setup: first-time passphrase, entered twice and strength-checked.
//   - Unlock: throttled unlock with an existing passphrase.
//   - Lock: drop the key immediately.
type AuthService interface {
	Status(ctx context.Context) (Status, error)
	Setup(ctx context.Context, passphrase, confirmation string) error
	Unlock(ctx context.Context, passphrase string) error
	Lock()
}

type authService struct {
	session    *session.Session
	limiter    *rate.Limiter
	minScore   int
	userInputs []string
	logger     logging.Logger
}

type AuthOption func(*authService)

// WithUnlockAttemptsPerMinute caps unlock attempts. n <= 0 disables the cap.
func WithUnlockAttemptsPerMinute(n int) AuthOption {
	return func(a *authService) {
		if n <= 0 {
			a.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		a.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n)
	}
}

// WithMinPassphraseScore sets the minimum zxcvbn score (0..4) for Setup.
func WithMinPassphraseScore(score int) AuthOption {
	return func(a *authService) { a.minScore = score }
}

// WithUserInputs adds words (user name, host name) that make a passphrase
// weaker when it contains them.
func WithUserInputs(inputs ...string) AuthOption {
	return func(a *authService) { a.userInputs = append(a.userInputs, inputs...) }
}

func WithAuthLogger(l logging.Logger) AuthOption {
	return func(a *authService) { a.logger = l }
}

func NewAuthService(s *session.Session, opts ...AuthOption) AuthService {
	a := &authService{session: s, minScore: DefaultMinPassphraseScore, logger: logging.Nop()}
	WithUnlockAttemptsPerMinute(DefaultUnlockAttemptsPerMinute)(a)
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("module", "auth_service")
	return a
}

func (a *authService) Status(ctx context.Context) (Status, error) {
	configured, err := a.session.IsPassphraseConfigured(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Phase:        a.session.Phase(),
		Configured:   configured,
		LastActivity: a.session.LastActivity(),
	}, nil
}

// Setup sets the passphrase for a profile without a canary record and leaves
// the session unlocked.
func (a *authService) Setup(ctx context.Context, passphrase, confirmation string) error {
	configured, err := a.session.IsPassphraseConfigured(ctx)
	if err != nil {
		return err
	}
	if configured {
		return ErrAlreadyConfigured
	}

	if subtle.ConstantTimeCompare([]byte(passphrase), []byte(confirmation)) != 1 {
		return ErrPassphraseMismatch
	}

	if score := zxcvbn.PasswordStrength(passphrase, a.userInputs).Score; score < a.minScore {
		return fmt.Errorf("%w: score %d of 4, need at least %d", ErrWeakPassphrase, score, a.minScore)
	}

	if err := a.session.Unlock(ctx, passphrase); err != nil {
		return err
	}
	a.logger.Info(ctx, "passphrase configured")
	return nil
}

// Unlock unlocks with an existing passphrase. Attempts beyond the configured
// rate fail with ErrTooManyAttempts before any key derivation.
func (a *authService) Unlock(ctx context.Context, passphrase string) error {
	configured, err := a.session.IsPassphraseConfigured(ctx)
	if err != nil {
		return err
	}
	if !configured {
		return ErrNotConfigured
	}

	if !a.limiter.Allow() {
		a.logger.Warn(ctx, "unlock throttled")
		return ErrTooManyAttempts
	}
	return a.session.Unlock(ctx, passphrase)
}

func (a *authService) Lock() {
	a.session.Lock()
}
