package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dmitrijs2005/zkvault/internal/client/client"
	"github.com/dmitrijs2005/zkvault/internal/client/profile"
	"github.com/dmitrijs2005/zkvault/internal/client/verifier"
	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedDeriver blocks the next Derive after arm() until release() is called.
type gatedDeriver struct {
	inner cryptox.KeyDeriver

	mu      sync.Mutex
	gate    bool
	started chan struct{}
	release chan struct{}
	keys    []*cryptox.Key
}

func (d *gatedDeriver) arm() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gate = true
	d.started = make(chan struct{})
	d.release = make(chan struct{})
}

func (d *gatedDeriver) Derive(ctx context.Context, passphrase, salt string) (*cryptox.Key, error) {
	d.mu.Lock()
	gated := d.gate
	d.gate = false
	started, release := d.started, d.release
	d.mu.Unlock()

	if gated {
		close(started)
		<-release
	}

	k, err := d.inner.Derive(ctx, passphrase, salt)
	if err == nil {
		d.mu.Lock()
		d.keys = append(d.keys, k)
		d.mu.Unlock()
	}
	return k, err
}

func (d *gatedDeriver) lastKey() *cryptox.Key {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.keys[len(d.keys)-1]
}

type harness struct {
	s       *Session
	deriver *gatedDeriver
	clock   *clock.Mock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	repos, err := client.InitDatabase(context.Background(), client.InMemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	inner, err := cryptox.NewDeriver(cryptox.MinIterations)
	require.NoError(t, err)
	d := &gatedDeriver{inner: inner}

	mock := clock.NewMock()
	mock.Set(time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC))

	v := verifier.New(profile.NewLocalStore(repos.DB, "alice"), d)
	return &harness{s: New(v, WithClock(mock)), deriver: d, clock: mock}
}

func (h *harness) unlockAsync(pass string) <-chan error {
	h.deriver.arm()
	done := make(chan error, 1)
	go func() { done <- h.s.Unlock(context.Background(), pass) }()
	<-h.deriver.started
	return done
}

func TestSession_StartsLocked(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, PhaseLocked, h.s.Phase())
	assert.False(t, h.s.IsUnlocked())
	assert.True(t, h.s.LastActivity().IsZero())

	configured, err := h.s.IsPassphraseConfigured(context.Background())
	require.NoError(t, err)
	assert.False(t, configured)
}

func TestSession_BootstrapLockReunlock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.s.Unlock(ctx, "correct horse"))
	assert.True(t, h.s.IsUnlocked())
	configured, err := h.s.IsPassphraseConfigured(ctx)
	require.NoError(t, err)
	assert.True(t, configured)

	h.s.Lock()
	assert.Equal(t, PhaseLocked, h.s.Phase())

	require.NoError(t, h.s.Unlock(ctx, "correct horse"))
	assert.True(t, h.s.IsUnlocked())

	h.s.Lock()
	err = h.s.Unlock(ctx, "wrong horse")
	require.ErrorIs(t, err, common.ErrIncorrectPassphrase)
	assert.Equal(t, PhaseLocked, h.s.Phase())
}

func TestSession_FieldRoundTrip(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.s.Unlock(context.Background(), "pw"))

	p, err := h.s.EncryptField("s3cr3t ✓")
	require.NoError(t, err)

	got, err := h.s.DecryptField(p.IV, p.Ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t ✓", got)
}

func TestSession_FieldsSurviveRelock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.s.Unlock(ctx, "pw"))

	p, err := h.s.EncryptField("persisted")
	require.NoError(t, err)

	h.s.Lock()
	require.NoError(t, h.s.Unlock(ctx, "pw"))

	got, err := h.s.DecryptField(p.IV, p.Ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got)
}

func TestSession_FieldOpsRequireUnlocked(t *testing.T) {
	h := newHarness(t)

	_, err := h.s.EncryptField("x")
	require.ErrorIs(t, err, common.ErrSessionLocked)

	// locked wins over malformed input
	_, err = h.s.DecryptField("!!", "??")
	require.ErrorIs(t, err, common.ErrSessionLocked)

	require.NoError(t, h.s.Unlock(context.Background(), "pw"))
	p, err := h.s.EncryptField("x")
	require.NoError(t, err)
	h.s.Lock()

	_, err = h.s.DecryptField(p.IV, p.Ciphertext)
	require.ErrorIs(t, err, common.ErrSessionLocked)
}

func TestSession_DecryptErrorsKeepSessionUnlocked(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.s.Unlock(context.Background(), "pw"))

	_, err := h.s.DecryptField("not base64!", "Y3Q=")
	require.ErrorIs(t, err, common.ErrMalformedPayload)

	p, err := h.s.EncryptField("value")
	require.NoError(t, err)
	other, err := h.s.EncryptField("other")
	require.NoError(t, err)

	_, err = h.s.DecryptField(other.IV, p.Ciphertext)
	require.ErrorIs(t, err, common.ErrAuthentication)

	assert.True(t, h.s.IsUnlocked())
}

func TestSession_StaleUnlockSuccessIsDiscarded(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.s.Unlock(ctx, "pw"))
	h.s.Lock()

	done := h.unlockAsync("pw")
	assert.Equal(t, PhaseUnlocking, h.s.Phase())

	h.s.Lock()
	assert.Equal(t, PhaseLocked, h.s.Phase())

	close(h.deriver.release)
	require.ErrorIs(t, <-done, ErrUnlockSuperseded)

	assert.Equal(t, PhaseLocked, h.s.Phase())
	assert.False(t, h.s.IsUnlocked())
	assert.True(t, h.deriver.lastKey().Destroyed(), "late key must be destroyed")

	_, err := h.s.EncryptField("x")
	require.ErrorIs(t, err, common.ErrSessionLocked)
}

func TestSession_StaleUnlockFailureLeavesNewerUnlock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.s.Unlock(ctx, "pw"))
	h.s.Lock()

	done := h.unlockAsync("wrong")
	h.s.Lock()
	require.NoError(t, h.s.Unlock(ctx, "pw"))

	close(h.deriver.release)
	require.ErrorIs(t, <-done, common.ErrIncorrectPassphrase)

	assert.True(t, h.s.IsUnlocked(), "a stale failure must not lock a newer session")
}

func TestSession_FailedUnlockWhileUnlockedLocks(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.s.Unlock(ctx, "pw"))

	require.ErrorIs(t, h.s.Unlock(ctx, "nope"), common.ErrIncorrectPassphrase)
	assert.Equal(t, PhaseLocked, h.s.Phase())
	assert.True(t, h.s.LastActivity().IsZero())
}

func TestSession_SecondUnlockReplacesKey(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.s.Unlock(ctx, "pw"))
	first := h.deriver.lastKey()

	require.NoError(t, h.s.Unlock(ctx, "pw"))
	assert.True(t, first.Destroyed())
	assert.False(t, h.deriver.lastKey().Destroyed())
}

func TestSession_LockDestroysKeyAndIsIdempotent(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.s.Unlock(context.Background(), "pw"))
	key := h.deriver.lastKey()

	h.s.Lock()
	h.s.Lock()
	assert.True(t, key.Destroyed())
	assert.Equal(t, PhaseLocked, h.s.Phase())
}

func TestSession_ActivityTracking(t *testing.T) {
	h := newHarness(t)
	start := h.clock.Now()

	h.s.MarkActivity()
	assert.True(t, h.s.LastActivity().IsZero(), "no activity while locked")

	require.NoError(t, h.s.Unlock(context.Background(), "pw"))
	assert.Equal(t, start, h.s.LastActivity())

	h.clock.Add(7 * time.Minute)
	h.s.MarkActivity()
	assert.Equal(t, start.Add(7*time.Minute), h.s.LastActivity())

	h.s.Lock()
	assert.True(t, h.s.LastActivity().IsZero())
}

func TestSession_SubscribeNotifiesPhaseChanges(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var mu sync.Mutex
	var seen []Phase
	var unlockedInCallback []bool
	unsubscribe := h.s.Subscribe(func(p Phase) {
		// calling back into the session must not deadlock
		u := h.s.IsUnlocked()
		mu.Lock()
		seen = append(seen, p)
		unlockedInCallback = append(unlockedInCallback, u)
		mu.Unlock()
	})

	require.NoError(t, h.s.Unlock(ctx, "pw"))
	h.s.Lock()
	h.s.Lock()

	mu.Lock()
	assert.Equal(t, []Phase{PhaseUnlocking, PhaseUnlocked, PhaseLocked}, seen)
	assert.Equal(t, []bool{false, true, false}, unlockedInCallback)
	mu.Unlock()

	unsubscribe()
	unsubscribe()
	require.NoError(t, h.s.Unlock(ctx, "pw"))

	mu.Lock()
	assert.Len(t, seen, 3)
	mu.Unlock()
}

func TestSession_ConcurrentFieldOpsAndLock(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.s.Unlock(context.Background(), "pw"))

	var wg sync.WaitGroup
	errs := make(chan error, 400)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				p, err := h.s.EncryptField("payload")
				if err != nil {
					errs <- err
					continue
				}
				if _, err := h.s.DecryptField(p.IV, p.Ciphertext); err != nil {
					errs <- err
				}
			}
		}()
	}
	h.s.Lock()
	wg.Wait()
	close(errs)

	for err := range errs {
		require.True(t, errors.Is(err, common.ErrSessionLocked), "unexpected error: %v", err)
	}
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "locked", PhaseLocked.String())
	assert.Equal(t, "unlocking", PhaseUnlocking.String())
	assert.Equal(t, "unlocked", PhaseUnlocked.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
