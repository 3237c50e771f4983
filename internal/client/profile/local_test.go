package profile

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/zkvault/internal/client/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocal(t *testing.T, user string) (*LocalStore, *client.Repositories) {
	t.Helper()
	repos, err := client.InitDatabase(context.Background(), client.InMemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })
	return NewLocalStore(repos.DB, user), repos
}

func TestLocalStore_EmptyProfile(t *testing.T) {
	s, _ := newLocal(t, "alice")

	p, err := s.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", p.User)
	assert.False(t, p.HasSalt())
	assert.False(t, p.HasCanary())
}

func TestLocalStore_SaltIsWriteOnce(t *testing.T) {
	s, _ := newLocal(t, "alice")
	ctx := context.Background()

	require.NoError(t, s.SetSalt(ctx, "Zmlyc3Q="))
	require.ErrorIs(t, s.SetSalt(ctx, "c2Vjb25k"), ErrAlreadySet)

	p, err := s.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Zmlyc3Q=", p.Salt)
}

func TestLocalStore_CanaryIsWriteOnce(t *testing.T) {
	s, _ := newLocal(t, "alice")
	ctx := context.Background()

	require.NoError(t, s.SetCanary(ctx, CanaryRecord{IV: "aXYx", Ciphertext: "Y3Qx"}))
	require.ErrorIs(t, s.SetCanary(ctx, CanaryRecord{IV: "aXYy", Ciphertext: "Y3Qy"}), ErrAlreadySet)

	p, err := s.GetProfile(ctx)
	require.NoError(t, err)
	require.True(t, p.HasCanary())
	assert.Equal(t, CanaryRecord{IV: "aXYx", Ciphertext: "Y3Qx"}, *p.Canary)
}

func TestLocalStore_PartialCanaryRolledBack(t *testing.T) {
	s, repos := newLocal(t, "alice")
	ctx := context.Background()

	// a stray ciphertext without an iv must not survive a failed SetCanary
	require.NoError(t, repos.Metadata.Set(ctx, "profile/alice/canary_ciphertext", []byte("old")))

	err := s.SetCanary(ctx, CanaryRecord{IV: "aXY=", Ciphertext: "Y3Q="})
	require.ErrorIs(t, err, ErrAlreadySet)

	iv, err := repos.Metadata.Get(ctx, "profile/alice/canary_iv")
	require.NoError(t, err)
	assert.Nil(t, iv)
}

func TestLocalStore_UsersAreIsolated(t *testing.T) {
	repos, err := client.InitDatabase(context.Background(), client.InMemoryDSN)
	require.NoError(t, err)
	defer repos.Close()
	ctx := context.Background()

	alice := NewLocalStore(repos.DB, "alice")
	bob := NewLocalStore(repos.DB, "bob")

	require.NoError(t, alice.SetSalt(ctx, "YWxpY2U="))
	require.NoError(t, bob.SetSalt(ctx, "Ym9i"))

	pa, err := alice.GetProfile(ctx)
	require.NoError(t, err)
	pb, err := bob.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "YWxpY2U=", pa.Salt)
	assert.Equal(t, "Ym9i", pb.Salt)
}

func TestLocalStore_ConcurrentSetSalt_OneWins(t *testing.T) {
	s, _ := newLocal(t, "alice")
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.SetSalt(ctx, "c2FsdA==")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			require.ErrorIs(t, err, ErrAlreadySet)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestLocalStore_StorageErrorsSurface(t *testing.T) {
	s, repos := newLocal(t, "alice")
	require.NoError(t, repos.Close())

	_, err := s.GetProfile(context.Background())
	require.Error(t, err)
	require.Error(t, s.SetSalt(context.Background(), "c2FsdA=="))
}
