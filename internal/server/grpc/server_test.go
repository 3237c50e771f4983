package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/zkvault/internal/client/client"
	"github.com/dmitrijs2005/zkvault/internal/client/profile"
	"github.com/dmitrijs2005/zkvault/internal/client/session"
	"github.com/dmitrijs2005/zkvault/internal/client/verifier"
	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/cryptox"
	"github.com/dmitrijs2005/zkvault/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", logging.Nop(), newMemProfiles())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err, "Run returned error on graceful stop")
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", logging.Nop(), newMemProfiles())
	require.Error(t, srv.Run(context.Background()))
}

// startBufconn serves ps in memory and returns a connected client.
func startBufconn(t *testing.T, ps ProfileService) *client.GRPCClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- NewGRPCServer("bufnet", logging.Nop(), ps).Serve(ctx, lis) }()

	c, err := client.NewGRPCClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
		cancel()
		<-done
	})
	return c
}

func TestBufconn_ClientErrorMapping(t *testing.T) {
	c := startBufconn(t, newMemProfiles())
	ctx := context.Background()

	rec, err := c.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", rec.User)
	assert.Empty(t, rec.Salt)

	require.NoError(t, c.SetSalt(ctx, "alice", "c2FsdA=="))
	require.ErrorIs(t, c.SetSalt(ctx, "alice", "b3RoZXI="), client.ErrAlreadyExists)

	require.ErrorIs(t, c.SetCanary(ctx, "nobody", "aXY=", "Y3Q="), client.ErrInvalidRequest)
}

func TestBufconn_RemoteProfileUnlock(t *testing.T) {
	ps := newMemProfiles()
	c := startBufconn(t, ps)
	ctx := context.Background()

	d, err := cryptox.NewDeriver(cryptox.MinIterations)
	require.NoError(t, err)

	newSession := func() *session.Session {
		return session.New(verifier.New(profile.NewRemoteStore(c, "alice"), d))
	}

	first := newSession()
	require.NoError(t, first.Unlock(ctx, "correct horse"))
	require.True(t, first.IsUnlocked())

	p, err := ps.GetProfile(ctx, "alice")
	require.NoError(t, err)
	assert.NotEmpty(t, p.Salt)
	assert.True(t, p.HasCanary())

	// a second device shares the server profile
	second := newSession()
	require.ErrorIs(t, second.Unlock(ctx, "wrong horse"), common.ErrIncorrectPassphrase)
	require.NoError(t, second.Unlock(ctx, "correct horse"))

	sealed, err := first.EncryptField("shared secret")
	require.NoError(t, err)
	got, err := second.DecryptField(sealed.IV, sealed.Ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "shared secret", got)
}
