package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/zkvault/internal/client/client"
	"github.com/dmitrijs2005/zkvault/internal/client/profile"
	"github.com/dmitrijs2005/zkvault/internal/client/session"
	"github.com/dmitrijs2005/zkvault/internal/client/verifier"
	"github.com/dmitrijs2005/zkvault/internal/cryptox"
	"github.com/stretchr/testify/require"
)

const strongPassphrase = "quartz-Lantern-vivid-Otter-41-harbor"

type stack struct {
	repos   *client.Repositories
	session *session.Session
}

func newStack(t *testing.T) *stack {
	t.Helper()
	repos, err := client.InitDatabase(context.Background(), client.InMemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	d, err := cryptox.NewDeriver(cryptox.MinIterations)
	require.NoError(t, err)

	v := verifier.New(profile.NewLocalStore(repos.DB, "alice"), d)
	return &stack{repos: repos, session: session.New(v)}
}
