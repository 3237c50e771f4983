package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/dmitrijs2005/zkvault/internal/client/autolock"
	"github.com/dmitrijs2005/zkvault/internal/client/client"
	"github.com/dmitrijs2005/zkvault/internal/client/config"
	"github.com/dmitrijs2005/zkvault/internal/client/profile"
	"github.com/dmitrijs2005/zkvault/internal/client/services"
	"github.com/dmitrijs2005/zkvault/internal/client/session"
	"github.com/dmitrijs2005/zkvault/internal/client/verifier"
	"github.com/dmitrijs2005/zkvault/internal/cryptox"
	"github.com/dmitrijs2005/zkvault/internal/logging"
	"github.com/fatih/color"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	repos   *client.Repositories
	remote  *client.GRPCClient
	session *session.Session
	auth    services.AuthService
	records services.RecordService
	monitor *autolock.Monitor
	events  chan autolock.Event
	reader  *bufio.Reader
	out     io.Writer

	lastPhase atomic.Int32
}

// NewApp opens the local database and the profile store, and builds the
// locked session with its auto-lock monitor.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	repos, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	a := &App{
		config: c,
		logger: logger,
		repos:  repos,
		events: make(chan autolock.Event, 8),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	var store profile.Store
	if c.ServerEndpointAddr != "" {
		a.remote, err = client.NewGRPCClient(c.ServerEndpointAddr)
		if err != nil {
			_ = repos.Close()
			return nil, err
		}
		store = profile.NewRemoteStore(a.remote, c.User)
	} else {
		store = profile.NewLocalStore(repos.DB, c.User)
	}

	deriver, err := cryptox.NewDeriver(c.PBKDF2Iterations)
	if err != nil {
		a.Close()
		return nil, err
	}

	v := verifier.New(store, deriver, verifier.WithLogger(logger))
	a.session = session.New(v, session.WithLogger(logger))
	a.monitor = autolock.New(a.session, autolock.WithTimeout(c.IdleTimeout), autolock.WithLogger(logger))
	a.auth = services.NewAuthService(a.session,
		services.WithUnlockAttemptsPerMinute(c.UnlockAttemptsPerMinute),
		services.WithMinPassphraseScore(c.MinPassphraseScore),
		services.WithUserInputs(c.User, "zkvault"),
		services.WithAuthLogger(logger),
	)
	a.records = services.NewRecordService(repos, a.session, services.WithRecordLogger(logger))

	return a, nil
}

// Run starts the auto-lock monitor and signal watcher and blocks in the REPL
// until the user exits or ctx is done. The session is locked on return.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	unsubscribe := a.session.Subscribe(a.onPhase)
	defer unsubscribe()

	a.monitor.Start()
	defer a.monitor.Stop()

	go func() { _ = a.monitor.Run(ctx, a.events) }()
	go watchSignals(ctx, a.events)

	fmt.Fprintf(a.out, "zkvault: profile %q, %s (type 'help' for commands)\n", a.config.User, a.storeName())
	runREPL(ctx, a, a.prompt, a.reader)
	a.session.Lock()
}

// Close locks the session and releases the database and server connection.
func (a *App) Close() {
	if a.session != nil {
		a.session.Lock()
	}
	if a.remote != nil {
		_ = a.remote.Close()
	}
	_ = a.repos.Close()
}

func (a *App) touch() {
	a.monitor.Notify(autolock.ActivityEvent(autolock.KeyDown))
}

func (a *App) onPhase(p session.Phase) {
	prev := session.Phase(a.lastPhase.Swap(int32(p)))
	if p == session.PhaseLocked && prev == session.PhaseUnlocked {
		fmt.Fprintln(a.out, color.YellowString("vault locked"))
	}
}

func (a *App) prompt() string {
	label := fmt.Sprintf("(%s %s)", a.config.User, a.session.Phase())
	if a.session.IsUnlocked() {
		return color.GreenString(label)
	}
	return color.RedString(label)
}

func (a *App) storeName() string {
	if a.config.ServerEndpointAddr != "" {
		return "server " + a.config.ServerEndpointAddr
	}
	return "local profile"
}
