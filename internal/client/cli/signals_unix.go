//go:build unix

package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/dmitrijs2005/zkvault/internal/client/autolock"
	"golang.org/x/sys/unix"
)

// watchSignals turns terminal suspend (SIGTSTP) and hangup (SIGHUP) into
// Hidden events, which lock the vault at once.
func watchSignals(ctx context.Context, events chan<- autolock.Event) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, unix.SIGTSTP, unix.SIGHUP)
	defer signal.Stop(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			select {
			case events <- autolock.HiddenEvent():
			case <-ctx.Done():
				return
			}
		}
	}
}
