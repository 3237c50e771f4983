//go:build !unix

package cli

import (
	"context"

	"github.com/dmitrijs2005/zkvault/internal/client/autolock"
)

func watchSignals(ctx context.Context, _ chan<- autolock.Event) {
	<-ctx.Done()
}
