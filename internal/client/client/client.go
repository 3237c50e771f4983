package client

import (
	"context"

	pb "github.com/dmitrijs2005/zkvault/internal/proto"
)

// ProfileClient talks to the remote profile service. Values are opaque base64
// strings; the server never sees a key or plaintext.
type ProfileClient interface {
	Close() error
	GetProfile(ctx context.Context, user string) (pb.ProfileRecord, error)
	SetSalt(ctx context.Context, user, salt string) error
	SetCanary(ctx context.Context, user, iv, ciphertext string) error
}
