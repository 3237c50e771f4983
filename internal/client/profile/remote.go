package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/client/client"
)

// RemoteStore keeps the profile on a zkvault server.
type RemoteStore struct {
	client client.ProfileClient
	user   string
}

func NewRemoteStore(c client.ProfileClient, user string) *RemoteStore {
	return &RemoteStore{client: c, user: user}
}

func (s *RemoteStore) GetProfile(ctx context.Context) (Profile, error) {
	rec, err := s.client.GetProfile(ctx, s.user)
	if err != nil {
		return Profile{}, err
	}

	p := Profile{User: s.user, Salt: rec.Salt}
	if rec.CanaryIV != "" && rec.CanaryCiphertext != "" {
		p.Canary = &CanaryRecord{IV: rec.CanaryIV, Ciphertext: rec.CanaryCiphertext}
	}
	return p, nil
}

func (s *RemoteStore) SetSalt(ctx context.Context, salt string) error {
	return mapRemote(s.client.SetSalt(ctx, s.user, salt), "salt")
}

func (s *RemoteStore) SetCanary(ctx context.Context, rec CanaryRecord) error {
	return mapRemote(s.client.SetCanary(ctx, s.user, rec.IV, rec.Ciphertext), "canary")
}

func mapRemote(err error, what string) error {
	if errors.Is(err, client.ErrAlreadyExists) {
		return fmt.Errorf("%s: %w", what, ErrAlreadySet)
	}
	return err
}
