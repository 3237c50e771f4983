// Package services contains server-side business logic. ProfileService keeps
// the salt and canary of each user and enforces that both are written once.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/cryptox"
	"github.com/dmitrijs2005/zkvault/internal/dbx"
	"github.com/dmitrijs2005/zkvault/internal/server/models"
	"github.com/dmitrijs2005/zkvault/internal/server/repositories/repomanager"
)

var (
	// ErrAlreadySet is returned when a write-once value is written again.
	ErrAlreadySet = errors.New("value already set")
	// ErrInvalidInput covers malformed user names, salts and canaries, and a
	// canary sent before the salt.
	ErrInvalidInput = errors.New("invalid input")
)

const maxUserNameLen = 128

type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager) *ProfileService {
	return &ProfileService{db: db, repomanager: m}
}

// GetProfile returns the user's profile. An unknown user gets an empty
// profile, which clients treat as "not set up yet".
func (s *ProfileService) GetProfile(ctx context.Context, userName string) (*models.Profile, error) {
	if err := validateUserName(userName); err != nil {
		return nil, err
	}

	p, err := s.repomanager.Profiles(s.db).Get(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return &models.Profile{UserName: userName}, nil
		}
		return nil, err
	}
	return p, nil
}

// SetSalt stores the salt for a new profile.
func (s *ProfileService) SetSalt(ctx context.Context, userName, salt string) error {
	if err := validateUserName(userName); err != nil {
		return err
	}
	if _, err := cryptox.DecodeSalt(salt); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	ok, err := s.repomanager.Profiles(s.db).InsertSalt(ctx, userName, salt)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAlreadySet
	}
	return nil
}

// SetCanary stores the canary of a profile that already has a salt.
func (s *ProfileService) SetCanary(ctx context.Context, userName, iv, ciphertext string) error {
	if err := validateUserName(userName); err != nil {
		return err
	}
	if _, err := cryptox.ParsePayload(iv, ciphertext); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Profiles(tx)

		ok, err := repo.SetCanary(ctx, userName, iv, ciphertext)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		// nothing updated: no profile yet, or the canary is already there
		if _, err := repo.Get(ctx, userName); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%w: salt must be set before the canary", ErrInvalidInput)
			}
			return err
		}
		return ErrAlreadySet
	})
}

func validateUserName(userName string) error {
	switch {
	case strings.TrimSpace(userName) == "":
		return fmt.Errorf("%w: empty user name", ErrInvalidInput)
	case len(userName) > maxUserNameLen:
		return fmt.Errorf("%w: user name longer than %d bytes", ErrInvalidInput, maxUserNameLen)
	}
	return nil
}
