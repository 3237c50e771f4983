package profile

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/zkvault/internal/dbx"
)

// LocalStore keeps the profile in the metadata table of the client database.
type LocalStore struct {
	db   *sql.DB
	user string
	repo func(dbx.DBTX) metadata.Repository
}

func NewLocalStore(db *sql.DB, user string) *LocalStore {
	return &LocalStore{
		db:   db,
		user: user,
		repo: func(tx dbx.DBTX) metadata.Repository { return metadata.NewSQLiteRepository(tx) },
	}
}

func (s *LocalStore) key(name string) string {
	return "profile/" + s.user + "/" + name
}

func (s *LocalStore) GetProfile(ctx context.Context) (Profile, error) {
	values, err := s.repo(s.db).List(ctx, s.key(""))
	if err != nil {
		return Profile{}, err
	}

	p := Profile{User: s.user, Salt: string(values[s.key("salt")])}

	iv, hasIV := values[s.key("canary_iv")]
	ct, hasCT := values[s.key("canary_ciphertext")]
	if hasIV && hasCT {
		p.Canary = &CanaryRecord{IV: string(iv), Ciphertext: string(ct)}
	}
	return p, nil
}

func (s *LocalStore) SetSalt(ctx context.Context, salt string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		ok, err := s.repo(tx).SetIfAbsent(ctx, s.key("salt"), []byte(salt))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("salt for %q: %w", s.user, ErrAlreadySet)
		}
		return nil
	})
}

func (s *LocalStore) SetCanary(ctx context.Context, rec CanaryRecord) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)

		ok, err := repo.SetIfAbsent(ctx, s.key("canary_iv"), []byte(rec.IV))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("canary for %q: %w", s.user, ErrAlreadySet)
		}

		ok, err = repo.SetIfAbsent(ctx, s.key("canary_ciphertext"), []byte(rec.Ciphertext))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("canary for %q: %w", s.user, ErrAlreadySet)
		}
		return nil
	})
}
