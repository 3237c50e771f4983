package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/dmitrijs2005/zkvault/internal/dbx"
	"github.com/dmitrijs2005/zkvault/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userName string) (*models.Profile, error) {
	query :=
		`SELECT username, salt, canary_iv, canary_ciphertext FROM profiles
		 WHERE username = $1
		 `

	var (
		p      models.Profile
		iv, ct sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, userName).Scan(&p.UserName, &p.Salt, &iv, &ct)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	p.CanaryIV, p.CanaryCiphertext = iv.String, ct.String
	return &p, nil
}

func (r *PostgresRepository) InsertSalt(ctx context.Context, userName, salt string) (bool, error) {
	query :=
		`INSERT INTO profiles (username, salt)
		 VALUES ($1, $2)
		 ON CONFLICT (username) DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, query, userName, salt)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return affected(res)
}

func (r *PostgresRepository) SetCanary(ctx context.Context, userName, iv, ciphertext string) (bool, error) {
	query :=
		`UPDATE profiles SET canary_iv = $2, canary_ciphertext = $3, updated_at = now()
		 WHERE username = $1 AND canary_iv IS NULL
		 `

	res, err := r.db.ExecContext(ctx, query, userName, iv, ciphertext)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return affected(res)
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n == 1, nil
}
