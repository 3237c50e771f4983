package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/zkvault/internal/client/migrations"
	"github.com/dmitrijs2005/zkvault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/zkvault/internal/client/repositories/records"
	"github.com/dmitrijs2005/zkvault/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

const InMemoryDSN = ":memory:"

type Repositories struct {
	DB       *sql.DB
	Metadata metadata.Repository
	Records  records.Repository
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if needed) the SQLite database at path and
// migrates it. path may be InMemoryDSN for a throwaway database.
func InitDatabase(ctx context.Context, path string) (*Repositories, error) {
	dsn := path
	if path != InMemoryDSN {
		abs, err := filex.EnsureParentDir(path)
		if err != nil {
			return nil, err
		}
		dsn = abs
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one connection: an in-memory database lives per connection, and a
	// single writer avoids SQLITE_BUSY on files
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}

	return &Repositories{
		DB:       db,
		Metadata: metadata.NewSQLiteRepository(db),
		Records:  records.NewSQLiteRepository(db),
	}, nil
}
