package profiles

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/zkvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	getQuery    = `(?s)^SELECT\s+username,\s*salt,\s*canary_iv,\s*canary_ciphertext\s+FROM\s+profiles\s+WHERE\s+username\s*=\s*\$1\s*$`
	insertQuery = `(?s)^INSERT\s+INTO\s+profiles\s*\(username,\s*salt\)\s*VALUES\s*\(\$1,\s*\$2\)\s*ON\s+CONFLICT\s*\(username\)\s*DO\s+NOTHING\s*$`
	canaryQuery = `(?s)^UPDATE\s+profiles\s+SET\s+canary_iv\s*=\s*\$2,\s*canary_ciphertext\s*=\s*\$3,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+username\s*=\s*\$1\s+AND\s+canary_iv\s+IS\s+NULL\s*$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func TestGet_WithCanary(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"username", "salt", "canary_iv", "canary_ciphertext"}).
		AddRow("alice", "c2FsdA==", "aXY=", "Y3Q=")
	mock.ExpectQuery(getQuery).WithArgs("alice").WillReturnRows(rows)

	p, err := repo.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.UserName)
	assert.Equal(t, "c2FsdA==", p.Salt)
	assert.True(t, p.HasCanary())
}

func TestGet_NullCanary(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"username", "salt", "canary_iv", "canary_ciphertext"}).
		AddRow("alice", "c2FsdA==", nil, nil)
	mock.ExpectQuery(getQuery).WithArgs("alice").WillReturnRows(rows)

	p, err := repo.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, p.HasCanary())
	assert.Empty(t, p.CanaryIV)
}

func TestGet_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(getQuery).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGet_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(getQuery).WithArgs("alice").WillReturnError(errors.New("db down"))

	_, err := repo.Get(context.Background(), "alice")
	require.Error(t, err)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestInsertSalt(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "new profile", affected: 1, want: true},
		{name: "already present", affected: 0, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			mock.ExpectExec(insertQuery).WithArgs("alice", "c2FsdA==").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			ok, err := repo.InsertSalt(context.Background(), "alice", "c2FsdA==")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestInsertSalt_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(insertQuery).WithArgs("alice", "s").WillReturnError(errors.New("boom"))

	_, err := repo.InsertSalt(context.Background(), "alice", "s")
	require.Error(t, err)
}

func TestSetCanary(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "first canary", affected: 1, want: true},
		{name: "canary already set", affected: 0, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)
			mock.ExpectExec(canaryQuery).WithArgs("alice", "aXY=", "Y3Q=").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			ok, err := repo.SetCanary(context.Background(), "alice", "aXY=", "Y3Q=")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestSetCanary_RowsAffectedError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(canaryQuery).WithArgs("alice", "aXY=", "Y3Q=").
		WillReturnResult(sqlmock.NewErrorResult(errors.New("no count")))

	_, err := repo.SetCanary(context.Background(), "alice", "aXY=", "Y3Q=")
	require.Error(t, err)
}
