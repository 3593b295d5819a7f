package repository

import (
    "context"
    "database/sql"
    "regexp"
    "testing"
    "time"

    sqlmock "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestValidateRefresh(t *testing.T) {
    db, mock := newMockDB(t)
    repo := NewTokenRepo(db)
    q := regexp.QuoteMeta(`SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE token_hash = ? LIMIT 1`)
    future := time.Now().UTC().Add(time.Hour)

    t.Run("live token resolves its owner", func(t *testing.T) {
        mock.ExpectQuery(q).WithArgs("abc").
            WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
                AddRow(42, future, nil))
        uid, err := repo.ValidateRefresh(context.Background(), "abc")
        require.NoError(t, err)
        assert.Equal(t, uint64(42), uid)
    })

    t.Run("revoked token looks unknown", func(t *testing.T) {
        mock.ExpectQuery(q).WithArgs("abc").
            WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
                AddRow(42, future, time.Now().UTC()))
        _, err := repo.ValidateRefresh(context.Background(), "abc")
        assert.Equal(t, sql.ErrNoRows, err)
    })

    t.Run("expired token looks unknown", func(t *testing.T) {
        mock.ExpectQuery(q).WithArgs("abc").
            WillReturnRows(sqlmock.NewRows([]string{"user_id", "expires_at", "revoked_at"}).
                AddRow(42, time.Now().UTC().Add(-time.Minute), nil))
        _, err := repo.ValidateRefresh(context.Background(), "abc")
        assert.Equal(t, sql.ErrNoRows, err)
    })

    assert.NoError(t, mock.ExpectationsWereMet())
}
