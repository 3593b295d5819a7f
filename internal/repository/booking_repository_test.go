package repository

import (
    "context"
    "regexp"
    "testing"

    sqlmock "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestCompleteConfirmedFlipsOnce(t *testing.T) {
    db, mock := newMockDB(t)
    repo := NewBookingRepo(db)

    mock.ExpectExec(regexp.QuoteMeta(
        `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`)).
        WithArgs("COMPLETED", uint64(9), "CONFIRMED").
        WillReturnResult(sqlmock.NewResult(0, 1))

    won, err := repo.CompleteConfirmed(context.Background(), 9)
    require.NoError(t, err)
    assert.True(t, won)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteConfirmedLosesRace(t *testing.T) {
    db, mock := newMockDB(t)
    repo := NewBookingRepo(db)

    // another leave already completed the booking; this caller must not
    // report the transition as its own
    mock.ExpectExec(regexp.QuoteMeta(
        `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`)).
        WithArgs("COMPLETED", uint64(9), "CONFIRMED").
        WillReturnResult(sqlmock.NewResult(0, 0))

    won, err := repo.CompleteConfirmed(context.Background(), 9)
    require.NoError(t, err)
    assert.False(t, won)
    assert.NoError(t, mock.ExpectationsWereMet())
}
