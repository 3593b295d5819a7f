package repository

import (
    "context"
    "database/sql"
    "regexp"
    "testing"

    sqlmock "github.com/DATA-DOG/go-sqlmock"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })
    return db, mock
}

func beginTx(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock) *sql.Tx {
    t.Helper()
    mock.ExpectBegin()
    tx, err := db.Begin()
    require.NoError(t, err)
    return tx
}

func TestReserveSeatTxTakesASeat(t *testing.T) {
    db, mock := newMockDB(t)
    repo := NewBatchRepo(db)
    tx := beginTx(t, db, mock)

    mock.ExpectExec(regexp.QuoteMeta(
        `UPDATE group_batches SET live_seats = live_seats - 1 WHERE id = ? AND live_seats > 0`)).
        WithArgs(uint64(7)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    require.NoError(t, repo.ReserveSeatTx(context.Background(), tx, 7))
    require.NoError(t, tx.Commit())
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSeatTxExhausted(t *testing.T) {
    db, mock := newMockDB(t)
    repo := NewBatchRepo(db)
    tx := beginTx(t, db, mock)

    // last seat already gone: the guarded UPDATE matches nothing
    mock.ExpectExec(regexp.QuoteMeta(
        `UPDATE group_batches SET live_seats = live_seats - 1 WHERE id = ? AND live_seats > 0`)).
        WithArgs(uint64(7)).
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectRollback()

    err := repo.ReserveSeatTx(context.Background(), tx, 7)
    assert.ErrorIs(t, err, ErrNoSeats)
    require.NoError(t, tx.Rollback())
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseExpiredTxReturnsSeats(t *testing.T) {
    db, mock := newMockDB(t)
    repo := NewBatchRepo(db)
    tx := beginTx(t, db, mock)

    mock.ExpectExec(`UPDATE batch_enrollments\s+SET status = \?, payment_status = \?\s+WHERE batch_id = \? AND status = \? AND expires_at <= UTC_TIMESTAMP\(\)`).
        WithArgs("CANCELLED", "FAILED", uint64(3), "PENDING").
        WillReturnResult(sqlmock.NewResult(0, 2))
    // the increment is capped at capacity so releases can never mint
    // seats that were never sold
    mock.ExpectExec(regexp.QuoteMeta(
        `UPDATE group_batches SET live_seats = LEAST(capacity, live_seats + ?) WHERE id = ?`)).
        WithArgs(int64(2), uint64(3)).
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    released, err := repo.ReleaseExpiredTx(context.Background(), tx, 3)
    require.NoError(t, err)
    assert.Equal(t, 2, released)
    require.NoError(t, tx.Commit())
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseExpiredTxNothingExpired(t *testing.T) {
    db, mock := newMockDB(t)
    repo := NewBatchRepo(db)
    tx := beginTx(t, db, mock)

    // no lapsed holds: the seat counter must not be touched at all
    mock.ExpectExec(`UPDATE batch_enrollments\s+SET status = \?, payment_status = \?\s+WHERE batch_id = \? AND status = \? AND expires_at <= UTC_TIMESTAMP\(\)`).
        WithArgs("CANCELLED", "FAILED", uint64(3), "PENDING").
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectCommit()

    released, err := repo.ReleaseExpiredTx(context.Background(), tx, 3)
    require.NoError(t, err)
    assert.Equal(t, 0, released)
    require.NoError(t, tx.Commit())
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmEnrollmentTxConfirmsLiveHold(t *testing.T) {
    db, mock := newMockDB(t)
    repo := NewBatchRepo(db)
    tx := beginTx(t, db, mock)

    mock.ExpectExec(`UPDATE batch_enrollments SET status = \?, payment_status = \?\s+WHERE id = \? AND status = \? AND expires_at > UTC_TIMESTAMP\(\)`).
        WithArgs("CONFIRMED", "COMPLETED", uint64(11), "PENDING").
        WillReturnResult(sqlmock.NewResult(0, 1))
    mock.ExpectCommit()

    require.NoError(t, repo.ConfirmEnrollmentTx(context.Background(), tx, 11))
    require.NoError(t, tx.Commit())
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmEnrollmentTxRejectsLapsedHold(t *testing.T) {
    db, mock := newMockDB(t)
    repo := NewBatchRepo(db)
    tx := beginTx(t, db, mock)

    // the hold expired and its seat may already belong to someone else;
    // a late valid payment must not resurrect it
    mock.ExpectExec(`UPDATE batch_enrollments SET status = \?, payment_status = \?\s+WHERE id = \? AND status = \? AND expires_at > UTC_TIMESTAMP\(\)`).
        WithArgs("CONFIRMED", "COMPLETED", uint64(11), "PENDING").
        WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectRollback()

    err := repo.ConfirmEnrollmentTx(context.Background(), tx, 11)
    assert.ErrorIs(t, err, ErrHoldLapsed)
    require.NoError(t, tx.Rollback())
    assert.NoError(t, mock.ExpectationsWereMet())
}
