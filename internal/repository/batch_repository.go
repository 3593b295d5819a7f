package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/tutor-session-booking/internal/model"
)

// ErrNoSeats is returned by ReserveSeatTx when the guarded decrement
// finds no live seats left.  Handlers translate this into the
// seats-exhausted conflict response.
var ErrNoSeats = errors.New("no live seats")

// ErrHoldLapsed is returned by ConfirmEnrollmentTx when the enrollment
// is no longer a live PENDING hold.  A late payment on a released seat
// must not confirm, or a cancelled hold would bypass the seat counter.
var ErrHoldLapsed = errors.New("payment hold has lapsed")

// BatchRepo provides access to group batches and their enrollments.
// Seat accounting is the critical part: live_seats is only ever changed
// by a guarded UPDATE so it can never go negative, and expired pending
// enrollments release their seat exactly once before any new
// reservation is attempted.
type BatchRepo struct {
    db *sql.DB
}

// NewBatchRepo returns a new BatchRepo bound to the given database.
func NewBatchRepo(db *sql.DB) *BatchRepo { return &BatchRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *BatchRepo) DB() *sql.DB { return r.db }

const batchCols = `id, tutor_id, title, subject, starts_at, session_count,
       capacity, live_seats, price_cents, created_at, updated_at`

// Create inserts a new batch with live_seats initialised to capacity
// and populates the generated ID.
func (r *BatchRepo) Create(ctx context.Context, b *model.GroupBatch) error {
    const q = `INSERT INTO group_batches
        (tutor_id, title, subject, starts_at, session_count, capacity, live_seats, price_cents)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, b.TutorID, b.Title, b.Subject,
        b.StartsAt.UTC().Format("2006-01-02 15:04:05"),
        b.SessionCount, b.Capacity, b.Capacity, b.PriceCents)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    b.LiveSeats = b.Capacity
    return nil
}

// List returns upcoming batches ordered by start instant.  Batches that
// already started are excluded from browsing.
func (r *BatchRepo) List(ctx context.Context) ([]model.GroupBatch, error) {
    q := `SELECT ` + batchCols + ` FROM group_batches WHERE starts_at > UTC_TIMESTAMP() ORDER BY starts_at ASC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.GroupBatch, 0)
    for rows.Next() {
        var b model.GroupBatch
        if err := rows.Scan(&b.ID, &b.TutorID, &b.Title, &b.Subject, &b.StartsAt,
            &b.SessionCount, &b.Capacity, &b.LiveSeats, &b.PriceCents,
            &b.CreatedAt, &b.UpdatedAt); err != nil {
            return nil, err
        }
        b.StartsAt = b.StartsAt.UTC()
        out = append(out, b)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// GetByID returns a single batch or sql.ErrNoRows.
func (r *BatchRepo) GetByID(ctx context.Context, id uint64) (*model.GroupBatch, error) {
    var b model.GroupBatch
    err := r.db.QueryRowContext(ctx, `SELECT `+batchCols+` FROM group_batches WHERE id = ?`, id).
        Scan(&b.ID, &b.TutorID, &b.Title, &b.Subject, &b.StartsAt,
            &b.SessionCount, &b.Capacity, &b.LiveSeats, &b.PriceCents,
            &b.CreatedAt, &b.UpdatedAt)
    if err != nil {
        return nil, err
    }
    b.StartsAt = b.StartsAt.UTC()
    return &b, nil
}

// ReleaseExpiredTx cancels PENDING enrollments on the batch whose
// payment deadline has passed and returns their seats to live_seats.
// Each released enrollment increments the counter exactly once because
// the cancel and the increment happen in the same statement pair under
// the caller's transaction.  Returns the number of seats released.
func (r *BatchRepo) ReleaseExpiredTx(ctx context.Context, tx *sql.Tx, batchID uint64) (int, error) {
    res, err := tx.ExecContext(ctx,
        `UPDATE batch_enrollments
         SET status = ?, payment_status = ?
         WHERE batch_id = ? AND status = ? AND expires_at <= UTC_TIMESTAMP()`,
        model.BookingCancelled, model.PaymentFailed, batchID, model.BookingPending)
    if err != nil {
        return 0, err
    }
    released, err := res.RowsAffected()
    if err != nil {
        return 0, err
    }
    if released > 0 {
        _, err = tx.ExecContext(ctx,
            `UPDATE group_batches SET live_seats = LEAST(capacity, live_seats + ?) WHERE id = ?`,
            released, batchID)
        if err != nil {
            return 0, err
        }
    }
    return int(released), nil
}

// ReserveSeatTx performs the atomic seat decrement.  The WHERE guard
// makes the counter the authoritative arbiter under concurrency: of two
// racing reservations for the last seat, exactly one UPDATE matches.
// Returns ErrNoSeats when no seat was available.
func (r *BatchRepo) ReserveSeatTx(ctx context.Context, tx *sql.Tx, batchID uint64) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE group_batches SET live_seats = live_seats - 1 WHERE id = ? AND live_seats > 0`,
        batchID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNoSeats
    }
    return nil
}

// CreateEnrollmentTx inserts a PENDING enrollment with its payment
// deadline and populates the generated ID.
func (r *BatchRepo) CreateEnrollmentTx(ctx context.Context, tx *sql.Tx, e *model.BatchEnrollment) error {
    const q = `INSERT INTO batch_enrollments (batch_id, student_id, status, payment_status, order_ref, expires_at)
               VALUES (?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, e.BatchID, e.StudentID, e.Status, e.PaymentStatus,
        e.OrderRef, e.ExpiresAt.UTC().Format("2006-01-02 15:04:05"))
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    e.ID = uint64(id)
    return nil
}

const enrollmentCols = `id, batch_id, student_id, status, payment_status, order_ref, expires_at, created_at, updated_at`

// GetEnrollment returns a single enrollment or sql.ErrNoRows.
func (r *BatchRepo) GetEnrollment(ctx context.Context, id uint64) (*model.BatchEnrollment, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+enrollmentCols+` FROM batch_enrollments WHERE id = ?`, id)
    return scanEnrollment(row)
}

// GetEnrollmentByOrderRef resolves the enrollment a payment callback
// belongs to.
func (r *BatchRepo) GetEnrollmentByOrderRef(ctx context.Context, ref string) (*model.BatchEnrollment, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+enrollmentCols+` FROM batch_enrollments WHERE order_ref = ? LIMIT 1`, ref)
    return scanEnrollment(row)
}

// PendingEnrollmentForStudent returns the student's live PENDING
// enrollment on a batch, if any.  Used to attach the payment order.
func (r *BatchRepo) PendingEnrollmentForStudent(ctx context.Context, batchID, studentID uint64) (*model.BatchEnrollment, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+enrollmentCols+` FROM batch_enrollments
         WHERE batch_id = ? AND student_id = ? AND status = ? AND expires_at > UTC_TIMESTAMP()
         ORDER BY created_at DESC LIMIT 1`,
        batchID, studentID, model.BookingPending)
    return scanEnrollment(row)
}

// ConfirmedEnrollmentForStudent returns the student's CONFIRMED
// enrollment on a batch, if any.  Used to gate session joins.
func (r *BatchRepo) ConfirmedEnrollmentForStudent(ctx context.Context, batchID, studentID uint64) (*model.BatchEnrollment, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+enrollmentCols+` FROM batch_enrollments
         WHERE batch_id = ? AND student_id = ? AND status = ?
         ORDER BY created_at DESC LIMIT 1`,
        batchID, studentID, model.BookingConfirmed)
    return scanEnrollment(row)
}

// SetEnrollmentOrder stores the gateway order reference and marks the
// payment INITIATED.
func (r *BatchRepo) SetEnrollmentOrder(ctx context.Context, id uint64, orderRef string) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE batch_enrollments SET order_ref = ?, payment_status = ? WHERE id = ?`,
        orderRef, model.PaymentInitiated, id)
    return err
}

// ConfirmEnrollmentTx finalises an enrollment after payment
// verification: status CONFIRMED, payment COMPLETED.  The WHERE guard
// only matches a live PENDING hold, so a signature that arrives after
// the deadline (when ReleaseExpiredTx may already have returned the
// seat) gets ErrHoldLapsed instead of a free confirmation.
func (r *BatchRepo) ConfirmEnrollmentTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE batch_enrollments SET status = ?, payment_status = ?
         WHERE id = ? AND status = ? AND expires_at > UTC_TIMESTAMP()`,
        model.BookingConfirmed, model.PaymentCompleted, id, model.BookingPending)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrHoldLapsed
    }
    return nil
}

// FailEnrollmentPayment records a failed verification without touching
// the seat; the seat flows back through ReleaseExpiredTx on expiry.
func (r *BatchRepo) FailEnrollmentPayment(ctx context.Context, id uint64) error {
    _, err := r.db.ExecContext(ctx,
        `UPDATE batch_enrollments SET payment_status = ? WHERE id = ?`,
        model.PaymentFailed, id)
    return err
}

func scanEnrollment(row *sql.Row) (*model.BatchEnrollment, error) {
    var e model.BatchEnrollment
    var ref sql.NullString
    err := row.Scan(&e.ID, &e.BatchID, &e.StudentID, &e.Status, &e.PaymentStatus,
        &ref, &e.ExpiresAt, &e.CreatedAt, &e.UpdatedAt)
    if err != nil {
        return nil, err
    }
    if ref.Valid {
        v := ref.String
        e.OrderRef = &v
    }
    e.ExpiresAt = e.ExpiresAt.UTC()
    return &e, nil
}
