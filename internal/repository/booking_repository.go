package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/tutor-session-booking/internal/model"
)

// BookingRepo provides CRUD operations for bookings.  A booking groups
// a student, a tutor and a time slot together with its reservation and
// payment state.  All timestamp fields are assumed to be stored in UTC.
// Methods with a Tx suffix run within a caller-owned transaction; the
// caller must commit or roll back.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *BookingRepo) DB() *sql.DB { return r.db }

const bookingCols = `id, student_id, tutor_id, kind, subject, starts_at, ends_at,
       requested_by, status, payment_status, amount_cents, billing_type,
       class_count, payment_ref, created_at, updated_at`

// CreateTx inserts a new booking within the scope of an existing
// transaction and populates the generated ID plus DB-defaulted
// timestamps on the provided model.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    const q = `INSERT INTO bookings
        (student_id, tutor_id, kind, subject, starts_at, ends_at, requested_by,
         status, payment_status, amount_cents, billing_type, class_count, payment_ref)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q,
        b.StudentID, b.TutorID, b.Kind, b.Subject,
        b.StartsAt.UTC().Format("2006-01-02 15:04:05"),
        b.EndsAt.UTC().Format("2006-01-02 15:04:05"),
        b.RequestedBy, b.Status, b.PaymentStatus, b.AmountCents,
        b.BillingType, b.ClassCount, b.PaymentRef)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    return tx.QueryRowContext(ctx,
        `SELECT created_at, updated_at FROM bookings WHERE id = ?`, b.ID,
    ).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// ActiveDemosByStudentTx returns the student's demo bookings that are
// still PENDING or CONFIRMED, locking the rows so a concurrent request
// cannot slip a second active demo past the uniqueness rule.
func (r *BookingRepo) ActiveDemosByStudentTx(ctx context.Context, tx *sql.Tx, studentID uint64) ([]model.Booking, error) {
    q := `SELECT ` + bookingCols + ` FROM bookings
          WHERE student_id = ? AND kind = ? AND status IN (?, ?)
          FOR UPDATE`
    rows, err := tx.QueryContext(ctx, q, studentID, model.BookingDemo,
        model.BookingPending, model.BookingConfirmed)
    if err != nil {
        return nil, err
    }
    return scanBookings(rows)
}

// ActiveByTutorTx returns a tutor's PENDING and CONFIRMED bookings,
// locked for the duration of the transaction.  The reservation handler
// uses these rows to detect slot collisions before inserting.
func (r *BookingRepo) ActiveByTutorTx(ctx context.Context, tx *sql.Tx, tutorID uint64) ([]model.Booking, error) {
    q := `SELECT ` + bookingCols + ` FROM bookings
          WHERE tutor_id = ? AND status IN (?, ?)
          FOR UPDATE`
    rows, err := tx.QueryContext(ctx, q, tutorID,
        model.BookingPending, model.BookingConfirmed)
    if err != nil {
        return nil, err
    }
    return scanBookings(rows)
}

// ActiveByTutor is the read-only variant used by the slot resolver.
func (r *BookingRepo) ActiveByTutor(ctx context.Context, tutorID uint64) ([]model.Booking, error) {
    q := `SELECT ` + bookingCols + ` FROM bookings
          WHERE tutor_id = ? AND status IN (?, ?)`
    rows, err := r.db.QueryContext(ctx, q, tutorID,
        model.BookingPending, model.BookingConfirmed)
    if err != nil {
        return nil, err
    }
    return scanBookings(rows)
}

// GetByID returns a single booking or sql.ErrNoRows.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+bookingCols+` FROM bookings WHERE id = ?`, id)
    return scanBooking(row)
}

// GetByIDTx loads a booking with a row lock inside an existing
// transaction, for status transitions.
func (r *BookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
    row := tx.QueryRowContext(ctx, `SELECT `+bookingCols+` FROM bookings WHERE id = ? FOR UPDATE`, id)
    return scanBooking(row)
}

// CompleteConfirmed moves a CONFIRMED booking to COMPLETED and reports
// whether this call performed the transition.  The WHERE guard is the
// latch: of several concurrent leave events only one observes the flip,
// so completion side effects fire exactly once.
func (r *BookingRepo) CompleteConfirmed(ctx context.Context, id uint64) (bool, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`,
        model.BookingCompleted, id, model.BookingConfirmed)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// UpdateStatusTx sets the booking status within a transaction.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
    _, err := tx.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, status, id)
    return err
}

// UpdatePaymentTx sets the payment status and reference within a
// transaction.  A nil ref leaves the stored reference untouched.
func (r *BookingRepo) UpdatePaymentTx(ctx context.Context, tx *sql.Tx, id uint64, paymentStatus string, ref *string) error {
    if ref == nil {
        _, err := tx.ExecContext(ctx, `UPDATE bookings SET payment_status = ? WHERE id = ?`, paymentStatus, id)
        return err
    }
    _, err := tx.ExecContext(ctx,
        `UPDATE bookings SET payment_status = ?, payment_ref = ? WHERE id = ?`,
        paymentStatus, *ref, id)
    return err
}

// GetByPaymentRef resolves a booking from its payment order reference.
func (r *BookingRepo) GetByPaymentRef(ctx context.Context, ref string) (*model.Booking, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+bookingCols+` FROM bookings WHERE payment_ref = ? LIMIT 1`, ref)
    return scanBooking(row)
}

// ListByStudent returns all bookings for the given student, newest
// first.  When no bookings exist, an empty slice is returned.
func (r *BookingRepo) ListByStudent(ctx context.Context, studentID uint64) ([]model.Booking, error) {
    q := `SELECT ` + bookingCols + ` FROM bookings WHERE student_id = ? ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, studentID)
    if err != nil {
        return nil, err
    }
    return scanBookings(rows)
}

// ListByTutor returns all bookings addressed to the given tutor, newest
// first.
func (r *BookingRepo) ListByTutor(ctx context.Context, tutorID uint64) ([]model.Booking, error) {
    q := `SELECT ` + bookingCols + ` FROM bookings WHERE tutor_id = ? ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, tutorID)
    if err != nil {
        return nil, err
    }
    return scanBookings(rows)
}

func scanBooking(row *sql.Row) (*model.Booking, error) {
    var b model.Booking
    var billing sql.NullString
    var classCount sql.NullInt64
    var payRef sql.NullString
    err := row.Scan(&b.ID, &b.StudentID, &b.TutorID, &b.Kind, &b.Subject,
        &b.StartsAt, &b.EndsAt, &b.RequestedBy, &b.Status, &b.PaymentStatus,
        &b.AmountCents, &billing, &classCount, &payRef, &b.CreatedAt, &b.UpdatedAt)
    if err != nil {
        return nil, err
    }
    applyNullables(&b, billing, classCount, payRef)
    return &b, nil
}

func scanBookings(rows *sql.Rows) ([]model.Booking, error) {
    defer rows.Close()
    out := make([]model.Booking, 0)
    for rows.Next() {
        var b model.Booking
        var billing sql.NullString
        var classCount sql.NullInt64
        var payRef sql.NullString
        if err := rows.Scan(&b.ID, &b.StudentID, &b.TutorID, &b.Kind, &b.Subject,
            &b.StartsAt, &b.EndsAt, &b.RequestedBy, &b.Status, &b.PaymentStatus,
            &b.AmountCents, &billing, &classCount, &payRef, &b.CreatedAt, &b.UpdatedAt); err != nil {
            return nil, err
        }
        applyNullables(&b, billing, classCount, payRef)
        out = append(out, b)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

func applyNullables(b *model.Booking, billing sql.NullString, classCount sql.NullInt64, payRef sql.NullString) {
    b.StartsAt = b.StartsAt.UTC()
    b.EndsAt = b.EndsAt.UTC()
    if billing.Valid {
        v := billing.String
        b.BillingType = &v
    }
    if classCount.Valid {
        v := uint32(classCount.Int64)
        b.ClassCount = &v
    }
    if payRef.Valid {
        v := payRef.String
        b.PaymentRef = &v
    }
}
