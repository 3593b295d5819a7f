package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/tutor-session-booking/internal/model"
)

// AvailabilityRepo provides CRUD operations for availability windows.
// Windows are owned by tutors; deletion enforces ownership.  All
// timestamp columns are stored as UTC DATETIME.
type AvailabilityRepo struct {
    db *sql.DB
}

// NewAvailabilityRepo returns a new AvailabilityRepo bound to the given database.
func NewAvailabilityRepo(db *sql.DB) *AvailabilityRepo { return &AvailabilityRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// that span multiple repositories.
func (r *AvailabilityRepo) DB() *sql.DB { return r.db }

// Create inserts a new availability window and populates the generated
// ID on the provided model.  Validation of the window bounds happens at
// the handler boundary; the repository assumes EndsAt > StartsAt.
func (r *AvailabilityRepo) Create(ctx context.Context, w *model.AvailabilityWindow) error {
    const q = `INSERT INTO availability_windows (tutor_id, kind, starts_at, ends_at) VALUES (?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, w.TutorID, w.Kind,
        w.StartsAt.UTC().Format("2006-01-02 15:04:05"),
        w.EndsAt.UTC().Format("2006-01-02 15:04:05"))
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    w.ID = uint64(id)
    return nil
}

// ListByTutorAndKind returns all windows of the given kind for a tutor,
// ordered by start instant ascending.  An empty slice means the tutor
// has published nothing of that kind; callers decide whether that is a
// 404 or an empty listing.
func (r *AvailabilityRepo) ListByTutorAndKind(ctx context.Context, tutorID uint64, kind string) ([]model.AvailabilityWindow, error) {
    const q = `SELECT id, tutor_id, kind, starts_at, ends_at, created_at, updated_at
               FROM availability_windows
               WHERE tutor_id = ? AND kind = ?
               ORDER BY starts_at ASC`
    return r.queryWindows(ctx, q, tutorID, kind)
}

// ListByTutor returns every window a tutor has published, newest kind
// groups intermixed, ordered by start instant.  Used by the tutor's own
// availability view.
func (r *AvailabilityRepo) ListByTutor(ctx context.Context, tutorID uint64) ([]model.AvailabilityWindow, error) {
    const q = `SELECT id, tutor_id, kind, starts_at, ends_at, created_at, updated_at
               FROM availability_windows
               WHERE tutor_id = ?
               ORDER BY starts_at ASC`
    return r.queryWindows(ctx, q, tutorID)
}

// Delete removes a window owned by the given tutor.  It returns
// sql.ErrNoRows when the window does not exist, ErrForbidden when it
// belongs to a different tutor, and ErrConflict while an active booking
// still sits inside the window.
func (r *AvailabilityRepo) Delete(ctx context.Context, windowID, tutorID uint64) error {
    var (
        ownerID    uint64
        start, end time.Time
    )
    err := r.db.QueryRowContext(ctx,
        `SELECT tutor_id, starts_at, ends_at FROM availability_windows WHERE id = ?`, windowID).
        Scan(&ownerID, &start, &end)
    if err != nil {
        return err
    }
    if ownerID != tutorID {
        return ErrForbidden
    }

    var n int
    err = r.db.QueryRowContext(ctx,
        `SELECT COUNT(1) FROM bookings
         WHERE tutor_id = ? AND status IN ('PENDING', 'CONFIRMED')
           AND starts_at < ? AND ends_at > ?`,
        tutorID,
        end.UTC().Format("2006-01-02 15:04:05"),
        start.UTC().Format("2006-01-02 15:04:05")).Scan(&n)
    if err != nil {
        return err
    }
    if n > 0 {
        return ErrConflict
    }

    _, err = r.db.ExecContext(ctx, `DELETE FROM availability_windows WHERE id = ?`, windowID)
    return err
}

func (r *AvailabilityRepo) queryWindows(ctx context.Context, q string, args ...interface{}) ([]model.AvailabilityWindow, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.AvailabilityWindow, 0)
    for rows.Next() {
        var w model.AvailabilityWindow
        if err := rows.Scan(&w.ID, &w.TutorID, &w.Kind, &w.StartsAt, &w.EndsAt, &w.CreatedAt, &w.UpdatedAt); err != nil {
            return nil, err
        }
        w.StartsAt = w.StartsAt.UTC()
        w.EndsAt = w.EndsAt.UTC()
        out = append(out, w)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// HasWindowCovering reports whether any window of the given kind fully
// contains [start, end).  The reservation transaction uses this to
// reject bookings for times the tutor never offered.
func (r *AvailabilityRepo) HasWindowCovering(ctx context.Context, tutorID uint64, kind string, start, end time.Time) (bool, error) {
    const q = `SELECT COUNT(1) FROM availability_windows
               WHERE tutor_id = ? AND kind = ? AND starts_at <= ? AND ends_at >= ?`
    var n int
    err := r.db.QueryRowContext(ctx, q, tutorID, kind,
        start.UTC().Format("2006-01-02 15:04:05"),
        end.UTC().Format("2006-01-02 15:04:05")).Scan(&n)
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// WindowsCovering returns every window of the given kind that fully
// contains [start, end).  Demo reservations need the window bounds, not
// just a yes or no, to check the start against the slice grid.
func (r *AvailabilityRepo) WindowsCovering(ctx context.Context, tutorID uint64, kind string, start, end time.Time) ([]model.AvailabilityWindow, error) {
    const q = `SELECT id, tutor_id, kind, starts_at, ends_at, created_at, updated_at
               FROM availability_windows
               WHERE tutor_id = ? AND kind = ? AND starts_at <= ? AND ends_at >= ?
               ORDER BY starts_at ASC`
    return r.queryWindows(ctx, q, tutorID, kind,
        start.UTC().Format("2006-01-02 15:04:05"),
        end.UTC().Format("2006-01-02 15:04:05"))
}
