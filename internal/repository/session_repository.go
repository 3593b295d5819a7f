package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/tutor-session-booking/internal/model"
)

// SessionRepo provides access to sessions and their join/leave events.
// Event recording is idempotent at the storage level: the unique index
// on (session_id, user_id, kind) collapses repeated joins or leaves by
// the same actor into a single row, and INSERT IGNORE reports through
// RowsAffected whether this call was the first.
type SessionRepo struct {
    db *sql.DB
}

// NewSessionRepo returns a new SessionRepo bound to the given database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *SessionRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a session row for a freshly confirmed booking or
// enrollment and populates the generated ID.
func (r *SessionRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Session) error {
    const q = `INSERT INTO sessions (source, source_id, starts_at, ends_at, meeting_url)
               VALUES (?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, s.Source, s.SourceID,
        s.StartsAt.UTC().Format("2006-01-02 15:04:05"),
        s.EndsAt.UTC().Format("2006-01-02 15:04:05"),
        s.MeetingURL)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    s.ID = uint64(id)
    return nil
}

// GetByID returns a single session or sql.ErrNoRows.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (*model.Session, error) {
    var s model.Session
    err := r.db.QueryRowContext(ctx,
        `SELECT id, source, source_id, starts_at, ends_at, meeting_url, created_at
         FROM sessions WHERE id = ?`, id).
        Scan(&s.ID, &s.Source, &s.SourceID, &s.StartsAt, &s.EndsAt, &s.MeetingURL, &s.CreatedAt)
    if err != nil {
        return nil, err
    }
    s.StartsAt = s.StartsAt.UTC()
    s.EndsAt = s.EndsAt.UTC()
    return &s, nil
}

// GetBySource returns the session generated from a booking or batch.
func (r *SessionRepo) GetBySource(ctx context.Context, source string, sourceID uint64) (*model.Session, error) {
    var s model.Session
    err := r.db.QueryRowContext(ctx,
        `SELECT id, source, source_id, starts_at, ends_at, meeting_url, created_at
         FROM sessions WHERE source = ? AND source_id = ? LIMIT 1`, source, sourceID).
        Scan(&s.ID, &s.Source, &s.SourceID, &s.StartsAt, &s.EndsAt, &s.MeetingURL, &s.CreatedAt)
    if err != nil {
        return nil, err
    }
    s.StartsAt = s.StartsAt.UTC()
    s.EndsAt = s.EndsAt.UTC()
    return &s, nil
}

// RecordEvent stores a join or leave event for an actor.  It returns
// true when this call inserted the row and false when the event had
// already been recorded, without error in either case.
func (r *SessionRepo) RecordEvent(ctx context.Context, sessionID, userID uint64, kind string) (bool, error) {
    res, err := r.db.ExecContext(ctx,
        `INSERT IGNORE INTO session_events (session_id, user_id, kind) VALUES (?, ?, ?)`,
        sessionID, userID, kind)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}
