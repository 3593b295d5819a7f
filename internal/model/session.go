package model

import "time"

// Session sources stored in sessions.source.
const (
    SessionFromBooking = "BOOKING"
    SessionFromBatch   = "BATCH"
)

// Session event kinds stored in session_events.kind.
const (
    EventJoined = "JOINED"
    EventLeft   = "LEFT"
)

// Session is a scheduled occurrence of a confirmed booking or batch
// enrollment.  Joining is gated by a time window around the scheduled
// bounds; the window margins depend on the parent kind and live in
// config, not on the row.  This struct corresponds to a row in the
// `sessions` table.
//
// Fields:
//  ID         - primary key identifier.
//  Source     - BOOKING or BATCH.
//  SourceID   - id of the parent booking or batch.
//  StartsAt   - scheduled start instant (UTC).
//  EndsAt     - scheduled end instant (UTC).
//  MeetingURL - conference URL handed out on join.
//  CreatedAt  - creation timestamp.
type Session struct {
    ID         uint64    // sessions.id
    Source     string    // sessions.source
    SourceID   uint64    // sessions.source_id
    StartsAt   time.Time // sessions.starts_at
    EndsAt     time.Time // sessions.ends_at
    MeetingURL string    // sessions.meeting_url
    CreatedAt  time.Time // sessions.created_at
}

// SessionEvent records a join or leave per actor per session.  The
// table carries UNIQUE(session_id, user_id, kind) so repeated joins or
// leaves by the same actor collapse into a single row.
//
// Fields:
//  ID        - primary key identifier.
//  SessionID - session the event belongs to.
//  UserID    - acting user.
//  Kind      - JOINED or LEFT.
//  CreatedAt - when the event was first recorded.
type SessionEvent struct {
    ID        uint64    // session_events.id
    SessionID uint64    // session_events.session_id
    UserID    uint64    // session_events.user_id
    Kind      string    // session_events.kind
    CreatedAt time.Time // session_events.created_at
}
