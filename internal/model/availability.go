package model

import "time"

// Window kinds stored in availability_windows.kind.  DEMO windows are
// sliced into fixed 15-minute slots, REGULAR windows become a single
// slot spanning the whole window, GROUP windows anchor batch sessions.
const (
    WindowDemo    = "DEMO"
    WindowRegular = "REGULAR"
    WindowGroup   = "GROUP"
)

// AvailabilityWindow is a block of time a tutor has published as
// bookable.  Windows are the source of truth from which discrete slots
// are derived; they are never mutated by bookings.  All instants are
// absolute UTC so that slots do not drift across client timezones.
// This struct corresponds to a row in the `availability_windows` table.
//
// Fields:
//  ID        - primary key identifier.
//  TutorID   - user ID of the publishing tutor.
//  Kind      - DEMO, REGULAR or GROUP.
//  StartsAt  - inclusive start instant (UTC).
//  EndsAt    - exclusive end instant (UTC), strictly after StartsAt.
//  CreatedAt - creation timestamp.
//  UpdatedAt - last update timestamp.
type AvailabilityWindow struct {
    ID        uint64    // availability_windows.id
    TutorID   uint64    // availability_windows.tutor_id
    Kind      string    // availability_windows.kind
    StartsAt  time.Time // availability_windows.starts_at
    EndsAt    time.Time // availability_windows.ends_at
    CreatedAt time.Time // availability_windows.created_at
    UpdatedAt time.Time // availability_windows.updated_at
}
