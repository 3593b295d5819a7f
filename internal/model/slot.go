package model

import "time"

// Slot is a discrete bookable unit derived from an AvailabilityWindow.
// Slots are not stored; the resolver computes them on read by slicing
// windows and subtracting active bookings.  A slot whose Booked flag is
// set is kept out of the free list but never deleted, so repeated
// listings are stable.
//
// Fields:
//  TutorID  - owning tutor.
//  Kind     - DEMO or REGULAR (GROUP sessions are scheduled per batch).
//  StartsAt - inclusive start instant (UTC).
//  EndsAt   - exclusive end instant (UTC).
//  Booked   - true when an active booking overlaps this slot.
type Slot struct {
    TutorID  uint64    `json:"tutor_id"`
    Kind     string    `json:"kind"`
    StartsAt time.Time `json:"starts_at"`
    EndsAt   time.Time `json:"ends_at"`
    Booked   bool      `json:"-"`
}

// SlotDay groups free slots by calendar day for display.  Grouping is a
// pure presentation transform; the underlying ordering is by start
// instant ascending.
type SlotDay struct {
    Date  string `json:"date"` // YYYY-MM-DD in UTC
    Slots []Slot `json:"slots"`
}
