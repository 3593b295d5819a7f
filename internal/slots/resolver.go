// Package slots turns a tutor's published availability windows into the
// ordered set of discrete slots a student can actually book.  The
// expansion is pure: it takes windows and the tutor's active bookings
// as input and never touches storage, so the repository layer decides
// what "active" means and this package only does time arithmetic.
package slots

import (
    "sort"
    "time"

    "github.com/iliyamo/tutor-session-booking/internal/model"
)

// DemoSlotLength is the fixed duration of a demo slot.  Regular windows
// are not sliced; they become a single slot spanning the whole window.
const DemoSlotLength = 15 * time.Minute

// Interval is an occupied time range used to exclude already-booked
// slots from the free list.  Bounds follow [Start, End) semantics.
type Interval struct {
    Start time.Time
    End   time.Time
}

// Expand slices the given windows into slots of the requested kind at
// the instant now.  Slices that start before now are dropped, and
// slices overlapping any of the booked intervals are marked Booked.
// The result is stable-sorted by start instant ascending and includes
// booked slots so callers can distinguish "taken" from "never offered".
func Expand(windows []model.AvailabilityWindow, booked []Interval, kind string, now time.Time) []model.Slot {
    now = now.UTC()
    out := make([]model.Slot, 0, len(windows))
    for _, w := range windows {
        if w.Kind != kind {
            continue
        }
        step := w.EndsAt.Sub(w.StartsAt)
        if kind == model.WindowDemo {
            step = DemoSlotLength
        }
        if step <= 0 {
            continue
        }
        for t := w.StartsAt; !t.Add(step).After(w.EndsAt); t = t.Add(step) {
            if t.Before(now) {
                continue
            }
            s := model.Slot{
                TutorID:  w.TutorID,
                Kind:     kind,
                StartsAt: t,
                EndsAt:   t.Add(step),
            }
            s.Booked = overlapsAny(s, booked)
            out = append(out, s)
        }
    }
    sort.SliceStable(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
    return out
}

// OnGrid reports whether start sits on the demo slice grid of a window
// beginning at windowStart.  Expand only ever advertises grid-aligned
// slices; accepting off-grid starts would fragment the neighbouring
// slots.
func OnGrid(windowStart, start time.Time) bool {
    d := start.Sub(windowStart)
    return d >= 0 && d%DemoSlotLength == 0
}

// Free filters Expand output down to the bookable slots.
func Free(all []model.Slot) []model.Slot {
    out := make([]model.Slot, 0, len(all))
    for _, s := range all {
        if !s.Booked {
            out = append(out, s)
        }
    }
    return out
}

// GroupByDay buckets slots by UTC calendar day, preserving the slot
// order inside each bucket.  Days appear in chronological order.  This
// is a display transform only; nothing downstream depends on it.
func GroupByDay(free []model.Slot) []model.SlotDay {
    days := make([]model.SlotDay, 0)
    index := make(map[string]int)
    for _, s := range free {
        d := s.StartsAt.UTC().Format("2006-01-02")
        i, ok := index[d]
        if !ok {
            i = len(days)
            index[d] = i
            days = append(days, model.SlotDay{Date: d, Slots: []model.Slot{}})
        }
        days[i].Slots = append(days[i].Slots, s)
    }
    return days
}

// overlapsAny reports whether the slot's [start, end) range intersects
// any of the occupied intervals.
func overlapsAny(s model.Slot, booked []Interval) bool {
    for _, b := range booked {
        if s.StartsAt.Before(b.End) && b.Start.Before(s.EndsAt) {
            return true
        }
    }
    return false
}
