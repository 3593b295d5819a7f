package booking

import (
    "math"
    "strings"
    "time"

    "github.com/iliyamo/tutor-session-booking/internal/model"
)

// Decisions accepted by Respond.
const (
    DecisionAccept = "accept"
    DecisionReject = "reject"
)

// CheckNoActiveDemo enforces the one-active-demo rule: a student may
// hold at most one demo booking in PENDING or CONFIRMED across all
// tutors.  The caller passes the student's existing demo bookings;
// terminal ones are ignored.
func CheckNoActiveDemo(existing []model.Booking) error {
    for i := range existing {
        if existing[i].Kind == model.BookingDemo && existing[i].Active() {
            return ErrActiveDemoExists
        }
    }
    return nil
}

// CheckSlotFree verifies that the requested [start, end) range does not
// overlap any of the tutor's active bookings.  The authoritative check
// runs inside the reservation transaction; this is the same predicate
// applied to the rows the transaction locked.
func CheckSlotFree(start, end time.Time, active []model.Booking) error {
    for i := range active {
        b := &active[i]
        if !b.Active() {
            continue
        }
        if start.Before(b.EndsAt) && b.StartsAt.Before(end) {
            return ErrSlotUnavailable
        }
    }
    return nil
}

// InitialDemoStatus resolves the canonical state machine for new demo
// bookings: student-initiated demos are confirmed immediately, while
// tutor-initiated requests wait PENDING for the student's answer.
func InitialDemoStatus(requestedBy string) string {
    if requestedBy == model.RoleTutor {
        return model.BookingPending
    }
    return model.BookingConfirmed
}

// Respond applies an accept or reject decision to a pending demo
// request and returns the resulting status.  Only the non-requesting
// party may respond: the student answers tutor-initiated requests and
// vice versa.  Terminal or already-confirmed bookings are rejected
// with ErrInvalidTransition.
func Respond(b *model.Booking, actorID uint64, decision string) (string, error) {
    if b.Status != model.BookingPending {
        return "", ErrInvalidTransition
    }
    responder := b.StudentID
    if b.RequestedBy == model.RoleStudent {
        responder = b.TutorID
    }
    if actorID != responder {
        return "", ErrNotAuthorized
    }
    switch strings.ToLower(strings.TrimSpace(decision)) {
    case DecisionAccept:
        return model.BookingConfirmed, nil
    case DecisionReject:
        return model.BookingCancelled, nil
    default:
        return "", ErrInvalidTransition
    }
}

// CompleteOnLeave returns the status a booking moves to when the first
// leave event fires on its session.  Only confirmed bookings complete;
// anything else keeps its current status and reports false.
func CompleteOnLeave(b *model.Booking) (string, bool) {
    if b.Status != model.BookingConfirmed {
        return b.Status, false
    }
    return model.BookingCompleted, true
}

// Upgrade describes a validated regular-class upgrade derived from a
// completed demo.  AmountCents is always positive for valid input.
type Upgrade struct {
    BillingType string
    ClassCount  uint32
    AmountCents uint32
}

// ValidateUpgrade checks the billing input for upgradeToRegular and
// prices the order.  HOURLY multiplies the per-class rate by the class
// count; MONTHLY uses the flat monthly rate and forbids a count.  The
// source demo must be COMPLETED.
func ValidateUpgrade(demo *model.Booking, billingType string, classCount uint32, hourlyRateCents, monthlyRateCents uint32) (Upgrade, error) {
    if demo.Kind != model.BookingDemo || demo.Status != model.BookingCompleted {
        return Upgrade{}, ErrDemoNotCompleted
    }
    switch strings.ToUpper(strings.TrimSpace(billingType)) {
    case model.BillingHourly:
        if classCount == 0 {
            return Upgrade{}, ErrInvalidClassCount
        }
        // price in uint64 so an absurd class count cannot wrap the
        // order amount around zero
        total := uint64(hourlyRateCents) * uint64(classCount)
        if total == 0 || total > math.MaxUint32 {
            return Upgrade{}, ErrInvalidClassCount
        }
        return Upgrade{
            BillingType: model.BillingHourly,
            ClassCount:  classCount,
            AmountCents: uint32(total),
        }, nil
    case model.BillingMonthly:
        if classCount != 0 {
            return Upgrade{}, ErrInvalidClassCount
        }
        return Upgrade{
            BillingType: model.BillingMonthly,
            AmountCents: monthlyRateCents,
        }, nil
    default:
        return Upgrade{}, ErrInvalidBillingType
    }
}
