package model

import "time"

// Booking kinds stored in bookings.kind.
const (
    BookingDemo    = "DEMO"
    BookingRegular = "REGULAR"
)

// Booking statuses.  PENDING and CONFIRMED are the active states; a
// student may hold at most one active demo booking across all tutors.
// CANCELLED and COMPLETED are terminal.
const (
    BookingPending   = "PENDING"
    BookingConfirmed = "CONFIRMED"
    BookingCancelled = "CANCELLED"
    BookingCompleted = "COMPLETED"
)

// Payment statuses tracked independently of the booking status.  Demo
// bookings are free and stay at PENDING with a zero amount.
const (
    PaymentPending   = "PENDING"
    PaymentInitiated = "INITIATED"
    PaymentCompleted = "COMPLETED"
    PaymentFailed    = "FAILED"
)

// Billing types for regular-class upgrades.  HOURLY requires a positive
// class count; MONTHLY has none.
const (
    BillingHourly  = "HOURLY"
    BillingMonthly = "MONTHLY"
)

// Booking ties a student to a tutor for a concrete time slot, pending
// or holding confirmation.  Demo bookings may be requested by either
// party: student-initiated demos are confirmed immediately, while
// tutor-initiated requests stay PENDING until the student responds.
// This struct corresponds to a row in the `bookings` table.
//
// Fields:
//  ID            - primary key identifier.
//  StudentID     - booking student.
//  TutorID       - booked tutor.
//  Kind          - DEMO or REGULAR.
//  Subject       - subject agreed for the class.
//  StartsAt      - scheduled start instant (UTC).
//  EndsAt        - scheduled end instant (UTC).
//  RequestedBy   - STUDENT or TUTOR; controls who may accept/reject.
//  Status        - PENDING, CONFIRMED, CANCELLED or COMPLETED.
//  PaymentStatus - PENDING, INITIATED, COMPLETED or FAILED.
//  AmountCents   - total price in cents; always 0 for demos.
//  BillingType   - HOURLY or MONTHLY for regular bookings (nil for demos).
//  ClassCount    - number of classes for HOURLY billing (nil otherwise).
//  PaymentRef    - external payment order reference, if any.
//  CreatedAt     - creation timestamp.
//  UpdatedAt     - last update timestamp.
type Booking struct {
    ID            uint64    // bookings.id
    StudentID     uint64    // bookings.student_id
    TutorID       uint64    // bookings.tutor_id
    Kind          string    // bookings.kind
    Subject       string    // bookings.subject
    StartsAt      time.Time // bookings.starts_at
    EndsAt        time.Time // bookings.ends_at
    RequestedBy   string    // bookings.requested_by
    Status        string    // bookings.status
    PaymentStatus string    // bookings.payment_status
    AmountCents   uint32    // bookings.amount_cents
    BillingType   *string   // bookings.billing_type (nullable)
    ClassCount    *uint32   // bookings.class_count (nullable)
    PaymentRef    *string   // bookings.payment_ref (nullable)
    CreatedAt     time.Time // bookings.created_at
    UpdatedAt     time.Time // bookings.updated_at
}

// Active reports whether the booking still occupies its slot.  Only
// PENDING and CONFIRMED bookings block other students from taking the
// same time.
func (b *Booking) Active() bool {
    return b.Status == BookingPending || b.Status == BookingConfirmed
}
