package model

import "time"

// GroupBatch is a fixed-capacity, fixed-schedule class run by a tutor
// for multiple students.  LiveSeats counts the seats still open; it is
// decremented atomically when a student reserves and incremented back
// when a pending enrollment expires unpaid.  It never goes negative.
// This struct corresponds to a row in the `group_batches` table.
//
// Fields:
//  ID           - primary key identifier.
//  TutorID      - tutor running the batch.
//  Title        - public batch title.
//  Subject      - subject taught.
//  StartsAt     - start instant of the first session (UTC).
//  SessionCount - number of 60-minute sessions in the batch.
//  Capacity     - total seats.
//  LiveSeats    - seats still reservable; 0 <= LiveSeats <= Capacity.
//  PriceCents   - price per seat in cents.
//  CreatedAt    - creation timestamp.
//  UpdatedAt    - last update timestamp.
type GroupBatch struct {
    ID           uint64    // group_batches.id
    TutorID      uint64    // group_batches.tutor_id
    Title        string    // group_batches.title
    Subject      string    // group_batches.subject
    StartsAt     time.Time // group_batches.starts_at
    SessionCount uint32    // group_batches.session_count
    Capacity     uint32    // group_batches.capacity
    LiveSeats    uint32    // group_batches.live_seats
    PriceCents   uint32    // group_batches.price_cents
    CreatedAt    time.Time // group_batches.created_at
    UpdatedAt    time.Time // group_batches.updated_at
}

// BatchEnrollment reserves one seat on a batch for a student.  A fresh
// enrollment is PENDING with a payment deadline; completing payment
// confirms it, and letting the deadline pass releases the seat back to
// the batch.  This struct corresponds to a row in the
// `batch_enrollments` table.
//
// Fields:
//  ID            - primary key identifier.
//  BatchID       - batch the seat belongs to.
//  StudentID     - enrolling student.
//  Status        - PENDING, CONFIRMED or CANCELLED.
//  PaymentStatus - PENDING, INITIATED, COMPLETED or FAILED.
//  OrderRef      - payment gateway order id, once created.
//  ExpiresAt     - deadline for completing payment while PENDING.
//  CreatedAt     - creation timestamp.
//  UpdatedAt     - last update timestamp.
type BatchEnrollment struct {
    ID            uint64    // batch_enrollments.id
    BatchID       uint64    // batch_enrollments.batch_id
    StudentID     uint64    // batch_enrollments.student_id
    Status        string    // batch_enrollments.status
    PaymentStatus string    // batch_enrollments.payment_status
    OrderRef      *string   // batch_enrollments.order_ref (nullable)
    ExpiresAt     time.Time // batch_enrollments.expires_at
    CreatedAt     time.Time // batch_enrollments.created_at
    UpdatedAt     time.Time // batch_enrollments.updated_at
}
