// Package queue defines message payloads exchanged over the message broker.
package queue

// Notification event types.  Every mutating booking operation emits one
// of these to the counter-party; delivery is best-effort and never
// blocks the request that produced it.
const (
    TypeDemoRequested  = "demo.requested"
    TypeDemoConfirmed  = "demo.confirmed"
    TypeDemoRejected   = "demo.rejected"
    TypeDemoCompleted  = "demo.completed"
    TypeSeatReserved   = "batch.seat_reserved"
    TypeBatchEnrolled  = "batch.enrolled"
    TypeUpgradeOrdered = "regular.upgrade_ordered"
    TypeRegularBooked  = "regular.confirmed"
)

// NotificationEvent is published whenever a booking, enrollment or
// session changes in a way the counter-party should hear about.  It
// carries enough information for downstream consumers to render a
// notification and route the user to the relevant page without
// querying the primary database.
type NotificationEvent struct {
    Type        string            `json:"type"`
    RecipientID uint64            `json:"recipient_id"`
    ActorID     uint64            `json:"actor_id"`
    BookingID   uint64            `json:"booking_id,omitempty"`
    BatchID     uint64            `json:"batch_id,omitempty"`
    SessionID   uint64            `json:"session_id,omitempty"`
    Subject     string            `json:"subject,omitempty"`
    StartsAt    string            `json:"starts_at,omitempty"`
    Meta        map[string]string `json:"meta,omitempty"`
    OccurredAt  string            `json:"occurred_at"`
}
