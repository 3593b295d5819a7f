// Package booking holds the reservation rules shared by the student
// and tutor booking handlers: the one-active-demo constraint, the
// accept/reject state machine for tutor-initiated requests, seat
// accounting for group batches and billing validation for
// regular-class upgrades.  The rules are pure so every branch can be
// exercised without a database; handlers own the transactions.
package booking

import "errors"

// ErrActiveDemoExists is returned when a student requests a demo while
// another demo booking of theirs is still PENDING or CONFIRMED with
// any tutor.  Handlers translate this into an HTTP 409 with a message
// distinct from generic booking failures.
var ErrActiveDemoExists = errors.New("student already has an active demo")

// ErrSlotUnavailable is returned when the requested time overlaps an
// active booking for the tutor, i.e. the slot was taken between
// listing and reserving.  Handlers translate this into HTTP 409.
var ErrSlotUnavailable = errors.New("slot is no longer available")

// ErrSeatsExhausted is returned when a seat reservation is attempted
// on a batch with no live seats left.  Handlers translate this into
// HTTP 409.
var ErrSeatsExhausted = errors.New("no seats left on batch")

// ErrInvalidTransition is returned when accept/reject is called on a
// booking that is not PENDING, or payment confirmation targets a
// booking in a terminal state.  Handlers translate this into HTTP 409.
var ErrInvalidTransition = errors.New("invalid booking state transition")

// ErrNotAuthorized is returned when the requesting party tries to
// answer its own demo request, or an actor touches a booking it is not
// part of.  Handlers translate this into HTTP 403.
var ErrNotAuthorized = errors.New("actor may not perform this action")

// ErrInvalidBillingType is returned when an upgrade names a billing
// type other than HOURLY or MONTHLY.  HTTP 400.
var ErrInvalidBillingType = errors.New("billing type must be HOURLY or MONTHLY")

// ErrInvalidClassCount is returned when HOURLY billing is requested
// without a positive class count, or MONTHLY billing carries one.
// HTTP 400.
var ErrInvalidClassCount = errors.New("invalid class count for billing type")

// ErrDemoNotCompleted is returned when an upgrade starts from a demo
// booking that has not reached COMPLETED.  HTTP 409.
var ErrDemoNotCompleted = errors.New("upgrade requires a completed demo")
