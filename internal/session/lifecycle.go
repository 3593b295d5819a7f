// Package session computes whether joining a scheduled session is
// currently permitted.  The gate is a pure function of the session
// bounds, the configured margins and the clock, so the handler only
// has to load the row and map the result to HTTP.
package session

import (
    "errors"
    "time"
)

// States a session passes through relative to the clock.  Expired is
// absorbing: once the window closes it never reopens.
const (
    StateScheduled  = "scheduled"
    StateJoinable   = "joinable"
    StateInProgress = "in_progress"
    StateCompleted  = "completed"
    StateExpired    = "expired"
)

// ErrJoinWindowClosed is returned by CheckJoin outside the join
// window, both before it opens and after it closes.
var ErrJoinWindowClosed = errors.New("join window is closed")

// Window carries the margins around the scheduled bounds.  JoinBefore
// widens the window before the start, ExpireAfter keeps it open past
// the end so late leavers are not locked out.  Demo sessions use a
// zero JoinBefore; group and regular sessions default to 5 minutes on
// both sides.
type Window struct {
    JoinBefore  time.Duration
    ExpireAfter time.Duration
}

// State classifies now against [start - JoinBefore, end + ExpireAfter].
// Inside the window the state is joinable before the scheduled start
// and in_progress after it.
func (w Window) State(start, end, now time.Time) string {
    openAt := start.Add(-w.JoinBefore)
    closeAt := end.Add(w.ExpireAfter)
    switch {
    case now.Before(openAt):
        return StateScheduled
    case now.After(closeAt):
        return StateExpired
    case now.Before(start):
        return StateJoinable
    default:
        return StateInProgress
    }
}

// CheckJoin returns nil when joining is permitted at now, or
// ErrJoinWindowClosed when the session is still scheduled or already
// expired.
func (w Window) CheckJoin(start, end, now time.Time) error {
    switch w.State(start, end, now) {
    case StateJoinable, StateInProgress:
        return nil
    default:
        return ErrJoinWindowClosed
    }
}
