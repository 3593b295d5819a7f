package session

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func TestCheckJoinBoundaries(t *testing.T) {
    // 60-minute session with 5-minute margins on both sides
    start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
    end := start.Add(time.Hour)
    w := Window{JoinBefore: 5 * time.Minute, ExpireAfter: 5 * time.Minute}

    cases := []struct {
        name string
        now  time.Time
        ok   bool
    }{
        {"six minutes early is too early", start.Add(-6 * time.Minute), false},
        {"four minutes early is fine", start.Add(-4 * time.Minute), true},
        {"exactly at open", start.Add(-5 * time.Minute), true},
        {"at the scheduled start", start, true},
        {"mid session", start.Add(30 * time.Minute), true},
        {"four minutes past the end", end.Add(4 * time.Minute), true},
        {"exactly at close", end.Add(5 * time.Minute), true},
        {"six minutes past the end is expired", end.Add(6 * time.Minute), false},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            err := w.CheckJoin(start, end, tc.now)
            if tc.ok {
                assert.NoError(t, err)
            } else {
                assert.Equal(t, ErrJoinWindowClosed, err)
            }
        })
    }
}

func TestCheckJoinDemoHasNoEarlyEntry(t *testing.T) {
    start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
    end := start.Add(15 * time.Minute)
    w := Window{JoinBefore: 0, ExpireAfter: 5 * time.Minute}

    assert.Equal(t, ErrJoinWindowClosed, w.CheckJoin(start, end, start.Add(-time.Minute)))
    assert.NoError(t, w.CheckJoin(start, end, start))
    assert.NoError(t, w.CheckJoin(start, end, end.Add(5*time.Minute)))
    assert.Equal(t, ErrJoinWindowClosed, w.CheckJoin(start, end, end.Add(6*time.Minute)))
}

func TestState(t *testing.T) {
    start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
    end := start.Add(time.Hour)
    w := Window{JoinBefore: 5 * time.Minute, ExpireAfter: 5 * time.Minute}

    assert.Equal(t, StateScheduled, w.State(start, end, start.Add(-time.Hour)))
    assert.Equal(t, StateJoinable, w.State(start, end, start.Add(-3*time.Minute)))
    assert.Equal(t, StateInProgress, w.State(start, end, start.Add(10*time.Minute)))
    assert.Equal(t, StateInProgress, w.State(start, end, end.Add(3*time.Minute)))
    assert.Equal(t, StateExpired, w.State(start, end, end.Add(10*time.Minute)))
}
