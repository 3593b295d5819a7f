package booking

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/tutor-session-booking/internal/model"
)

func demoBooking(status string) model.Booking {
    return model.Booking{
        ID:        11,
        StudentID: 1,
        TutorID:   2,
        Kind:      model.BookingDemo,
        Status:    status,
    }
}

func TestCheckNoActiveDemo(t *testing.T) {
    cases := []struct {
        name     string
        existing []model.Booking
        wantErr  error
    }{
        {"no bookings", nil, nil},
        {"pending demo blocks", []model.Booking{demoBooking(model.BookingPending)}, ErrActiveDemoExists},
        {"confirmed demo blocks", []model.Booking{demoBooking(model.BookingConfirmed)}, ErrActiveDemoExists},
        {"cancelled demo does not block", []model.Booking{demoBooking(model.BookingCancelled)}, nil},
        {"completed demo does not block", []model.Booking{demoBooking(model.BookingCompleted)}, nil},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            assert.Equal(t, tc.wantErr, CheckNoActiveDemo(tc.existing))
        })
    }
}

func TestCheckSlotFree(t *testing.T) {
    base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
    active := []model.Booking{{
        Status:   model.BookingConfirmed,
        StartsAt: base,
        EndsAt:   base.Add(15 * time.Minute),
    }}

    // exact overlap
    assert.Equal(t, ErrSlotUnavailable, CheckSlotFree(base, base.Add(15*time.Minute), active))
    // partial overlap
    assert.Equal(t, ErrSlotUnavailable, CheckSlotFree(base.Add(10*time.Minute), base.Add(25*time.Minute), active))
    // back-to-back is free
    assert.NoError(t, CheckSlotFree(base.Add(15*time.Minute), base.Add(30*time.Minute), active))
    assert.NoError(t, CheckSlotFree(base.Add(-15*time.Minute), base, active))

    // terminal bookings release the slot
    done := []model.Booking{{
        Status:   model.BookingCancelled,
        StartsAt: base,
        EndsAt:   base.Add(15 * time.Minute),
    }}
    assert.NoError(t, CheckSlotFree(base, base.Add(15*time.Minute), done))
}

func TestInitialDemoStatus(t *testing.T) {
    assert.Equal(t, model.BookingConfirmed, InitialDemoStatus(model.RoleStudent))
    assert.Equal(t, model.BookingPending, InitialDemoStatus(model.RoleTutor))
}

func TestRespond(t *testing.T) {
    base := demoBooking(model.BookingPending)
    base.RequestedBy = model.RoleTutor // student (id 1) must answer

    t.Run("student accepts tutor request", func(t *testing.T) {
        b := base
        next, err := Respond(&b, 1, DecisionAccept)
        require.NoError(t, err)
        assert.Equal(t, model.BookingConfirmed, next)
    })

    t.Run("student rejects tutor request", func(t *testing.T) {
        b := base
        next, err := Respond(&b, 1, DecisionReject)
        require.NoError(t, err)
        assert.Equal(t, model.BookingCancelled, next)
    })

    t.Run("requester cannot answer own request", func(t *testing.T) {
        b := base
        _, err := Respond(&b, 2, DecisionAccept)
        assert.Equal(t, ErrNotAuthorized, err)
    })

    t.Run("tutor answers student-initiated request", func(t *testing.T) {
        b := base
        b.RequestedBy = model.RoleStudent
        next, err := Respond(&b, 2, DecisionAccept)
        require.NoError(t, err)
        assert.Equal(t, model.BookingConfirmed, next)
    })

    t.Run("only pending bookings accept a decision", func(t *testing.T) {
        for _, status := range []string{model.BookingConfirmed, model.BookingCancelled, model.BookingCompleted} {
            b := base
            b.Status = status
            _, err := Respond(&b, 1, DecisionAccept)
            assert.Equal(t, ErrInvalidTransition, err, status)
        }
    })

    t.Run("unknown decision", func(t *testing.T) {
        b := base
        _, err := Respond(&b, 1, "maybe")
        assert.Equal(t, ErrInvalidTransition, err)
    })

    t.Run("decision is case-insensitive", func(t *testing.T) {
        b := base
        next, err := Respond(&b, 1, " Accept ")
        require.NoError(t, err)
        assert.Equal(t, model.BookingConfirmed, next)
    })
}

func TestCompleteOnLeave(t *testing.T) {
    b := demoBooking(model.BookingConfirmed)
    next, ok := CompleteOnLeave(&b)
    assert.True(t, ok)
    assert.Equal(t, model.BookingCompleted, next)

    for _, status := range []string{model.BookingPending, model.BookingCancelled, model.BookingCompleted} {
        b := demoBooking(status)
        next, ok := CompleteOnLeave(&b)
        assert.False(t, ok, status)
        assert.Equal(t, status, next)
    }
}

func TestValidateUpgrade(t *testing.T) {
    const hourly, monthly = 50000, 500000

    completed := demoBooking(model.BookingCompleted)

    t.Run("hourly prices per class", func(t *testing.T) {
        up, err := ValidateUpgrade(&completed, "hourly", 8, hourly, monthly)
        require.NoError(t, err)
        assert.Equal(t, model.BillingHourly, up.BillingType)
        assert.Equal(t, uint32(8), up.ClassCount)
        assert.Equal(t, uint32(8*hourly), up.AmountCents)
        assert.Greater(t, up.AmountCents, uint32(0))
    })

    t.Run("monthly is flat", func(t *testing.T) {
        up, err := ValidateUpgrade(&completed, "MONTHLY", 0, hourly, monthly)
        require.NoError(t, err)
        assert.Equal(t, model.BillingMonthly, up.BillingType)
        assert.Equal(t, uint32(0), up.ClassCount)
        assert.Equal(t, uint32(monthly), up.AmountCents)
    })

    t.Run("hourly requires a class count", func(t *testing.T) {
        _, err := ValidateUpgrade(&completed, "HOURLY", 0, hourly, monthly)
        assert.Equal(t, ErrInvalidClassCount, err)
    })

    t.Run("monthly forbids a class count", func(t *testing.T) {
        _, err := ValidateUpgrade(&completed, "MONTHLY", 4, hourly, monthly)
        assert.Equal(t, ErrInvalidClassCount, err)
    })

    t.Run("hourly amount cannot wrap", func(t *testing.T) {
        // 50000 * 268435456 is an exact multiple of 2^32; a uint32
        // multiply would price this order at zero
        _, err := ValidateUpgrade(&completed, "HOURLY", 268435456, hourly, monthly)
        assert.Equal(t, ErrInvalidClassCount, err)

        _, err = ValidateUpgrade(&completed, "HOURLY", 85899346, hourly, monthly)
        assert.Equal(t, ErrInvalidClassCount, err)
    })

    t.Run("hourly at the uint32 ceiling still prices", func(t *testing.T) {
        up, err := ValidateUpgrade(&completed, "HOURLY", 85899, hourly, monthly)
        require.NoError(t, err)
        assert.Equal(t, uint32(85899*hourly), up.AmountCents)
        assert.Greater(t, up.AmountCents, uint32(0))
    })

    t.Run("unknown billing type", func(t *testing.T) {
        _, err := ValidateUpgrade(&completed, "WEEKLY", 1, hourly, monthly)
        assert.Equal(t, ErrInvalidBillingType, err)
    })

    t.Run("demo must be completed", func(t *testing.T) {
        for _, status := range []string{model.BookingPending, model.BookingConfirmed, model.BookingCancelled} {
            b := demoBooking(status)
            _, err := ValidateUpgrade(&b, "HOURLY", 1, hourly, monthly)
            assert.Equal(t, ErrDemoNotCompleted, err, status)
        }
    })

    t.Run("regular bookings cannot be upgraded again", func(t *testing.T) {
        b := demoBooking(model.BookingCompleted)
        b.Kind = model.BookingRegular
        _, err := ValidateUpgrade(&b, "HOURLY", 1, hourly, monthly)
        assert.Equal(t, ErrDemoNotCompleted, err)
    })
}
