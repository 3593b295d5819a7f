package slots

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/tutor-session-booking/internal/model"
)

func window(kind string, start, end time.Time) model.AvailabilityWindow {
    return model.AvailabilityWindow{ID: 1, TutorID: 7, Kind: kind, StartsAt: start, EndsAt: end}
}

func TestExpandSlicesDemoWindows(t *testing.T) {
    base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
    w := window(model.WindowDemo, base, base.Add(time.Hour))

    got := Expand([]model.AvailabilityWindow{w}, nil, model.WindowDemo, base.Add(-time.Hour))

    require.Len(t, got, 4)
    for i, s := range got {
        assert.Equal(t, base.Add(time.Duration(i)*DemoSlotLength), s.StartsAt)
        assert.Equal(t, DemoSlotLength, s.EndsAt.Sub(s.StartsAt))
        assert.Equal(t, uint64(7), s.TutorID)
        assert.False(t, s.Booked)
    }
    // a trailing remainder shorter than a slot is never emitted
    odd := window(model.WindowDemo, base, base.Add(50*time.Minute))
    got = Expand([]model.AvailabilityWindow{odd}, nil, model.WindowDemo, base.Add(-time.Hour))
    require.Len(t, got, 3)
    assert.True(t, got[2].EndsAt.Before(odd.EndsAt) || got[2].EndsAt.Equal(odd.EndsAt))
}

func TestExpandRegularUsesWholeWindow(t *testing.T) {
    base := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
    w := window(model.WindowRegular, base, base.Add(2*time.Hour))

    got := Expand([]model.AvailabilityWindow{w}, nil, model.WindowRegular, base.Add(-time.Hour))

    require.Len(t, got, 1)
    assert.Equal(t, base, got[0].StartsAt)
    assert.Equal(t, base.Add(2*time.Hour), got[0].EndsAt)
}

func TestExpandDropsPastStarts(t *testing.T) {
    base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
    w := window(model.WindowDemo, base, base.Add(time.Hour))

    // now falls inside the second slice; the first two starts are gone
    got := Expand([]model.AvailabilityWindow{w}, nil, model.WindowDemo, base.Add(16*time.Minute))

    require.Len(t, got, 2)
    assert.Equal(t, base.Add(30*time.Minute), got[0].StartsAt)
    assert.Equal(t, base.Add(45*time.Minute), got[1].StartsAt)
}

func TestExpandIgnoresOtherKinds(t *testing.T) {
    base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
    ws := []model.AvailabilityWindow{
        window(model.WindowDemo, base, base.Add(30*time.Minute)),
        window(model.WindowRegular, base.Add(time.Hour), base.Add(2*time.Hour)),
    }
    got := Expand(ws, nil, model.WindowRegular, base.Add(-time.Hour))
    require.Len(t, got, 1)
    assert.Equal(t, model.WindowRegular, got[0].Kind)
}

func TestExpandMarksBookedSlots(t *testing.T) {
    base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
    w := window(model.WindowDemo, base, base.Add(time.Hour))
    booked := []Interval{{Start: base.Add(15 * time.Minute), End: base.Add(30 * time.Minute)}}

    all := Expand([]model.AvailabilityWindow{w}, booked, model.WindowDemo, base.Add(-time.Hour))
    require.Len(t, all, 4)
    assert.False(t, all[0].Booked)
    assert.True(t, all[1].Booked)
    assert.False(t, all[2].Booked)

    free := Free(all)
    require.Len(t, free, 3)
    for _, s := range free {
        assert.False(t, s.Booked)
    }

    // repeated expansion with the same bookings yields the same free set
    again := Free(Expand([]model.AvailabilityWindow{w}, booked, model.WindowDemo, base.Add(-time.Hour)))
    assert.Equal(t, free, again)
}

func TestExpandBoundaryAdjacencyIsNotOverlap(t *testing.T) {
    base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
    w := window(model.WindowDemo, base, base.Add(30*time.Minute))
    // a booking ending exactly at a slot start does not occupy it
    booked := []Interval{{Start: base.Add(-15 * time.Minute), End: base}}

    all := Expand([]model.AvailabilityWindow{w}, booked, model.WindowDemo, base.Add(-time.Hour))
    require.Len(t, all, 2)
    assert.False(t, all[0].Booked)
    assert.False(t, all[1].Booked)
}

func TestExpandSortsAcrossWindows(t *testing.T) {
    base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
    ws := []model.AvailabilityWindow{
        window(model.WindowDemo, base.Add(2*time.Hour), base.Add(2*time.Hour+30*time.Minute)),
        window(model.WindowDemo, base, base.Add(30*time.Minute)),
    }
    got := Expand(ws, nil, model.WindowDemo, base.Add(-time.Hour))
    require.Len(t, got, 4)
    for i := 1; i < len(got); i++ {
        assert.False(t, got[i].StartsAt.Before(got[i-1].StartsAt))
    }
}

func TestGroupByDay(t *testing.T) {
    d1 := time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
    d2 := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
    free := []model.Slot{
        {StartsAt: d1, EndsAt: d1.Add(15 * time.Minute)},
        {StartsAt: d1.Add(30 * time.Minute), EndsAt: d1.Add(45 * time.Minute)},
        {StartsAt: d2, EndsAt: d2.Add(15 * time.Minute)},
    }

    days := GroupByDay(free)

    require.Len(t, days, 2)
    assert.Equal(t, "2026-03-10", days[0].Date)
    assert.Len(t, days[0].Slots, 2)
    assert.Equal(t, "2026-03-11", days[1].Date)
    assert.Len(t, days[1].Slots, 1)
}

func TestGroupByDayEmpty(t *testing.T) {
    days := GroupByDay(nil)
    assert.NotNil(t, days)
    assert.Empty(t, days)
}

func TestOnGrid(t *testing.T) {
    winStart := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

    assert.True(t, OnGrid(winStart, winStart))
    assert.True(t, OnGrid(winStart, winStart.Add(DemoSlotLength)))
    assert.True(t, OnGrid(winStart, winStart.Add(3*DemoSlotLength)))

    // off-grid starts inside the window would fragment the advertised
    // slices around them
    assert.False(t, OnGrid(winStart, winStart.Add(7*time.Minute)))
    assert.False(t, OnGrid(winStart, winStart.Add(20*time.Minute)))
    assert.False(t, OnGrid(winStart, winStart.Add(-DemoSlotLength)))
}
