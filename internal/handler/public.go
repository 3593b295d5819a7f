package handler

import (
    "context"
    "database/sql"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/tutor-session-booking/internal/model"
    "github.com/iliyamo/tutor-session-booking/internal/repository"
    "github.com/iliyamo/tutor-session-booking/internal/slots"
)

// PublicHandler serves the unauthenticated browse surface: a tutor's
// free slots and the open group batches.  These endpoints sit behind
// the Redis response cache, so they must stay side-effect free.
type PublicHandler struct {
    Windows  *repository.AvailabilityRepo
    Bookings *repository.BookingRepo
    Batches  *repository.BatchRepo
    Users    *repository.UserRepo
    Log      *zap.Logger
}

func NewPublicHandler(w *repository.AvailabilityRepo, b *repository.BookingRepo, gb *repository.BatchRepo, u *repository.UserRepo, log *zap.Logger) *PublicHandler {
    return &PublicHandler{Windows: w, Bookings: b, Batches: gb, Users: u, Log: log}
}

// TutorSlots lists a tutor's free slots of the requested type, grouped
// by day.  404 when the tutor has published no availability of that
// kind; 200 with empty days when everything bookable is already taken.
func (h *PublicHandler) TutorSlots(c echo.Context) error {
    tutorID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || tutorID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tutor id"})
    }
    kind := strings.ToUpper(strings.TrimSpace(c.QueryParam("type")))
    if kind == "" {
        kind = model.WindowDemo
    }
    if kind != model.WindowDemo && kind != model.WindowRegular {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be demo or regular"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Users.GetByID(ctx, tutorID); err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "tutor not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    windows, err := h.Windows.ListByTutorAndKind(ctx, tutorID, kind)
    if err != nil {
        h.Log.Error("list windows", zap.Uint64("tutor_id", tutorID), zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if len(windows) == 0 {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "tutor has no " + strings.ToLower(kind) + " availability"})
    }

    active, err := h.Bookings.ActiveByTutor(ctx, tutorID)
    if err != nil {
        h.Log.Error("list active bookings", zap.Uint64("tutor_id", tutorID), zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    booked := make([]slots.Interval, 0, len(active))
    for _, b := range active {
        booked = append(booked, slots.Interval{Start: b.StartsAt, End: b.EndsAt})
    }

    all := slots.Expand(windows, booked, kind, time.Now())
    days := slots.GroupByDay(slots.Free(all))
    return c.JSON(http.StatusOK, echo.Map{
        "tutor_id": tutorID,
        "type":     kind,
        "days":     days,
    })
}

type batchResp struct {
    ID           uint64    `json:"id"`
    TutorID      uint64    `json:"tutor_id"`
    Title        string    `json:"title"`
    Subject      string    `json:"subject"`
    StartsAt     time.Time `json:"starts_at"`
    SessionCount uint32    `json:"session_count"`
    Capacity     uint32    `json:"capacity"`
    LiveSeats    uint32    `json:"live_seats"`
    PriceCents   uint32    `json:"price_cents"`
}

func toBatchResp(b *model.GroupBatch) batchResp {
    return batchResp{
        ID:           b.ID,
        TutorID:      b.TutorID,
        Title:        b.Title,
        Subject:      b.Subject,
        StartsAt:     b.StartsAt,
        SessionCount: b.SessionCount,
        Capacity:     b.Capacity,
        LiveSeats:    b.LiveSeats,
        PriceCents:   b.PriceCents,
    }
}

// ListBatches returns upcoming group batches.
func (h *PublicHandler) ListBatches(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    batches, err := h.Batches.List(ctx)
    if err != nil {
        h.Log.Error("list batches", zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]batchResp, 0, len(batches))
    for i := range batches {
        out = append(out, toBatchResp(&batches[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"batches": out})
}

// GetBatch returns a single batch by id.
func (h *PublicHandler) GetBatch(c echo.Context) error {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid batch id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    b, err := h.Batches.GetByID(ctx, id)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "batch not found"})
        }
        h.Log.Error("get batch", zap.Uint64("batch_id", id), zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    return c.JSON(http.StatusOK, toBatchResp(b))
}
