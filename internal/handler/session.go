package handler

import (
    "context"
    "database/sql"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/tutor-session-booking/internal/booking"
    "github.com/iliyamo/tutor-session-booking/internal/config"
    "github.com/iliyamo/tutor-session-booking/internal/model"
    "github.com/iliyamo/tutor-session-booking/internal/queue"
    "github.com/iliyamo/tutor-session-booking/internal/repository"
    "github.com/iliyamo/tutor-session-booking/internal/session"
)

// SessionHandler gates joining and leaving scheduled sessions.  The
// join window is pure time arithmetic in the session package; this
// handler loads the rows, authorizes the actor against the parent
// booking or batch, and records the idempotent join/leave events.
type SessionHandler struct {
    Cfg      config.Config
    Sessions *repository.SessionRepo
    Bookings *repository.BookingRepo
    Batches  *repository.BatchRepo
    Log      *zap.Logger
}

func NewSessionHandler(cfg config.Config, s *repository.SessionRepo, b *repository.BookingRepo, gb *repository.BatchRepo, log *zap.Logger) *SessionHandler {
    return &SessionHandler{Cfg: cfg, Sessions: s, Bookings: b, Batches: gb, Log: log}
}

// window picks the margins for a session.  Demo sessions open exactly
// at the scheduled start; everything else opens JoinBefore early.
func (h *SessionHandler) window(isDemo bool) session.Window {
    w := session.Window{JoinBefore: h.Cfg.JoinBefore, ExpireAfter: h.Cfg.ExpireAfter}
    if isDemo {
        w.JoinBefore = 0
    }
    return w
}

// loadParent authorizes the actor against the session's parent and
// reports whether the parent is a demo booking.  The returned booking
// is nil for batch sessions.
func (h *SessionHandler) loadParent(ctx context.Context, s *model.Session, uid uint64) (*model.Booking, bool, error) {
    switch s.Source {
    case model.SessionFromBooking:
        b, err := h.Bookings.GetByID(ctx, s.SourceID)
        if err != nil {
            return nil, false, err
        }
        if uid != b.StudentID && uid != b.TutorID {
            return nil, false, booking.ErrNotAuthorized
        }
        if b.Status == model.BookingCancelled {
            return nil, false, booking.ErrInvalidTransition
        }
        return b, b.Kind == model.BookingDemo, nil
    case model.SessionFromBatch:
        gb, err := h.Batches.GetByID(ctx, s.SourceID)
        if err != nil {
            return nil, false, err
        }
        if uid == gb.TutorID {
            return nil, false, nil
        }
        if _, err := h.Batches.ConfirmedEnrollmentForStudent(ctx, s.SourceID, uid); err != nil {
            if err == sql.ErrNoRows {
                return nil, false, booking.ErrNotAuthorized
            }
            return nil, false, err
        }
        return nil, false, nil
    default:
        return nil, false, sql.ErrNoRows
    }
}

// Join admits the actor into a session if the join window is open and
// returns the meeting URL.  The JOINED event is recorded at most once
// per actor; recording failures never block the join.
func (h *SessionHandler) Join(c echo.Context) error {
    uid, ok := getUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    s, err := h.Sessions.GetByID(ctx, id)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    _, isDemo, err := h.loadParent(ctx, s, uid)
    if err != nil {
        return h.mapSessionErr(c, err)
    }

    w := h.window(isDemo)
    now := time.Now().UTC()
    if err := w.CheckJoin(s.StartsAt, s.EndsAt, now); err != nil {
        return c.JSON(http.StatusConflict, echo.Map{
            "error": "join window is closed",
            "state": w.State(s.StartsAt, s.EndsAt, now),
        })
    }

    if _, err := h.Sessions.RecordEvent(ctx, s.ID, uid, model.EventJoined); err != nil {
        h.Log.Warn("record join event", zap.Uint64("session_id", s.ID), zap.Uint64("user_id", uid), zap.Error(err))
    }

    return c.JSON(http.StatusOK, echo.Map{
        "success": true,
        "url":     s.MeetingURL,
        "state":   w.State(s.StartsAt, s.EndsAt, now),
    })
}

// Leave records the actor's LEFT event.  The first LEFT on a demo
// session completes the parent booking; repeated leaves are no-ops.
func (h *SessionHandler) Leave(c echo.Context) error {
    uid, ok := getUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    s, err := h.Sessions.GetByID(ctx, id)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    parent, isDemo, err := h.loadParent(ctx, s, uid)
    if err != nil && err != booking.ErrInvalidTransition {
        return h.mapSessionErr(c, err)
    }

    if _, err := h.Sessions.RecordEvent(ctx, s.ID, uid, model.EventLeft); err != nil {
        h.Log.Warn("record leave event", zap.Uint64("session_id", s.ID), zap.Uint64("user_id", uid), zap.Error(err))
    }

    // the guarded CONFIRMED->COMPLETED update is the completion latch:
    // concurrent leaves race on the row, exactly one wins and notifies
    completed := false
    if isDemo && parent != nil {
        if _, ok := booking.CompleteOnLeave(parent); ok {
            won, err := h.Bookings.CompleteConfirmed(ctx, parent.ID)
            if err != nil {
                h.Log.Error("complete booking", zap.Uint64("booking_id", parent.ID), zap.Error(err))
            } else if won {
                completed = true
                counterpart := parent.TutorID
                if uid == parent.TutorID {
                    counterpart = parent.StudentID
                }
                notify(h.Log, queue.NotificationEvent{
                    Type:        queue.TypeDemoCompleted,
                    RecipientID: counterpart,
                    ActorID:     uid,
                    BookingID:   parent.ID,
                    SessionID:   s.ID,
                    Subject:     parent.Subject,
                })
            }
        }
    }

    return c.JSON(http.StatusOK, echo.Map{"success": true, "completed": completed})
}

func (h *SessionHandler) mapSessionErr(c echo.Context, err error) error {
    switch err {
    case booking.ErrNotAuthorized:
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant of this session"})
    case booking.ErrInvalidTransition:
        return c.JSON(http.StatusConflict, echo.Map{"error": "booking is cancelled"})
    case sql.ErrNoRows:
        return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
    default:
        h.Log.Error("session lookup failed", zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
}
