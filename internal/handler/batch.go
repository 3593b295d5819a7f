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

    "github.com/iliyamo/tutor-session-booking/internal/booking"
    "github.com/iliyamo/tutor-session-booking/internal/config"
    "github.com/iliyamo/tutor-session-booking/internal/model"
    "github.com/iliyamo/tutor-session-booking/internal/queue"
    "github.com/iliyamo/tutor-session-booking/internal/repository"
)

// BatchHandler covers the group-class surface: tutors create batches,
// students reserve seats.  A seat reservation is a PENDING enrollment
// with a payment deadline; the seat flows back when the deadline passes
// unpaid.
type BatchHandler struct {
    Cfg     config.Config
    Batches *repository.BatchRepo
    Log     *zap.Logger
}

func NewBatchHandler(cfg config.Config, b *repository.BatchRepo, log *zap.Logger) *BatchHandler {
    return &BatchHandler{Cfg: cfg, Batches: b, Log: log}
}

type createBatchReq struct {
    Title        string    `json:"title" validate:"required"`
    Subject      string    `json:"subject" validate:"required"`
    StartsAt     time.Time `json:"starts_at" validate:"required"`
    SessionCount uint32    `json:"session_count" validate:"required,min=1"`
    Capacity     uint32    `json:"capacity" validate:"required,min=1"`
    PriceCents   uint32    `json:"price_cents" validate:"required,min=1"`
}

// Create publishes a new group batch for the calling tutor.  All seats
// start live.
func (h *BatchHandler) Create(c echo.Context) error {
    tutorID, ok := getUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createBatchReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := validate.Struct(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "title, subject, starts_at, session_count, capacity and price_cents are required"})
    }
    start := req.StartsAt.UTC()
    if start.Before(time.Now().UTC()) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "batch must start in the future"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    b := &model.GroupBatch{
        TutorID:      tutorID,
        Title:        strings.TrimSpace(req.Title),
        Subject:      strings.TrimSpace(req.Subject),
        StartsAt:     start,
        SessionCount: req.SessionCount,
        Capacity:     req.Capacity,
        PriceCents:   req.PriceCents,
    }
    if err := h.Batches.Create(ctx, b); err != nil {
        h.Log.Error("create batch", zap.Uint64("tutor_id", tutorID), zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create batch failed"})
    }
    return c.JSON(http.StatusCreated, toBatchResp(b))
}

type enrollmentResp struct {
    ID            uint64    `json:"id"`
    BatchID       uint64    `json:"batch_id"`
    Status        string    `json:"status"`
    PaymentStatus string    `json:"payment_status"`
    ExpiresAt     time.Time `json:"expires_at"`
}

func toEnrollmentResp(e *model.BatchEnrollment) enrollmentResp {
    return enrollmentResp{
        ID:            e.ID,
        BatchID:       e.BatchID,
        Status:        e.Status,
        PaymentStatus: e.PaymentStatus,
        ExpiresAt:     e.ExpiresAt,
    }
}

// Reserve takes one seat on a batch for the calling student.  Expired
// pending enrollments are released first, then the guarded decrement
// either wins a seat or reports exhaustion.  Calling again while a
// pending enrollment is live returns the existing one.
func (h *BatchHandler) Reserve(c echo.Context) error {
    studentID, ok := getUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    batchID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || batchID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid batch id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    b, err := h.Batches.GetByID(ctx, batchID)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "batch not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if b.StartsAt.Before(time.Now().UTC()) {
        return c.JSON(http.StatusConflict, echo.Map{"error": "batch has already started"})
    }

    if existing, err := h.Batches.PendingEnrollmentForStudent(ctx, batchID, studentID); err == nil {
        return c.JSON(http.StatusOK, toEnrollmentResp(existing))
    } else if err != sql.ErrNoRows {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if confirmed, err := h.Batches.ConfirmedEnrollmentForStudent(ctx, batchID, studentID); err == nil && confirmed != nil {
        return c.JSON(http.StatusConflict, echo.Map{"error": "already enrolled in this batch"})
    } else if err != nil && err != sql.ErrNoRows {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    e := &model.BatchEnrollment{
        BatchID:       batchID,
        StudentID:     studentID,
        Status:        model.BookingPending,
        PaymentStatus: model.PaymentPending,
        ExpiresAt:     time.Now().UTC().Add(h.Cfg.EnrollmentHoldTTL),
    }
    if err := h.reserveSeatTx(ctx, e); err != nil {
        if err == repository.ErrNoSeats {
            return c.JSON(http.StatusConflict, echo.Map{"error": booking.ErrSeatsExhausted.Error()})
        }
        h.Log.Error("reserve seat", zap.Uint64("batch_id", batchID), zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation failed"})
    }

    notify(h.Log, queue.NotificationEvent{
        Type:        queue.TypeSeatReserved,
        RecipientID: b.TutorID,
        ActorID:     studentID,
        BatchID:     batchID,
        Subject:     b.Subject,
        StartsAt:    b.StartsAt.Format(time.RFC3339),
    })
    return c.JSON(http.StatusCreated, toEnrollmentResp(e))
}

// reserveSeatTx releases expired holds, then runs the guarded seat
// decrement and inserts the enrollment.  live_seats can never go below
// zero: the decrement only fires on rows with live seats left.
func (h *BatchHandler) reserveSeatTx(ctx context.Context, e *model.BatchEnrollment) error {
    tx, err := h.Batches.DB().BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer tx.Rollback()

    if _, err := h.Batches.ReleaseExpiredTx(ctx, tx, e.BatchID); err != nil {
        return err
    }
    if err := h.Batches.ReserveSeatTx(ctx, tx, e.BatchID); err != nil {
        return err
    }
    if err := h.Batches.CreateEnrollmentTx(ctx, tx, e); err != nil {
        return err
    }
    return tx.Commit()
}
