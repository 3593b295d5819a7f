package handler

import (
    "context"
    "database/sql"
    "net/http"
    "strconv"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/tutor-session-booking/internal/booking"
    "github.com/iliyamo/tutor-session-booking/internal/config"
    "github.com/iliyamo/tutor-session-booking/internal/model"
    "github.com/iliyamo/tutor-session-booking/internal/payment"
    "github.com/iliyamo/tutor-session-booking/internal/queue"
    "github.com/iliyamo/tutor-session-booking/internal/repository"
)

// batchSessionLength is the scheduled length of a single group session.
const batchSessionLength = time.Hour

// PaymentHandler drives the paid flows: checkout orders for batch
// seats and regular-class upgrades, and the signature verification
// callback that confirms them.  The gateway secret never leaves the
// payment package.
type PaymentHandler struct {
    Cfg      config.Config
    Pay      *payment.Client
    Batches  *repository.BatchRepo
    Bookings *repository.BookingRepo
    Windows  *repository.AvailabilityRepo
    Sessions *repository.SessionRepo
    Log      *zap.Logger
}

func NewPaymentHandler(cfg config.Config, p *payment.Client, b *repository.BatchRepo, bk *repository.BookingRepo, w *repository.AvailabilityRepo, s *repository.SessionRepo, log *zap.Logger) *PaymentHandler {
    return &PaymentHandler{Cfg: cfg, Pay: p, Batches: b, Bookings: bk, Windows: w, Sessions: s, Log: log}
}

// EnrollmentOrder creates a checkout order for the student's pending
// seat on a batch.  The order must be paid before the hold deadline or
// the seat flows back.
func (h *PaymentHandler) EnrollmentOrder(c echo.Context) error {
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
    e, err := h.Batches.PendingEnrollmentForStudent(ctx, batchID, studentID)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusConflict, echo.Map{"error": "no pending seat on this batch; reserve first"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    // reuse the existing order if one was already created for this hold
    if e.OrderRef != nil && e.PaymentStatus == model.PaymentInitiated {
        return c.JSON(http.StatusOK, payment.Order{
            OrderID:     *e.OrderRef,
            AmountCents: b.PriceCents,
            Currency:    "INR",
            KeyID:       h.Cfg.RazorpayKeyID,
        })
    }

    receipt := "enr-" + strconv.FormatUint(e.ID, 10) + "-" + uuid.NewString()[:8]
    order, err := h.Pay.CreateOrder(b.PriceCents, "INR", receipt, map[string]interface{}{
        "enrollment_id": e.ID,
        "batch_id":      batchID,
    })
    if err != nil {
        h.Log.Error("create gateway order", zap.Uint64("enrollment_id", e.ID), zap.Error(err))
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway unavailable"})
    }
    if err := h.Batches.SetEnrollmentOrder(ctx, e.ID, order.OrderID); err != nil {
        h.Log.Error("store order ref", zap.Uint64("enrollment_id", e.ID), zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "order creation failed"})
    }
    return c.JSON(http.StatusCreated, order)
}

type upgradeReq struct {
    BillingType string    `json:"billing_type" validate:"required"`
    ClassCount  uint32    `json:"class_count" validate:"max=1000"`
    StartsAt    time.Time `json:"starts_at" validate:"required"`
    EndsAt      time.Time `json:"ends_at" validate:"required"`
}

type upgradeResp struct {
    Booking bookingResp   `json:"booking"`
    Order   payment.Order `json:"order"`
}

// Upgrade converts a completed demo into a paid regular-class booking.
// The regular booking is created PENDING with the gateway order
// attached; verification confirms it.
func (h *PaymentHandler) Upgrade(c echo.Context) error {
    studentID, ok := getUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    demoID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || demoID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    var req upgradeReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := validate.Struct(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "billing_type, starts_at and ends_at are required; class_count is capped at 1000"})
    }
    start, end := req.StartsAt.UTC(), req.EndsAt.UTC()
    if !end.After(start) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    demo, err := h.Bookings.GetByID(ctx, demoID)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if demo.StudentID != studentID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
    }

    up, err := booking.ValidateUpgrade(demo, req.BillingType, req.ClassCount,
        uint32(h.Cfg.HourlyRateCents), uint32(h.Cfg.MonthlyRateCents))
    if err != nil {
        return h.mapUpgradeErr(c, err)
    }

    covered, err := h.Windows.HasWindowCovering(ctx, demo.TutorID, model.WindowRegular, start, end)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upgrade failed"})
    }
    if !covered {
        return c.JSON(http.StatusConflict, echo.Map{"error": booking.ErrSlotUnavailable.Error()})
    }

    receipt := "upg-" + strconv.FormatUint(demoID, 10) + "-" + uuid.NewString()[:8]
    order, err := h.Pay.CreateOrder(up.AmountCents, "INR", receipt, map[string]interface{}{
        "demo_booking_id": demoID,
    })
    if err != nil {
        h.Log.Error("create gateway order", zap.Uint64("demo_id", demoID), zap.Error(err))
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway unavailable"})
    }

    billing := up.BillingType
    reg := &model.Booking{
        StudentID:     studentID,
        TutorID:       demo.TutorID,
        Kind:          model.BookingRegular,
        Subject:       demo.Subject,
        StartsAt:      start,
        EndsAt:        end,
        RequestedBy:   model.RoleStudent,
        Status:        model.BookingPending,
        PaymentStatus: model.PaymentInitiated,
        AmountCents:   up.AmountCents,
        BillingType:   &billing,
        PaymentRef:    &order.OrderID,
    }
    if up.ClassCount > 0 {
        count := up.ClassCount
        reg.ClassCount = &count
    }
    if err := h.createRegularTx(ctx, reg); err != nil {
        if err == booking.ErrSlotUnavailable {
            return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
        }
        h.Log.Error("create regular booking", zap.Uint64("demo_id", demoID), zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upgrade failed"})
    }

    notify(h.Log, queue.NotificationEvent{
        Type:        queue.TypeUpgradeOrdered,
        RecipientID: reg.TutorID,
        ActorID:     studentID,
        BookingID:   reg.ID,
        Subject:     reg.Subject,
        StartsAt:    reg.StartsAt.Format(time.RFC3339),
        Meta:        map[string]string{"billing_type": billing},
    })
    return c.JSON(http.StatusCreated, upgradeResp{Booking: toBookingResp(reg), Order: order})
}

// createRegularTx checks slot collisions against locked rows and
// inserts the regular booking.
func (h *PaymentHandler) createRegularTx(ctx context.Context, reg *model.Booking) error {
    tx, err := h.Bookings.DB().BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer tx.Rollback()

    active, err := h.Bookings.ActiveByTutorTx(ctx, tx, reg.TutorID)
    if err != nil {
        return err
    }
    if err := booking.CheckSlotFree(reg.StartsAt, reg.EndsAt, active); err != nil {
        return err
    }
    if err := h.Bookings.CreateTx(ctx, tx, reg); err != nil {
        return err
    }
    return tx.Commit()
}

type verifyReq struct {
    OrderID   string `json:"razorpay_order_id" validate:"required"`
    PaymentID string `json:"razorpay_payment_id" validate:"required"`
    Signature string `json:"razorpay_signature" validate:"required"`
}

// Verify checks the checkout signature and finalises whatever the order
// was paying for: a batch seat or a regular-class upgrade.  Verifying a
// paid order again is a no-op success.
func (h *PaymentHandler) Verify(c echo.Context) error {
    studentID, ok := getUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req verifyReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := validate.Struct(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "razorpay_order_id, razorpay_payment_id and razorpay_signature are required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    if e, err := h.Batches.GetEnrollmentByOrderRef(ctx, req.OrderID); err == nil {
        return h.verifyEnrollment(c, ctx, studentID, e, req)
    } else if err != sql.ErrNoRows {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    if b, err := h.Bookings.GetByPaymentRef(ctx, req.OrderID); err == nil {
        return h.verifyBooking(c, ctx, studentID, b, req)
    } else if err != sql.ErrNoRows {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown order"})
}

func (h *PaymentHandler) verifyEnrollment(c echo.Context, ctx context.Context, studentID uint64, e *model.BatchEnrollment, req verifyReq) error {
    if e.StudentID != studentID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your order"})
    }
    if !h.Pay.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
        _ = h.Batches.FailEnrollmentPayment(ctx, e.ID)
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment signature"})
    }
    if e.Status == model.BookingConfirmed {
        return c.JSON(http.StatusOK, echo.Map{"success": true, "enrollment": toEnrollmentResp(e)})
    }
    // a valid signature is not enough: once the hold expired the seat
    // may already belong to someone else
    if e.Status != model.BookingPending || !time.Now().UTC().Before(e.ExpiresAt) {
        return c.JSON(http.StatusConflict, echo.Map{"error": repository.ErrHoldLapsed.Error()})
    }

    b, err := h.Batches.GetByID(ctx, e.BatchID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    tx, err := h.Batches.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirmation failed"})
    }
    defer tx.Rollback()

    if err := h.Batches.ConfirmEnrollmentTx(ctx, tx, e.ID); err != nil {
        if err == repository.ErrHoldLapsed {
            return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
        }
        h.Log.Error("confirm enrollment", zap.Uint64("enrollment_id", e.ID), zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirmation failed"})
    }
    var sess *model.Session
    if existing, err := h.Sessions.GetBySource(ctx, model.SessionFromBatch, e.BatchID); err == nil {
        sess = existing
    } else if err == sql.ErrNoRows {
        sess = &model.Session{
            Source:     model.SessionFromBatch,
            SourceID:   e.BatchID,
            StartsAt:   b.StartsAt,
            EndsAt:     b.StartsAt.Add(batchSessionLength),
            MeetingURL: mintMeetingURL(h.Cfg.MeetingBaseURL),
        }
        if err := h.Sessions.CreateTx(ctx, tx, sess); err != nil {
            h.Log.Error("create batch session", zap.Uint64("batch_id", e.BatchID), zap.Error(err))
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirmation failed"})
        }
    } else {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirmation failed"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirmation failed"})
    }

    e.Status = model.BookingConfirmed
    e.PaymentStatus = model.PaymentCompleted
    notify(h.Log, queue.NotificationEvent{
        Type:        queue.TypeBatchEnrolled,
        RecipientID: b.TutorID,
        ActorID:     studentID,
        BatchID:     b.ID,
        SessionID:   sess.ID,
        Subject:     b.Subject,
        StartsAt:    b.StartsAt.Format(time.RFC3339),
    })
    return c.JSON(http.StatusOK, echo.Map{
        "success":    true,
        "enrollment": toEnrollmentResp(e),
        "session_id": sess.ID,
    })
}

func (h *PaymentHandler) verifyBooking(c echo.Context, ctx context.Context, studentID uint64, b *model.Booking, req verifyReq) error {
    if b.StudentID != studentID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your order"})
    }
    if !h.Pay.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
        failTx, err := h.Bookings.DB().BeginTx(ctx, nil)
        if err == nil {
            _ = h.Bookings.UpdatePaymentTx(ctx, failTx, b.ID, model.PaymentFailed, b.PaymentRef)
            _ = failTx.Commit()
        }
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment signature"})
    }
    if b.Status == model.BookingConfirmed && b.PaymentStatus == model.PaymentCompleted {
        return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": toBookingResp(b)})
    }
    if !b.Active() {
        return c.JSON(http.StatusConflict, echo.Map{"error": booking.ErrInvalidTransition.Error()})
    }

    tx, err := h.Bookings.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirmation failed"})
    }
    defer tx.Rollback()

    if err := h.Bookings.UpdatePaymentTx(ctx, tx, b.ID, model.PaymentCompleted, b.PaymentRef); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirmation failed"})
    }
    if err := h.Bookings.UpdateStatusTx(ctx, tx, b.ID, model.BookingConfirmed); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirmation failed"})
    }
    var sess *model.Session
    if existing, err := h.Sessions.GetBySource(ctx, model.SessionFromBooking, b.ID); err == nil {
        sess = existing
    } else if err == sql.ErrNoRows {
        sess = &model.Session{
            Source:     model.SessionFromBooking,
            SourceID:   b.ID,
            StartsAt:   b.StartsAt,
            EndsAt:     b.EndsAt,
            MeetingURL: mintMeetingURL(h.Cfg.MeetingBaseURL),
        }
        if err := h.Sessions.CreateTx(ctx, tx, sess); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirmation failed"})
        }
    } else {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirmation failed"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "confirmation failed"})
    }

    b.Status = model.BookingConfirmed
    b.PaymentStatus = model.PaymentCompleted
    notify(h.Log, queue.NotificationEvent{
        Type:        queue.TypeRegularBooked,
        RecipientID: b.TutorID,
        ActorID:     studentID,
        BookingID:   b.ID,
        SessionID:   sess.ID,
        Subject:     b.Subject,
        StartsAt:    b.StartsAt.Format(time.RFC3339),
    })
    return c.JSON(http.StatusOK, echo.Map{
        "success":    true,
        "booking":    toBookingResp(b),
        "session_id": sess.ID,
    })
}

func (h *PaymentHandler) mapUpgradeErr(c echo.Context, err error) error {
    switch err {
    case booking.ErrDemoNotCompleted:
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case booking.ErrInvalidBillingType, booking.ErrInvalidClassCount:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "upgrade failed"})
    }
}
