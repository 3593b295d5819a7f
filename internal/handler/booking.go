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
    "github.com/iliyamo/tutor-session-booking/internal/slots"
)

// BookingHandler orchestrates demo reservations.  Handlers own the
// transaction: uniqueness and collision checks run against rows locked
// with FOR UPDATE so two concurrent requests for the same slot cannot
// both commit.
type BookingHandler struct {
    Cfg      config.Config
    Bookings *repository.BookingRepo
    Windows  *repository.AvailabilityRepo
    Sessions *repository.SessionRepo
    Users    *repository.UserRepo
    Log      *zap.Logger
}

func NewBookingHandler(cfg config.Config, b *repository.BookingRepo, w *repository.AvailabilityRepo, s *repository.SessionRepo, u *repository.UserRepo, log *zap.Logger) *BookingHandler {
    return &BookingHandler{Cfg: cfg, Bookings: b, Windows: w, Sessions: s, Users: u, Log: log}
}

type reserveDemoReq struct {
    TutorID  uint64    `json:"tutor_id" validate:"required"`
    Subject  string    `json:"subject" validate:"required"`
    StartsAt time.Time `json:"starts_at" validate:"required"`
    EndsAt   time.Time `json:"ends_at" validate:"required"`
}

type requestDemoReq struct {
    StudentID uint64    `json:"student_id" validate:"required"`
    Subject   string    `json:"subject" validate:"required"`
    StartsAt  time.Time `json:"starts_at" validate:"required"`
    EndsAt    time.Time `json:"ends_at" validate:"required"`
}

type respondReq struct {
    Decision string `json:"decision" validate:"required"`
}

type bookingResp struct {
    ID            uint64    `json:"id"`
    StudentID     uint64    `json:"student_id"`
    TutorID       uint64    `json:"tutor_id"`
    Kind          string    `json:"kind"`
    Subject       string    `json:"subject"`
    StartsAt      time.Time `json:"starts_at"`
    EndsAt        time.Time `json:"ends_at"`
    RequestedBy   string    `json:"requested_by"`
    Status        string    `json:"status"`
    PaymentStatus string    `json:"payment_status"`
    AmountCents   uint32    `json:"amount_cents"`
    BillingType   *string   `json:"billing_type,omitempty"`
    ClassCount    *uint32   `json:"class_count,omitempty"`
    SessionID     uint64    `json:"session_id,omitempty"`
}

func toBookingResp(b *model.Booking) bookingResp {
    return bookingResp{
        ID:            b.ID,
        StudentID:     b.StudentID,
        TutorID:       b.TutorID,
        Kind:          b.Kind,
        Subject:       b.Subject,
        StartsAt:      b.StartsAt,
        EndsAt:        b.EndsAt,
        RequestedBy:   b.RequestedBy,
        Status:        b.Status,
        PaymentStatus: b.PaymentStatus,
        AmountCents:   b.AmountCents,
        BillingType:   b.BillingType,
        ClassCount:    b.ClassCount,
    }
}

// Reserve books a demo slot for the calling student.  The booking is
// confirmed immediately and the session row is created in the same
// transaction.
func (h *BookingHandler) Reserve(c echo.Context) error {
    studentID, ok := getUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req reserveDemoReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := validate.Struct(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "tutor_id, subject, starts_at and ends_at are required"})
    }
    start, end := req.StartsAt.UTC(), req.EndsAt.UTC()
    if end.Sub(start) != slots.DemoSlotLength {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "demo slots are exactly 15 minutes"})
    }
    if start.Before(time.Now().UTC()) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot is in the past"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    tutor, err := h.Users.GetByID(ctx, req.TutorID)
    if err != nil || tutor.Role != model.RoleTutor {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "tutor not found"})
    }

    covering, err := h.Windows.WindowsCovering(ctx, req.TutorID, model.WindowDemo, start, end)
    if err != nil {
        h.Log.Error("window coverage check", zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation failed"})
    }
    if len(covering) == 0 {
        return c.JSON(http.StatusConflict, echo.Map{"error": booking.ErrSlotUnavailable.Error()})
    }
    // only the advertised grid slices are bookable; an off-grid start
    // inside a window would fragment the slots around it
    aligned := false
    for i := range covering {
        if slots.OnGrid(covering[i].StartsAt, start) {
            aligned = true
            break
        }
    }
    if !aligned {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "demo slots start on the 15 minute grid"})
    }

    b := &model.Booking{
        StudentID:     studentID,
        TutorID:       req.TutorID,
        Kind:          model.BookingDemo,
        Subject:       strings.TrimSpace(req.Subject),
        StartsAt:      start,
        EndsAt:        end,
        RequestedBy:   model.RoleStudent,
        Status:        booking.InitialDemoStatus(model.RoleStudent),
        PaymentStatus: model.PaymentPending,
    }
    sess, err := h.reserveDemoTx(ctx, b)
    if err != nil {
        return h.mapBookingErr(c, err)
    }

    notify(h.Log, queue.NotificationEvent{
        Type:        queue.TypeDemoConfirmed,
        RecipientID: b.TutorID,
        ActorID:     studentID,
        BookingID:   b.ID,
        Subject:     b.Subject,
        StartsAt:    b.StartsAt.Format(time.RFC3339),
    })

    resp := toBookingResp(b)
    if sess != nil {
        resp.SessionID = sess.ID
    }
    return c.JSON(http.StatusCreated, resp)
}

// Request creates a tutor-initiated demo request.  It stays PENDING
// until the student accepts or rejects it.
func (h *BookingHandler) Request(c echo.Context) error {
    tutorID, ok := getUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req requestDemoReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := validate.Struct(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "student_id, subject, starts_at and ends_at are required"})
    }
    start, end := req.StartsAt.UTC(), req.EndsAt.UTC()
    if end.Sub(start) != slots.DemoSlotLength {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "demo slots are exactly 15 minutes"})
    }
    if start.Before(time.Now().UTC()) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot is in the past"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    student, err := h.Users.GetByID(ctx, req.StudentID)
    if err != nil || student.Role != model.RoleStudent {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "student not found"})
    }

    b := &model.Booking{
        StudentID:     req.StudentID,
        TutorID:       tutorID,
        Kind:          model.BookingDemo,
        Subject:       strings.TrimSpace(req.Subject),
        StartsAt:      start,
        EndsAt:        end,
        RequestedBy:   model.RoleTutor,
        Status:        booking.InitialDemoStatus(model.RoleTutor),
        PaymentStatus: model.PaymentPending,
    }
    if _, err := h.reserveDemoTx(ctx, b); err != nil {
        return h.mapBookingErr(c, err)
    }

    notify(h.Log, queue.NotificationEvent{
        Type:        queue.TypeDemoRequested,
        RecipientID: b.StudentID,
        ActorID:     tutorID,
        BookingID:   b.ID,
        Subject:     b.Subject,
        StartsAt:    b.StartsAt.Format(time.RFC3339),
    })
    return c.JSON(http.StatusCreated, toBookingResp(b))
}

// reserveDemoTx runs the locked uniqueness and collision checks, then
// inserts the booking.  Confirmed bookings also get their session row
// before the commit so a crash cannot leave a confirmed demo without a
// joinable session.  The returned session is nil for PENDING requests.
func (h *BookingHandler) reserveDemoTx(ctx context.Context, b *model.Booking) (*model.Session, error) {
    tx, err := h.Bookings.DB().BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    defer tx.Rollback()

    demos, err := h.Bookings.ActiveDemosByStudentTx(ctx, tx, b.StudentID)
    if err != nil {
        return nil, err
    }
    if err := booking.CheckNoActiveDemo(demos); err != nil {
        return nil, err
    }

    active, err := h.Bookings.ActiveByTutorTx(ctx, tx, b.TutorID)
    if err != nil {
        return nil, err
    }
    if err := booking.CheckSlotFree(b.StartsAt, b.EndsAt, active); err != nil {
        return nil, err
    }

    if err := h.Bookings.CreateTx(ctx, tx, b); err != nil {
        return nil, err
    }

    var sess *model.Session
    if b.Status == model.BookingConfirmed {
        sess = &model.Session{
            Source:     model.SessionFromBooking,
            SourceID:   b.ID,
            StartsAt:   b.StartsAt,
            EndsAt:     b.EndsAt,
            MeetingURL: mintMeetingURL(h.Cfg.MeetingBaseURL),
        }
        if err := h.Sessions.CreateTx(ctx, tx, sess); err != nil {
            return nil, err
        }
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    return sess, nil
}

// Respond lets the non-requesting party accept or reject a pending
// demo request.
func (h *BookingHandler) Respond(c echo.Context) error {
    actorID, ok := getUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    var req respondReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := validate.Struct(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "decision is required (accept or reject)"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    tx, err := h.Bookings.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "respond failed"})
    }
    defer tx.Rollback()

    b, err := h.Bookings.GetByIDTx(ctx, tx, id)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
        }
        h.Log.Error("load booking", zap.Uint64("booking_id", id), zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "respond failed"})
    }

    next, err := booking.Respond(b, actorID, req.Decision)
    if err != nil {
        return h.mapBookingErr(c, err)
    }
    if err := h.Bookings.UpdateStatusTx(ctx, tx, b.ID, next); err != nil {
        h.Log.Error("update booking status", zap.Uint64("booking_id", id), zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "respond failed"})
    }
    b.Status = next

    var sess *model.Session
    if next == model.BookingConfirmed {
        sess = &model.Session{
            Source:     model.SessionFromBooking,
            SourceID:   b.ID,
            StartsAt:   b.StartsAt,
            EndsAt:     b.EndsAt,
            MeetingURL: mintMeetingURL(h.Cfg.MeetingBaseURL),
        }
        if err := h.Sessions.CreateTx(ctx, tx, sess); err != nil {
            h.Log.Error("create session", zap.Uint64("booking_id", id), zap.Error(err))
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "respond failed"})
        }
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "respond failed"})
    }

    evType := queue.TypeDemoRejected
    if next == model.BookingConfirmed {
        evType = queue.TypeDemoConfirmed
    }
    // the requester hears the answer
    recipient := b.StudentID
    if b.RequestedBy == model.RoleTutor {
        recipient = b.TutorID
    }
    notify(h.Log, queue.NotificationEvent{
        Type:        evType,
        RecipientID: recipient,
        ActorID:     actorID,
        BookingID:   b.ID,
        Subject:     b.Subject,
        StartsAt:    b.StartsAt.Format(time.RFC3339),
    })

    resp := toBookingResp(b)
    if sess != nil {
        resp.SessionID = sess.ID
    }
    return c.JSON(http.StatusOK, resp)
}

// ListMine returns the calling user's bookings; students see the ones
// they made, tutors the ones made with them.
func (h *BookingHandler) ListMine(c echo.Context) error {
    uid, ok := getUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    var (
        out []model.Booking
        err error
    )
    if getRole(c) == model.RoleTutor {
        out, err = h.Bookings.ListByTutor(ctx, uid)
    } else {
        out, err = h.Bookings.ListByStudent(ctx, uid)
    }
    if err != nil {
        h.Log.Error("list bookings", zap.Uint64("user_id", uid), zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    resp := make([]bookingResp, 0, len(out))
    for i := range out {
        resp = append(resp, toBookingResp(&out[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": resp})
}

// Get returns one booking.  Only the two parties and admins may see it.
func (h *BookingHandler) Get(c echo.Context) error {
    uid, ok := getUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    b, err := h.Bookings.GetByID(ctx, id)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    if uid != b.StudentID && uid != b.TutorID && getRole(c) != model.RoleAdmin {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
    }
    return c.JSON(http.StatusOK, toBookingResp(b))
}

// mapBookingErr translates the reservation rule sentinels into HTTP
// responses; anything unrecognised is a 500.
func (h *BookingHandler) mapBookingErr(c echo.Context, err error) error {
    switch err {
    case booking.ErrActiveDemoExists, booking.ErrSlotUnavailable,
        booking.ErrInvalidTransition, booking.ErrDemoNotCompleted:
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case booking.ErrNotAuthorized:
        return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
    case booking.ErrInvalidBillingType, booking.ErrInvalidClassCount:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    default:
        h.Log.Error("reservation failed", zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation failed"})
    }
}
