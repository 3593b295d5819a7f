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
)

// AvailabilityHandler exposes the tutor-facing CRUD surface over
// published availability windows.  Windows are the source of truth the
// slot resolver expands on read; deleting one never touches bookings
// already made against it.
type AvailabilityHandler struct {
    Windows *repository.AvailabilityRepo
    Log     *zap.Logger
}

func NewAvailabilityHandler(w *repository.AvailabilityRepo, log *zap.Logger) *AvailabilityHandler {
    return &AvailabilityHandler{Windows: w, Log: log}
}

type createWindowReq struct {
    Kind     string    `json:"kind" validate:"required,oneof=DEMO REGULAR GROUP"`
    StartsAt time.Time `json:"starts_at" validate:"required"`
    EndsAt   time.Time `json:"ends_at" validate:"required"`
}

type windowResp struct {
    ID       uint64    `json:"id"`
    Kind     string    `json:"kind"`
    StartsAt time.Time `json:"starts_at"`
    EndsAt   time.Time `json:"ends_at"`
}

// Create publishes a new availability window for the calling tutor.
func (h *AvailabilityHandler) Create(c echo.Context) error {
    tutorID, ok := getUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createWindowReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Kind = strings.ToUpper(strings.TrimSpace(req.Kind))
    if err := validate.Struct(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "kind must be DEMO, REGULAR or GROUP and both instants are required"})
    }
    start := req.StartsAt.UTC()
    end := req.EndsAt.UTC()
    if !end.After(start) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
    }
    if start.Before(time.Now().UTC()) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "window must start in the future"})
    }
    if req.Kind == model.WindowDemo && end.Sub(start) < 15*time.Minute {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "demo windows must be at least 15 minutes long"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    w := &model.AvailabilityWindow{TutorID: tutorID, Kind: req.Kind, StartsAt: start, EndsAt: end}
    if err := h.Windows.Create(ctx, w); err != nil {
        h.Log.Error("create availability window", zap.Uint64("tutor_id", tutorID), zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create window failed"})
    }
    return c.JSON(http.StatusCreated, windowResp{ID: w.ID, Kind: w.Kind, StartsAt: w.StartsAt, EndsAt: w.EndsAt})
}

// ListMine returns the calling tutor's published windows, optionally
// filtered by ?kind=.
func (h *AvailabilityHandler) ListMine(c echo.Context) error {
    tutorID, ok := getUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    kind := strings.ToUpper(strings.TrimSpace(c.QueryParam("kind")))
    var (
        windows []model.AvailabilityWindow
        err     error
    )
    if kind != "" {
        windows, err = h.Windows.ListByTutorAndKind(ctx, tutorID, kind)
    } else {
        windows, err = h.Windows.ListByTutor(ctx, tutorID)
    }
    if err != nil {
        h.Log.Error("list availability windows", zap.Uint64("tutor_id", tutorID), zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list windows failed"})
    }
    out := make([]windowResp, 0, len(windows))
    for _, w := range windows {
        out = append(out, windowResp{ID: w.ID, Kind: w.Kind, StartsAt: w.StartsAt, EndsAt: w.EndsAt})
    }
    return c.JSON(http.StatusOK, echo.Map{"windows": out})
}

// Delete removes one of the calling tutor's windows.  Windows with
// active bookings inside them cannot be deleted; cancel or complete
// the bookings first.
func (h *AvailabilityHandler) Delete(c echo.Context) error {
    tutorID, ok := getUserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid window id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if err := h.Windows.Delete(ctx, id, tutorID); err != nil {
        switch err {
        case repository.ErrForbidden:
            return c.JSON(http.StatusForbidden, echo.Map{"error": "window belongs to another tutor"})
        case repository.ErrConflict:
            return c.JSON(http.StatusConflict, echo.Map{"error": "window still has active bookings"})
        case sql.ErrNoRows:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "window not found"})
        default:
            h.Log.Error("delete availability window", zap.Uint64("window_id", id), zap.Error(err))
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete window failed"})
        }
    }
    return c.NoContent(http.StatusNoContent)
}
