package handler

import (
    "context"
    "strconv"
    "strings"
    "time"

    "github.com/go-playground/validator/v10"
    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/tutor-session-booking/internal/queue"
    queuepublisher "github.com/iliyamo/tutor-session-booking/internal/service"
)

// validate is shared across handlers; validator instances cache struct
// metadata so a single instance is the cheap option.
var validate = validator.New()

// getUserID extracts the authenticated user's id from the echo context.
// The JWT middleware stores the raw "sub" claim, which may arrive as a
// float64 (JSON number) or a string depending on the issuer.
func getUserID(c echo.Context) (uint64, bool) {
    switch v := c.Get("user_id").(type) {
    case uint64:
        return v, true
    case float64:
        return uint64(v), true
    case string:
        if n, err := strconv.ParseUint(v, 10, 64); err == nil {
            return n, true
        }
    }
    return 0, false
}

// getRole returns the role claim set by the JWT middleware.
func getRole(c echo.Context) string {
    if s, ok := c.Get("role").(string); ok {
        return s
    }
    return ""
}

// mintMeetingURL derives a fresh conference room URL for a session.
func mintMeetingURL(base string) string {
    return strings.TrimRight(base, "/") + "/" + uuid.NewString()
}

// notify publishes a notification event without blocking the request.
// Broker failures are logged by the publisher and otherwise ignored.
func notify(log *zap.Logger, ev queue.NotificationEvent) {
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        _ = queuepublisher.PublishNotification(ctx, log, ev)
    }()
}
