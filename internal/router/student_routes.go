package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/tutor-session-booking/internal/handler"
    "github.com/iliyamo/tutor-session-booking/internal/middleware"
    "github.com/iliyamo/tutor-session-booking/internal/model"
)

// RegisterStudent registers student-scoped endpoints under /v1.  All
// routes require a valid JWT and the STUDENT role.  Students reserve
// demo slots, take seats on group batches and drive the payment flow.
// The rate limiter guards the mutating reservation endpoints; it may be
// nil when Redis is unavailable.
func RegisterStudent(e *echo.Echo, b *handler.BookingHandler, gb *handler.BatchHandler, p *handler.PaymentHandler, jwtSecret string, rl echo.MiddlewareFunc) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleStudent),
    )
    mw := []echo.MiddlewareFunc{}
    if rl != nil {
        mw = append(mw, rl)
    }
    g.POST("/bookings", b.Reserve, mw...)
    g.POST("/batches/:id/reserve", gb.Reserve, mw...)
    g.POST("/batches/:id/order", p.EnrollmentOrder, mw...)
    g.POST("/bookings/:id/upgrade", p.Upgrade, mw...)
    g.POST("/payments/verify", p.Verify, mw...)
}
