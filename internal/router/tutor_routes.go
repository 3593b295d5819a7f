package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/tutor-session-booking/internal/handler"
    "github.com/iliyamo/tutor-session-booking/internal/middleware"
    "github.com/iliyamo/tutor-session-booking/internal/model"
)

// RegisterTutor registers tutor-scoped endpoints under /v1.  All routes
// require a valid JWT and the TUTOR role.  Tutors publish availability
// windows, create group batches, request demos with students and list
// the bookings made with them.
func RegisterTutor(e *echo.Echo, a *handler.AvailabilityHandler, b *handler.BookingHandler, gb *handler.BatchHandler, jwtSecret string) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleTutor),
    )
    g.POST("/availability", a.Create)
    g.GET("/availability/me", a.ListMine)
    g.DELETE("/availability/:id", a.Delete)
    g.POST("/batches", gb.Create)
    g.POST("/bookings/request", b.Request)
    g.GET("/tutor/bookings", b.ListMine)
}
