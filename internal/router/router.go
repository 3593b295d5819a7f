package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/tutor-session-booking/internal/handler"
    "github.com/iliyamo/tutor-session-booking/internal/middleware"
    "github.com/iliyamo/tutor-session-booking/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication surface.  Unauthenticated
// operations live under /v1/auth, while protected endpoints live under
// /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // rotates the refresh token
    g.POST("/refresh", a.Refresh)
    // issues a new access token without rotating the refresh token
    g.POST("/refresh-access", a.RefreshAccess)
    // logout does not require JWT auth; a refresh token in the body
    // terminates that session, a bearer with no body terminates all
    g.POST("/logout", a.Logout)
    e.POST("/v1/logout", a.Logout)

    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.Use(middleware.RequireRole(model.RoleStudent, model.RoleTutor, model.RoleAdmin))
    auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints: a
// tutor's free slots and the open group batches.  The cache middleware
// is the Redis response cache; it may be nil when Redis is unavailable.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
    mw := []echo.MiddlewareFunc{}
    if cache != nil {
        mw = append(mw, cache)
    }
    e.GET("/v1/tutors/:id/slots", p.TutorSlots, mw...)
    e.GET("/v1/batches", p.ListBatches, mw...)
    e.GET("/v1/batches/:id", p.GetBatch, mw...)
}

// RegisterShared registers the endpoints both parties of a booking use:
// booking detail and listing, accept/reject, session join and leave.
// The handlers authorize the concrete actor against the row.
func RegisterShared(e *echo.Echo, b *handler.BookingHandler, s *handler.SessionHandler, jwtSecret string, rl echo.MiddlewareFunc) {
    g := e.Group(
        "/v1",
        middleware.JWTAuth(jwtSecret),
        middleware.RequireRole(model.RoleStudent, model.RoleTutor, model.RoleAdmin),
    )
    g.GET("/my-bookings", b.ListMine)
    g.GET("/bookings/:id", b.Get)
    if rl != nil {
        g.PATCH("/bookings/:id/respond", b.Respond, rl)
        g.POST("/sessions/:id/join", s.Join, rl)
        g.POST("/sessions/:id/leave", s.Leave, rl)
    } else {
        g.PATCH("/bookings/:id/respond", b.Respond)
        g.POST("/sessions/:id/join", s.Join)
        g.POST("/sessions/:id/leave", s.Leave)
    }
}
