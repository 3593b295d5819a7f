package middleware

// identity.go defines helper functions shared across middleware files.
// currentUserID pulls the subject stored by JWTAuth out of the Echo
// context for use in rate-limit keys.  When no user is authenticated it
// returns "anon" so guest traffic still buckets sensibly.

import (
    "fmt"

    "github.com/labstack/echo/v4"
)

// currentUserID extracts a user identifier from the request context.
func currentUserID(c echo.Context) string {
    v := c.Get("user_id")
    if v == nil {
        return "anon"
    }
    switch t := v.(type) {
    case string:
        if t != "" {
            return t
        }
    case float64:
        return fmt.Sprintf("%.0f", t)
    case uint64:
        return fmt.Sprintf("%d", t)
    }
    return "anon"
}
