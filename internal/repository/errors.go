// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to touch a resource owned by someone else, while
// ErrConflict signals that an operation cannot proceed because of
// dependent records (e.g. deleting an availability window that an
// active booking still depends on).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed due to conflicting state, such as removing a window
// with confirmed bookings inside it. Handlers should translate
// this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
