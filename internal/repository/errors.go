// Package repository defines error types that are reused across
// multiple repositories. These sentinel values allow higher layers
// such as handlers to distinguish between different failure
// scenarios, e.g. a missing record versus a transition that the
// workflow does not allow.
package repository

import "errors"

// ErrSessionNotFound is returned when the requested session does
// not exist. Handlers should translate this into an HTTP 404.
var ErrSessionNotFound = errors.New("session not found")

// ErrOrderNotFound is returned when the requested order does not
// exist, or does not belong to the session named in the request.
// Handlers should translate this into an HTTP 404.
var ErrOrderNotFound = errors.New("order not found")

// ErrMenuItemNotFound is returned when the requested menu item does
// not exist.
var ErrMenuItemNotFound = errors.New("menu item not found")

// ErrEmailExists is returned when registering a user whose email is
// already taken. Handlers should translate this into an HTTP 409.
var ErrEmailExists = errors.New("email already exists")
