// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates a request failed validation before any backend call.
var ErrValidation = errors.New("validation failed")

// ErrUnauthorized indicates a missing session or an unusable live credential
// at call time. Live mode is never silently downgraded to simulation.
var ErrUnauthorized = errors.New("unauthorized")
