package services

import (
	"errors"
	"fmt"
)

// ErrTransactionNotFound is returned when no payment transaction matches
// the given identifier.
var ErrTransactionNotFound = errors.New("payment transaction not found")

// ErrNotFound is returned by CRUD services when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ValidationError reports malformed caller input, rejected before any
// network call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UpstreamAuthError reports a failure to obtain credentials from the
// payment gateway.
type UpstreamAuthError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamAuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway auth failed: %v", e.Err)
	}
	return fmt.Sprintf("gateway auth failed: status %d", e.StatusCode)
}

func (e *UpstreamAuthError) Unwrap() error { return e.Err }

// UpstreamRequestError reports a transport failure, timeout or rejection
// from the payment gateway.
type UpstreamRequestError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamRequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("gateway %s failed: status %d", e.Op, e.StatusCode)
}

func (e *UpstreamRequestError) Unwrap() error { return e.Err }
