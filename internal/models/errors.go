package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound                 = errors.New("not found")
	ErrNotAvailable             = errors.New("artwork not available")
	ErrNotOwner                 = errors.New("not owner")
	ErrDuplicateID              = errors.New("duplicate artwork id")
	ErrMalformedGatewayResponse = errors.New("payment provider response carries no payment id")
)

// ValidationError reports a malformed request field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// GatewayError carries a non-success response from the payment provider
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("pi createPayment failed: %d %s", e.StatusCode, e.Body)
}

// StorageError wraps a ledger or blob I/O failure
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
