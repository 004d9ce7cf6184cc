package models

import (
	"errors"
	"fmt"
)

// ErrCalibration means no axis label of a snapshot could be read as a price.
var ErrCalibration = errors.New("calibration failed")

// ExternalServiceError wraps a renderer or detector failure.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// NewExternalServiceError wraps err as a failure of the named service.
func NewExternalServiceError(service string, err error) error {
	if err == nil {
		return nil
	}
	return &ExternalServiceError{Service: service, Err: err}
}

// PersistenceError wraps a store write failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ErrorKind classifies err for logs and metrics.
func ErrorKind(err error) string {
	var ext *ExternalServiceError
	var pe *PersistenceError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCalibration):
		return "calibration"
	case errors.As(err, &ext):
		return ext.Service
	case errors.As(err, &pe):
		return "persistence"
	default:
		return "unknown"
	}
}
