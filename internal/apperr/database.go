package apperr

import (
	"github.com/pkg/errors"
)

// Reason is a structured database failure cause reported by a driver.
type Reason uint8

const (
	ReasonUnknown Reason = iota
	ReasonInvalidColumn
	ReasonInvalidTable
	ReasonNullInsert
)

func (r Reason) String() string {
	switch r {
	case ReasonInvalidColumn:
		return "invalid_column"
	case ReasonInvalidTable:
		return "invalid_table"
	case ReasonNullInsert:
		return "null_insert"
	default:
		return "unknown"
	}
}

// DatabaseError is the only error type the repository layer returns.
type DatabaseError struct {
	Op     string
	Reason Reason
	Err    error
}

// NewDatabaseError wraps a driver error and records the stack of the failing call.
func NewDatabaseError(op string, reason Reason, err error) *DatabaseError {
	if err == nil {
		err = errors.New("database error")
	} else if stackOf(err) == nil {
		err = errors.WithStack(err)
	}
	return &DatabaseError{Op: op, Reason: reason, Err: err}
}

func (e *DatabaseError) Error() string {
	if e.Op == "" {
		return "database: " + e.Err.Error()
	}
	return "database: " + e.Op + ": " + e.Err.Error()
}

func (e *DatabaseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
