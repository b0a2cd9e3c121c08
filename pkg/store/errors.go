package store

import (
	"errors"
	"fmt"
)

// Code classifies a store failure. Values follow the Postgres SQLSTATE
// codes a hosted ledger reports, so callers can branch on them.
type Code string

const (
	CodeNotFound              Code = "not_found"
	CodeUniqueViolation       Code = "23505"
	CodeUndefinedColumn       Code = "42703"
	CodeInvalidConflictTarget Code = "42P10"
	CodeUnavailable           Code = "unavailable"
)

// Error is returned by every Ledger method.
type Error struct {
	Op         string
	Collection Collection
	Code       Code
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("store %s %s", e.Op, e.Collection)
	if e.Code != "" {
		msg += " (" + string(e.Code) + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsCode reports whether err carries one of codes.
func IsCode(err error, codes ...Code) bool {
	var se *Error
	if !errors.As(err, &se) {
		return false
	}
	for _, c := range codes {
		if se.Code == c {
			return true
		}
	}
	return false
}

// NotFound builds the error returned for a missing record.
func NotFound(op string, coll Collection, id string) error {
	return &Error{Op: op, Collection: coll, Code: CodeNotFound, Err: fmt.Errorf("no record %q", id)}
}
