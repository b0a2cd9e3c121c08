// Package review holds the per-row disposition of a parsed statement while
// the user reviews it. Rows are values: every transition returns a new row
// and a new Preview, leaving the previous ones untouched.
package review

import (
	"errors"
	"fmt"

	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/parser"
)

// Status is the disposition of a preview row.
type Status string

const (
	StatusOK            Status = "ok"
	StatusDuplicate     Status = "duplicate"
	StatusError         Status = "error"
	StatusNeedsCategory Status = "needs_category"
	StatusCancelled     Status = "cancelled"
)

// ParseStatus accepts the lowercase status names.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusOK, StatusDuplicate, StatusError, StatusNeedsCategory, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown row status %q", s)
}

var (
	// ErrRowLocked is returned when editing a row in the error state.
	ErrRowLocked = errors.New("row has a validation error and cannot be edited")
	// ErrInvalidTransition is returned for a status change the user may not make.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrRowNotFound is returned when no row has the given key.
	ErrRowNotFound = errors.New("row not found")
)

// RowKey identifies a row within one preview.
type RowKey struct {
	RowIndex  int
	DedupeKey string
}

func (k RowKey) String() string {
	return fmt.Sprintf("%d/%s", k.RowIndex, k.DedupeKey)
}

// PreviewRow is a candidate row plus its review state. Type starts as the
// parser's inference and may be replaced by the chosen category's default.
type PreviewRow struct {
	parser.CandidateRow
	DedupeKey   string
	IsDuplicate bool
	CategoryID  string
	ErrorReason string // empty when the row is valid
	Warning     string // informational, never blocks the row
	Status      Status
}

func (r PreviewRow) Key() RowKey {
	return RowKey{RowIndex: r.RowIndex, DedupeKey: r.DedupeKey}
}

// Ready reports whether the row would be committed as a transaction.
func (r PreviewRow) Ready() bool {
	return r.Status == StatusOK && r.CategoryID != ""
}

// InitialStatus derives the parse-time state. Validation errors win over
// duplicates, duplicates over a missing category.
func InitialStatus(errorReason string, duplicate bool, categoryID string) Status {
	switch {
	case errorReason != "":
		return StatusError
	case duplicate:
		return StatusDuplicate
	case categoryID == "":
		return StatusNeedsCategory
	default:
		return StatusOK
	}
}

// WithCategory assigns a category. The category's default type replaces the
// row type, and a row waiting for a category becomes ok. Pass a zero
// Category to clear the selection.
func (r PreviewRow) WithCategory(c models.Category) (PreviewRow, error) {
	if r.Status == StatusError {
		return r, ErrRowLocked
	}
	r.CategoryID = c.ID
	if c.ID != "" && c.DefaultType != "" {
		r.Type = c.DefaultType
	}
	if r.Status == StatusNeedsCategory && c.ID != "" {
		r.Status = StatusOK
	}
	return r, nil
}

// WithStatus applies a user override. Rows in error never change; ok,
// duplicate and cancelled rows move freely among those three; a row still
// waiting for a category can only be cancelled.
func (r PreviewRow) WithStatus(s Status) (PreviewRow, error) {
	if r.Status == StatusError {
		return r, ErrRowLocked
	}
	switch s {
	case StatusOK, StatusDuplicate, StatusCancelled:
	default:
		return r, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, s)
	}
	if r.Status == StatusNeedsCategory && s != StatusCancelled {
		return r, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, s)
	}
	r.Status = s
	return r, nil
}
