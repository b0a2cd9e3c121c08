package service

import (
	"errors"

	"github.com/yurifrl/conciliar/pkg/importer"
	"github.com/yurifrl/conciliar/pkg/parser"
	"github.com/yurifrl/conciliar/pkg/review"
	"github.com/yurifrl/conciliar/pkg/store"
)

var messages = []struct {
	err error
	msg string
}{
	{importer.ErrTimeout, "The import took too long. Check the import history before trying again."},
	{parser.ErrUnknownFormat, "Unsupported file. Upload a .csv or .ofx statement."},
	{parser.ErrNoValidRows, "No valid rows were found in the file."},
	{importer.ErrNothingToImport, "Nothing to import: no row is ready."},
	{importer.ErrPeriodClosed, "This period is closed."},
	{importer.ErrBillDateRequired, "Enter the card bill date before importing."},
	{importer.ErrCommitInProgress, "An import is already running. Wait for it to finish."},
	{importer.ErrAlreadyCommitted, "This statement was already imported."},
	{review.ErrRowLocked, "Rows with errors cannot be edited."},
	{review.ErrInvalidTransition, "That status change is not allowed."},
	{review.ErrRowNotFound, "Row not found. Reload the preview."},
	{ErrNoPreview, "Upload a statement first."},
	{ErrUnknownCategory, "Unknown category."},
}

// UserMessage turns err into a short message for the review screen. Raw
// store errors are never shown.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	var se *store.Error
	if errors.As(err, &se) {
		if se.Code == store.CodeNotFound {
			return "The record was not found. Reload and try again."
		}
		return "The ledger is unavailable. Try again in a moment."
	}
	return "Something went wrong. Try again."
}
