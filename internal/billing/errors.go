package billing

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound marks a referenced invoice/line/article id that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyVoided is returned by Void when the invoice is already terminal.
	ErrAlreadyVoided = errors.New("already voided")
	// ErrInvoiceVoided rejects any line-item mutation on a voided invoice.
	ErrInvoiceVoided = errors.New("cannot modify a voided invoice")
)

// Rejection is a validation failure: expected, user-facing, and never a
// reason to log a stack trace. The HTTP layer maps it to a 400 with the
// message list; anything else that escapes a service call is internal.
type Rejection struct {
	Errors   []string
	Warnings []string
}

func (r *Rejection) Error() string {
	return "validation failed: " + strings.Join(r.Errors, "; ")
}

func reject(format string, args ...any) *Rejection {
	return &Rejection{Errors: []string{fmt.Sprintf(format, args...)}}
}

// InsufficientStockError is raised by the stock ledger when an operation
// would drive an article's stock below zero. It carries the available
// quantity so the message can be surfaced to the caller verbatim.
type InsufficientStockError struct {
	ArticleID uint
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for article %d: requested %d, available %d",
		e.ArticleID, e.Requested, e.Available)
}

// rejectStock converts a ledger stock failure into a Rejection so callers see
// one error taxonomy; other errors pass through untouched.
func rejectStock(err error) error {
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		return &Rejection{Errors: []string{stockErr.Error()}}
	}
	return err
}
