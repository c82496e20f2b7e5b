package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/lib/pq"

	"FundingArchive/internal/domain"
)

// Store-level names for the domain failure classes.
var (
	ErrNotConfigured = domain.ErrNotConfigured
	ErrTransient     = domain.ErrTransient
	ErrQuery         = domain.ErrQuery
	ErrNotFound      = domain.ErrNotFound
)

// Error carries the failure class next to the driver error.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}
	return &Error{Op: op, Kind: classify(err), Err: err}
}

func notConfigured(op string) error {
	return &Error{Op: op, Kind: ErrNotConfigured}
}

func classify(err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return ErrTransient
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		// connection exception, transaction rollback, insufficient resources, operator intervention
		case "08", "40", "53", "57":
			return ErrTransient
		}
		return ErrQuery
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrTransient
	}

	return ErrQuery
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
