package domain

import "errors"

// Failure classes shared by the store and its callers.
var (
	// ErrNotConfigured means no database is wired in; reads degrade to empty results.
	ErrNotConfigured = errors.New("archive store is not configured")
	// ErrTransient covers failures worth retrying: connection loss, timeouts, shutdowns.
	ErrTransient = errors.New("archive store temporarily unavailable")
	// ErrQuery covers everything else the store rejected.
	ErrQuery = errors.New("archive query failed")
	// ErrNotFound is returned by single-record lookups.
	ErrNotFound = errors.New("record not found")
)
