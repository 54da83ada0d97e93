package dynamo

import "errors"

var (
	// ErrNotFound is returned when a document, attribute row or schema
	// does not exist.
	ErrNotFound = errors.New("facet: not found")

	// ErrConflict is returned when a concurrent write canceled a
	// replace transaction. Retryable.
	ErrConflict = errors.New("facet: conflicting concurrent write")

	// ErrGroupTooLarge is returned when a key group holds more rows than
	// fit in one transaction.
	ErrGroupTooLarge = errors.New("facet: attribute group exceeds transaction limit")
)
