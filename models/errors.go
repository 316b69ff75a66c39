package models

import "errors"

// Shared error taxonomy. Handlers translate these to HTTP statuses; every
// other layer wraps them with %w and callers test with errors.Is.
var (
	// ErrInvalidFilters marks a filter combination that cannot be safely
	// auto-corrected, e.g. an unknown sort mode.
	ErrInvalidFilters = errors.New("invalid search filters")

	// ErrSearchUnavailable means the property store was unreachable or timed
	// out. It is deliberately distinct from an empty result set.
	ErrSearchUnavailable = errors.New("search unavailable")

	// ErrNotFound addresses a property id that does not exist.
	ErrNotFound = errors.New("property not found")

	// ErrConflict reports a duplicate favorite for the same (user, property).
	ErrConflict = errors.New("favorite already exists")
)
