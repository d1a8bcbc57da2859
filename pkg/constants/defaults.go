package constants

import "time"

// Pagination defaults for large composite fields
const (
	// DefaultRowsPerPage is used when a paginated field does not configure
	// its own page size.
	DefaultRowsPerPage = 20
)

// Debounce delays for preview-oriented refreshes. Cosmetic edits (labels,
// ordering hints) debounce longer than content edits so rapid typing does
// not thrash the preview.
const (
	DebounceContent  = 300 * time.Millisecond
	DebounceCosmetic = 1 * time.Second
)

// Server defaults
const (
	DefaultPort = "3001"
)
