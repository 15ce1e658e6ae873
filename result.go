package sitepatch

import "time"

// SaveResult describes one successful save of the site document.
//
// SaveResult is passed to callbacks registered with [WithSaveCallback].
// It is a value type; callbacks may retain it freely.
type SaveResult struct {
	// RequestID is the id returned to the editor in the X-Request-Id header.
	RequestID string

	// Document is the absolute path of the document that was written.
	Document string

	// Count is the number of records written into the literal.
	Count int

	// Bytes is the size of the document after the write.
	Bytes int

	// BackgroundUpdated reports whether the background image reference changed.
	BackgroundUpdated bool

	// TitleUpdated reports whether the <title> element changed.
	TitleUpdated bool

	// SavedAt is when the write completed.
	SavedAt time.Time
}
