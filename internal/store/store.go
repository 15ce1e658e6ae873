package store

import "time"

// SaveEvent describes one successful write of the site document.
//
// SaveEvent is the wire representation used by the event stream endpoints,
// so its fields carry JSON tags.
type SaveEvent struct {
	// ID is the request id of the save that produced this event.
	ID string `json:"id"`

	// Document is the absolute path of the document that was written.
	Document string `json:"document"`

	// Count is the number of records written into the literal.
	Count int `json:"count"`

	// Bytes is the size of the document after the write.
	Bytes int `json:"bytes"`

	// BackgroundUpdated reports whether the background reference changed.
	BackgroundUpdated bool `json:"background_updated"`

	// TitleUpdated reports whether the <title> element changed.
	TitleUpdated bool `json:"title_updated"`

	// SavedAt is when the write completed.
	SavedAt time.Time `json:"saved_at"`
}

// Document is the HTML file the patcher operates on.
//
// Implementations read and write the whole document at once; there is no
// partial or streaming mutation.
type Document interface {
	// Path returns the location of the document.
	Path() string

	// Read returns the full document text. It fails with [ErrDocumentMissing]
	// when the document does not exist.
	Read() (string, error)

	// Write replaces the full document text. On failure the previous
	// content is left in place.
	Write(text string) error
}

// Hub distributes save events to interested listeners.
//
// Hub implementations must be safe for concurrent access.
type Hub interface {
	// Publish records an event and delivers it to all subscribers.
	Publish(event SaveEvent)

	// Recent returns the most recent events, oldest first.
	// The returned slice is a snapshot; modifications do not affect the hub.
	Recent() []SaveEvent

	// Subscribe returns a channel that receives published events.
	// The returned channel has a buffer; slow consumers may miss events.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan SaveEvent

	// SubscribeWithRecent is Subscribe plus a snapshot of Recent, taken
	// atomically: every event is either in the snapshot or delivered on
	// the channel, never both.
	SubscribeWithRecent() ([]SaveEvent, <-chan SaveEvent)

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan SaveEvent)
}
