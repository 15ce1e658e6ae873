// Package store persists the site document and fans out save events.
//
// This package is internal to sitepatch. It has two halves:
//
//   - [Document]: whole-file read and atomic overwrite of the HTML document
//   - [Hub]: publish-subscribe of [SaveEvent] values for live notifications
//
// [FileDocument] writes through a temporary file and a rename, so a failed
// write never leaves a half-written document behind. [MemoryHub] delivers
// events over buffered channels with non-blocking sends (slow subscribers
// miss events rather than stall a save).
//
// Users of the sitepatch library should not need to interact with this
// package directly.
package store
