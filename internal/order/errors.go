package order

import "errors"

var (
	// ErrSessionNotFound is returned for events from a user without an order in progress.
	ErrSessionNotFound = errors.New("order: session not found")
	// ErrEmptyFileSet is returned when /done arrives before any document.
	ErrEmptyFileSet = errors.New("order: no files collected")
	// ErrUnreadableDocument marks a document whose pages could not be counted.
	ErrUnreadableDocument = errors.New("order: unreadable document")
	// ErrTransferFailure marks a failed download, rename or send of a document.
	ErrTransferFailure = errors.New("order: transfer failed")
	// ErrUnexpectedEvent is returned when an event does not fit the current state.
	ErrUnexpectedEvent = errors.New("order: unexpected event")
)
