package watch

import "errors"

// Error taxonomy for room operations. All of these are recovered at the
// boundary of the triggering event and surfaced only to that connection.
var (
	// ErrAuthRequired means no identity is bound to the connection.
	ErrAuthRequired = errors.New("authentication required")
	// ErrRoomNotFound means the persisted room record could not be resolved.
	ErrRoomNotFound = errors.New("room not found")
	// ErrNotAuthorized means a non-host attempted a playback mutation.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrMalformedEvent means an event payload is missing required fields.
	ErrMalformedEvent = errors.New("malformed event")
)
