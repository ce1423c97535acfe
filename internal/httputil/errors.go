package httputil

import "errors"

// Errors for request binding. They are returned verbatim to API
// clients, so they are phrased as instructions, not diagnostics.
var (
	// ErrInvalidBody is returned when the request body cannot be
	// decoded into the expected resource.
	ErrInvalidBody = errors.New("the body of your request contains invalid or un-parseable data. Please check and try again")

	// ErrRequestBodyEmpty is returned for requests that require a body
	// but did not send one.
	ErrRequestBodyEmpty = errors.New("the request body must not be empty")

	// ErrInvalidUUID is returned when a resource ID in the request
	// cannot be parsed.
	ErrInvalidUUID = errors.New("the specified resource ID is not a valid UUID")
)
