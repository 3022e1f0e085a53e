package explorer

import (
	"fmt"

	"explorer.pub/explorer/transport"
)

// ErrCompilerNotFound occurs when a lookup matches none of the compilers the service exposes.
// ErrInvalidURL occurs when the API is configured with a url that is not http(s).
var (
	ErrCompilerNotFound = fmt.Errorf("compiler not found")
	ErrInvalidURL       = transport.ErrInvalidURL
)

// MalformedResponseError occurs when a JSON response body cannot be parsed.
type MalformedResponseError struct {
	Body []byte
	Err  error
}

// Error presents the parse failure.
func (err *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed json response (%d bytes): %v", len(err.Body), err.Err)
}

// Unwrap returns the underlying parse error.
func (err *MalformedResponseError) Unwrap() error {
	return err.Err
}
