package transport

import "fmt"

// ErrInvalidURL occurs if the service url cannot be parsed or does not use the http(s) scheme.
var ErrInvalidURL = fmt.Errorf("must provide valid http or https url")

// Error reports a request that failed before a complete response body was read.
// Err is the error returned by the underlying HTTP client, unmodified.
type Error struct {
	Method string
	URL    string
	Err    error
}

// Error presents the failed request along with the underlying error.
func (err *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", err.Method, err.URL, err.Err)
}

// Unwrap returns the underlying error.
func (err *Error) Unwrap() error {
	return err.Err
}
