package htx

import "github.com/pkg/errors"

// Error taxonomy for the HTTP reader and writer.
var (
	ErrHeadersTooLarge  = errors.New("htx: headers too large")
	ErrRequestParse     = errors.New("htx: malformed request")
	ErrRequestPath      = errors.New("htx: request path too long")
	ErrBody             = errors.New("htx: malformed body framing")
	ErrChunk            = errors.New("htx: malformed chunked encoding")
)

// errNoRequest is returned by Reader.ReadRequest when the peer closed
// the connection with an empty accumulator: the connection driver
// uses it to end the keep-alive loop without treating it as a parse
// failure.
var errNoRequest = errors.New("htx: no request (peer closed)")

// IsNoRequest reports whether err is the "no-request" sentinel.
func IsNoRequest(err error) bool {
	return errors.Is(err, errNoRequest)
}
