// Package collab implements an optional body-parsing collaborator: a
// content-type aware decode from a raw request body into a
// name->values mapping or a JSON value. Nothing in htx/reactor/poller
// imports this package; it is an opt-in layer for handlers that want
// form or JSON decoding.
package collab

import (
	"encoding/json"
	"mime"
	"net/url"

	"github.com/pkg/errors"
)

// ErrUnsupportedContentType is returned by ParseForm when contentType
// is not application/x-www-form-urlencoded.
var ErrUnsupportedContentType = errors.New("collab: unsupported content type")

// ParseForm decodes an application/x-www-form-urlencoded body into a
// url.Values mapping.
func ParseForm(contentType string, body []byte) (url.Values, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, errors.Wrap(err, "collab: invalid content-type")
	}
	if mediaType != "application/x-www-form-urlencoded" {
		return nil, ErrUnsupportedContentType
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, errors.Wrap(err, "collab: malformed form body")
	}
	return values, nil
}

// ParseJSON decodes body as JSON into out.
func ParseJSON(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "collab: malformed json body")
	}
	return nil
}
