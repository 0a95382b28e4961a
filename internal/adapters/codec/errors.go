package codec

import "errors"

// ErrMalformed marks a session document that cannot be loaded: missing
// or mistyped fields, or history entries naming unknown items.
var ErrMalformed = errors.New("malformed session document")
