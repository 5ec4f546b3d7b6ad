package catalog

import "errors"

// ErrInvalidURL is returned when a product URL cannot be canonicalized.
var ErrInvalidURL = errors.New("catalog: invalid URL")
