package pricewatch

import "errors"

var (
	// ErrInvalidInput marks a caller mistake: empty URL, unknown scheme,
	// unusable merchant name.
	ErrInvalidInput = errors.New("pricewatch: invalid input")

	// ErrCatalog marks a failure to load the product slice for a run.
	ErrCatalog = errors.New("pricewatch: catalog unavailable")

	// ErrRenderer marks a browser engine that could not be started.
	ErrRenderer = errors.New("pricewatch: renderer unavailable")
)
