package search

import "errors"

var (
	// ErrNilIndex is returned when an engine is created without an index.
	ErrNilIndex = errors.New("search: index is required")

	// ErrNotLoaded is returned by a Catalog that holds no engine yet.
	ErrNotLoaded = errors.New("search: no ontology loaded")
)
