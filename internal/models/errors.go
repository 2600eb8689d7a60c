package models

import "errors"

var (
	// ErrNotInitialized is returned for queries made before the assistant is ready. Retry after init.
	ErrNotInitialized = errors.New("assistant not initialized")

	// ErrGeneration wraps any failure of the external generation call.
	ErrGeneration = errors.New("generation failed")

	// ErrNoGenerator means no generation provider could be configured.
	ErrNoGenerator = errors.New("no generation provider configured")

	// ErrUnsupportedFileType is returned when ingesting an unknown file extension.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrExcludedFile is returned when ingesting a file the config excludes, such as the price CSV.
	ErrExcludedFile = errors.New("file excluded from indexing")
)
