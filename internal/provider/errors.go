package provider

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAdapters means the registry has nothing configured.
	ErrNoAdapters = errors.New("no adapters configured")
	// ErrMissingAPIKey means an adapter has no usable credential; it is
	// returned before any network attempt.
	ErrMissingAPIKey = errors.New("api key is empty")
)

// GenerationError reports that every retry attempt against a provider
// failed. It wraps the last underlying error.
type GenerationError struct {
	Provider string
	Attempts int
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed after %d attempts: %v", e.Provider, e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
