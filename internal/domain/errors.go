package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDatasetNotFound signals an unknown dataset identifier.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrDatasetNotReady signals a dataset that has not been built or loaded.
	ErrDatasetNotReady = errors.New("dataset not ready")
	// ErrSourceMissing signals a raw dataset source that does not exist.
	ErrSourceMissing = errors.New("dataset source missing")
	// ErrSourceMalformed signals a raw dataset source that cannot be decoded.
	ErrSourceMalformed = errors.New("dataset source malformed")
	// ErrDimensionMismatch signals a vector whose length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrIndexCorrupt signals a persisted index or metadata file that cannot be trusted.
	ErrIndexCorrupt = errors.New("persisted index corrupt")

	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrClassifierUnavailable signals an intent classifier failure.
	ErrClassifierUnavailable = errors.New("intent classifier unavailable")
	// ErrInvalidIntent signals a classifier response that is not a usable intent.
	ErrInvalidIntent = errors.New("invalid intent")
)

// BuildError carries the dataset a failed build belongs to.
type BuildError struct {
	Dataset string
	Err     error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build dataset %q: %s", e.Dataset, e.Err.Error())
}

func (e *BuildError) Unwrap() error { return e.Err }

// NewBuildError wraps err with the dataset identifier.
func NewBuildError(dataset string, err error) error {
	return &BuildError{Dataset: dataset, Err: err}
}
