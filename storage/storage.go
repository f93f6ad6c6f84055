package storage

import (
	"context"
	"errors"
)

var (
	// UnavailableErr reports that the storage medium could not be reached or written.
	UnavailableErr = errors.New("storage unavailable")
	// CorruptErr reports stored content that cannot be decoded.
	CorruptErr = errors.New("storage content corrupt")
)

// KeyValue is the persistence capability the session store is built on: a small
// string-keyed map that survives process restarts.
type KeyValue interface {
	// Get returns the stored values for keys. Missing keys are absent from the result.
	Get(ctx context.Context, keys ...string) (map[string]string, error)

	// Update writes set and removes remove as a single atomic step.
	// A reader never observes some of the changes without the others.
	Update(ctx context.Context, set map[string]string, remove ...string) error

	// Close releases any resources held by the backend
	Close() error
}
