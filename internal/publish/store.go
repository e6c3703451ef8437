// Package publish places converted artifacts at their serving locations.
package publish

import "context"

// Store abstracts the serving location for generated artifacts. Artifacts are
// addressed by filename relative to the site root. Implementations must make
// Put all-or-nothing: a reader never observes a partially written artifact.
type Store interface {
	// Put writes an artifact, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error

	// Get retrieves an artifact by name. Returns ErrNotFound if absent.
	Get(ctx context.Context, name string) ([]byte, error)

	// Exists checks whether an artifact is present.
	Exists(ctx context.Context, name string) (bool, error)

	// List returns the names of all stored artifacts.
	List(ctx context.Context) ([]string, error)
}

// ErrNotFound is returned when an artifact doesn't exist.
type ErrNotFound struct {
	Name string
}

func (e ErrNotFound) Error() string {
	return "artifact not found: " + e.Name
}

// IsNotFound returns true if the error is ErrNotFound.
func IsNotFound(err error) bool {
	_, ok := err.(ErrNotFound)
	return ok
}
