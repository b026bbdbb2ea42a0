// internal/storage/paste/interface.go
package paste

import (
	"context"
	"errors"
)

// ErrExists is returned by Backend.Create when the id is already taken.
// It never leaves the package: Store retries with a fresh id.
var ErrExists = errors.New("paste id already taken")

// Backend defines the write-once storage contract for paste bodies
type Backend interface {
	// Create stores content under id only if id is not yet present.
	// It must return an error wrapping ErrExists rather than overwrite.
	Create(ctx context.Context, id string, content []byte) error

	// Read retrieves the content stored under id, or core.ErrNotFound
	Read(ctx context.Context, id string) ([]byte, error)
}
