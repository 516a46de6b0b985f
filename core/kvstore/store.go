// Package kvstore provides the string key-value persistence capability used
// for progression and quest-log state. It is the server-side analog of the
// browser's profile-scoped local storage.
package kvstore

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is a minimal string key-value capability. Implementations must make
// Set durable before returning; Get for an unknown key returns ErrNotFound.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
