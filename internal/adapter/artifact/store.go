// Package artifact persists finished medical plans outside the session store.
package artifact

import "context"

// Store saves and loads text artifacts by key. Saving an existing key
// overwrites it.
type Store interface {
	SaveArtifact(ctx context.Context, key, content string) error
	LoadArtifact(ctx context.Context, key string) (string, error)
}
