// Package blob defines the document blob-store port.
package blob

import "context"

// Store fetches attachment binary content by its stored path.
type Store interface {
	Download(ctx context.Context, path string) ([]byte, error)
}
