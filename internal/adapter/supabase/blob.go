// Package supabase implements the blob.Store port over Supabase Storage,
// where the product keeps uploaded case documents.
package supabase

import (
	"context"
	"fmt"

	storage_go "github.com/supabase-community/storage-go"

	"github.com/velumlaw/counsel/internal/resilience"
)

// Store downloads case documents from a Supabase Storage bucket.
type Store struct {
	client  *storage_go.Client
	bucket  string
	breaker *resilience.Breaker
}

// New creates a Supabase-backed blob store.
func New(url, apiKey, bucket string) (*Store, error) {
	if url == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}
	client := storage_go.NewClient(url+"/storage/v1", apiKey, nil)
	return &Store{client: client, bucket: bucket}, nil
}

// SetBreaker attaches a circuit breaker to downloads.
func (s *Store) SetBreaker(b *resilience.Breaker) {
	s.breaker = b
}

// Download fetches a document by its bucket-relative path.
func (s *Store) Download(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	call := func(context.Context) error {
		var err error
		data, err = s.client.DownloadFile(s.bucket, path)
		if err != nil {
			return fmt.Errorf("download %s: %w", path, err)
		}
		return nil
	}

	if s.breaker != nil {
		if err := s.breaker.Do(ctx, call); err != nil {
			return nil, err
		}
		return data, nil
	}

	if err := call(ctx); err != nil {
		return nil, err
	}
	return data, nil
}
