package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driven"
)

// Ensure BlobStore implements the interfaces.
var (
	_ driven.BlobContentReader  = (*BlobStore)(nil)
	_ driven.BlobMetadataWriter = (*BlobStore)(nil)
)

type blobKey struct {
	bucket string
	path   string
}

type blob struct {
	content  []byte
	metadata map[string]string
}

// BlobStore is an in-memory object store. Handling a single event from the
// command line runs against it so that no real bucket is touched.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[blobKey]*blob
	newID func() string
}

// NewBlobStore creates an empty in-memory object store.
func NewBlobStore() *BlobStore {
	return &BlobStore{
		blobs: make(map[blobKey]*blob),
		newID: uuid.NewString,
	}
}

// Put stores an object with optional metadata, replacing any existing one.
func (s *BlobStore) Put(bucket, path string, content []byte, metadata map[string]string) {
	md := make(map[string]string, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[blobKey{bucket, path}] = &blob{content: content, metadata: md}
}

// Metadata returns a copy of an object's custom metadata.
func (s *BlobStore) Metadata(bucket, path string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[blobKey{bucket, path}]
	if !ok {
		return nil, fmt.Errorf("%w: gs://%s/%s", domain.ErrNotFound, bucket, path)
	}
	md := make(map[string]string, len(b.metadata))
	for k, v := range b.metadata {
		md[k] = v
	}
	return md, nil
}

// Read returns an object's content.
func (s *BlobStore) Read(_ context.Context, bucket, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[blobKey{bucket, path}]
	if !ok {
		return nil, fmt.Errorf("%w: gs://%s/%s", domain.ErrNotFound, bucket, path)
	}
	return b.content, nil
}

// EnsureIdentifier returns the object's identifier, assigning one if missing.
func (s *BlobStore) EnsureIdentifier(_ context.Context, bucket, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[blobKey{bucket, path}]
	if !ok {
		return "", fmt.Errorf("%w: gs://%s/%s", domain.ErrNotFound, bucket, path)
	}
	existing := domain.ObjectEvent{Metadata: b.metadata}
	if id := existing.Identifier(); id != "" {
		return id, nil
	}
	id := s.newID()
	b.metadata[domain.IdentifierMetadataKey] = id
	return id, nil
}

// PatchMetadata merges fields into the object's metadata.
func (s *BlobStore) PatchMetadata(_ context.Context, bucket, path string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blobs[blobKey{bucket, path}]
	if !ok {
		return fmt.Errorf("%w: gs://%s/%s", domain.ErrNotFound, bucket, path)
	}
	for k, v := range fields {
		b.metadata[k] = v
	}
	return nil
}
