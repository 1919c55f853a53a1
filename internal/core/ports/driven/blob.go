package driven

import (
	"context"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

// BlobContentReader reads the full content of a storage object.
type BlobContentReader interface {
	// Read returns the object bytes at (bucket, path).
	// Returns domain.ErrNotFound if the object does not exist.
	Read(ctx context.Context, bucket, path string) ([]byte, error)
}

// BlobMetadataWriter writes custom metadata on a storage object.
type BlobMetadataWriter interface {
	// EnsureIdentifier assigns a stable identifier to the object if it has none.
	// Idempotent: an existing identifier is returned without writing.
	EnsureIdentifier(ctx context.Context, bucket, path string) (string, error)

	// PatchMetadata merges fields into the object's custom metadata.
	PatchMetadata(ctx context.Context, bucket, path string, fields map[string]string) error
}

// ObjectWatcher emits create events for objects written to a bucket.
type ObjectWatcher interface {
	// Watch starts watching and returns a channel of events. The channel is
	// closed when ctx is cancelled or the watcher is closed.
	Watch(ctx context.Context) (<-chan domain.ObjectEvent, error)

	// Close releases the watcher's resources.
	Close() error
}
