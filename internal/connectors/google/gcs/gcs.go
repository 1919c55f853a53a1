// Package gcs reads object content and writes object metadata through the
// Cloud Storage JSON API.
package gcs

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	storage "google.golang.org/api/storage/v1"

	"github.com/custodia-labs/trellis/internal/connectors/google"
	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driven"
	"github.com/custodia-labs/trellis/internal/logger"
)

// Ensure Client implements the interfaces.
var (
	_ driven.BlobContentReader  = (*Client)(nil)
	_ driven.BlobMetadataWriter = (*Client)(nil)
)

// MaxContentBytes caps the size of objects read into memory.
const MaxContentBytes = 64 << 20

// Client is a Cloud Storage adapter for the blob ports.
type Client struct {
	svc     *storage.Service
	limiter *google.RateLimiter
	newID   func() string
}

// New creates a client. limiter may be nil to use the storage defaults.
func New(svc *storage.Service, limiter *google.RateLimiter) *Client {
	if limiter == nil {
		limiter = google.NewRateLimiter(google.ServiceStorage)
	}
	return &Client{
		svc:     svc,
		limiter: limiter,
		newID:   uuid.NewString,
	}
}

// Read downloads the object at (bucket, path).
func (c *Client) Read(ctx context.Context, bucket, path string) ([]byte, error) {
	var data []byte
	err := c.limiter.Do(ctx, google.DefaultMaxAttempts, func() error {
		resp, err := c.svc.Objects.Get(bucket, path).Context(ctx).Download()
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("download status %d", resp.StatusCode)
		}
		data, err = io.ReadAll(io.LimitReader(resp.Body, MaxContentBytes+1))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", bucket, path, google.WrapError(err))
	}
	if len(data) > MaxContentBytes {
		return nil, fmt.Errorf("%w: gs://%s/%s exceeds %d bytes", domain.ErrInvalidInput, bucket, path, MaxContentBytes)
	}
	return data, nil
}

// EnsureIdentifier writes a new trellis-uuid to the object unless it already
// has one. The write is conditional on the metageneration it read, so two
// concurrent callers agree on a single identifier.
func (c *Client) EnsureIdentifier(ctx context.Context, bucket, path string) (string, error) {
	obj, err := c.get(ctx, bucket, path)
	if err != nil {
		return "", err
	}
	if id := identifier(obj.Metadata); id != "" {
		return id, nil
	}

	id := c.newID()
	patch := &storage.Object{Metadata: map[string]string{domain.IdentifierMetadataKey: id}}
	err = c.limiter.Do(ctx, google.DefaultMaxAttempts, func() error {
		_, err := c.svc.Objects.Patch(bucket, path, patch).
			IfMetagenerationMatch(obj.Metageneration).
			Context(ctx).
			Do()
		return err
	})
	if google.IsPreconditionFailed(err) {
		logger.Debug("identifier race on gs://%s/%s, re-reading", bucket, path)
		obj, err = c.get(ctx, bucket, path)
		if err != nil {
			return "", err
		}
		if id := identifier(obj.Metadata); id != "" {
			return id, nil
		}
		return "", fmt.Errorf("gs://%s/%s changed without an identifier: %w", bucket, path, google.ErrPreconditionFailed)
	}
	if err != nil {
		return "", fmt.Errorf("patch gs://%s/%s: %w", bucket, path, google.WrapError(err))
	}
	return id, nil
}

// PatchMetadata merges fields into the object's custom metadata.
func (c *Client) PatchMetadata(ctx context.Context, bucket, path string, fields map[string]string) error {
	patch := &storage.Object{Metadata: fields}
	err := c.limiter.Do(ctx, google.DefaultMaxAttempts, func() error {
		_, err := c.svc.Objects.Patch(bucket, path, patch).Context(ctx).Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("patch gs://%s/%s: %w", bucket, path, google.WrapError(err))
	}
	return nil
}

func (c *Client) get(ctx context.Context, bucket, path string) (*storage.Object, error) {
	var obj *storage.Object
	err := c.limiter.Do(ctx, google.DefaultMaxAttempts, func() error {
		var err error
		obj, err = c.svc.Objects.Get(bucket, path).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get gs://%s/%s: %w", bucket, path, google.WrapError(err))
	}
	return obj, nil
}

func identifier(metadata map[string]string) string {
	event := domain.ObjectEvent{Metadata: metadata}
	return event.Identifier()
}
