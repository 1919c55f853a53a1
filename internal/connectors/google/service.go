package google

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	pubsub "google.golang.org/api/pubsub/v1"
	storage "google.golang.org/api/storage/v1"
)

// NewStorageService creates a Cloud Storage JSON API service.
func NewStorageService(ctx context.Context, opts ...option.ClientOption) (*storage.Service, error) {
	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}
	return svc, nil
}

// NewPubSubService creates a Pub/Sub API service.
func NewPubSubService(ctx context.Context, opts ...option.ClientOption) (*pubsub.Service, error) {
	svc, err := pubsub.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub service: %w", err)
	}
	return svc, nil
}

// ClientOptions returns the client options for scopes. A non-empty endpoint
// points the client at an emulator and disables authentication.
func ClientOptions(ctx context.Context, credentialsFile, endpoint string, scopes ...string) ([]option.ClientOption, error) {
	if endpoint != "" {
		return []option.ClientOption{
			option.WithEndpoint(endpoint),
			option.WithoutAuthentication(),
		}, nil
	}

	ts, err := NewTokenSource(ctx, credentialsFile, scopes...)
	if err != nil {
		return nil, err
	}
	return []option.ClientOption{option.WithTokenSource(ts)}, nil
}
