package google

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// OAuth2 scopes requested by the adapters.
const (
	ScopeStorage = "https://www.googleapis.com/auth/devstorage.read_write"
	ScopePubSub  = "https://www.googleapis.com/auth/pubsub"
)

// NewTokenSource returns a caching oauth2.TokenSource for scopes.
// When credentialsFile is empty the application default credentials are
// used (metadata server on Cloud Run and Cloud Functions, gcloud locally).
func NewTokenSource(ctx context.Context, credentialsFile string, scopes ...string) (oauth2.TokenSource, error) {
	if credentialsFile == "" {
		ts, err := googleoauth.DefaultTokenSource(ctx, scopes...)
		if err != nil {
			return nil, fmt.Errorf("default credentials: %w", err)
		}
		return ts, nil
	}

	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	creds, err := googleoauth.CredentialsFromJSON(ctx, data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", credentialsFile, err)
	}
	return oauth2.ReuseTokenSource(nil, creds.TokenSource), nil
}
