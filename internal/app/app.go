// Package app assembles the adapters and core services from settings.
//
// Which adapters are used depends on the environment:
//
//   - google-cloud: objects are read and annotated through the Cloud Storage
//     JSON API, query requests are published to Pub/Sub.
//   - local: query requests are recorded in the SQLite outbox. Objects come
//     from a local directory when one is given, from Cloud Storage otherwise.
//
// Offline builds never touch the network: objects live in memory and nothing
// is published.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/trellis/internal/adapters/driven/config/file"
	"github.com/custodia-labs/trellis/internal/adapters/driven/dsub"
	"github.com/custodia-labs/trellis/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/trellis/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/trellis/internal/adapters/driven/tasks"
	"github.com/custodia-labs/trellis/internal/connectors/filesystem"
	"github.com/custodia-labs/trellis/internal/connectors/google"
	"github.com/custodia-labs/trellis/internal/connectors/google/gcs"
	"github.com/custodia-labs/trellis/internal/connectors/google/pubsub"
	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driven"
	"github.com/custodia-labs/trellis/internal/core/services"
	"github.com/custodia-labs/trellis/internal/enrichers"
	"github.com/custodia-labs/trellis/internal/labels"
	"github.com/custodia-labs/trellis/internal/logger"
	"github.com/custodia-labs/trellis/internal/metrics"
	"github.com/custodia-labs/trellis/internal/taxonomy"
)

// Emulator environment variables. When set, the matching client talks to the
// emulator without authentication.
const (
	EnvStorageEmulator = "STORAGE_EMULATOR_HOST"
	EnvPubSubEmulator  = "PUBSUB_EMULATOR_HOST"
)

// Options selects how the application is assembled.
type Options struct {
	// ConfigPath is the TOML config file. Empty uses ~/.trellis/config.toml.
	ConfigPath string

	// NoConfig skips the config file; settings come from defaults and Env.
	NoConfig bool

	// Env is the process environment captured once at startup.
	Env map[string]string

	// LocalRoot serves a local directory as the bucket named LocalBucket.
	LocalRoot   string
	LocalBucket string

	// Offline keeps objects in memory and publishes nothing anywhere.
	Offline bool
}

// App holds the assembled services. Close releases every resource.
type App struct {
	Settings  *services.SettingsService
	Resolved  domain.Settings
	Ingest    *services.IngestService
	Launcher  *services.JobLauncherService
	Registry  *labels.Registry
	Taxonomy  *taxonomy.Taxonomy
	Metrics   *metrics.Metrics
	Ledger    driven.EventLedger
	Outbox    driven.Outbox
	Blobs     *memory.BlobStore
	Watcher   *filesystem.Connector
	Publisher driven.Publisher

	closers []func() error
}

// New assembles the application.
func New(ctx context.Context, opts Options) (*App, error) {
	a := &App{Metrics: metrics.New()}
	if err := a.build(ctx, opts); err != nil {
		a.Close() //nolint:errcheck // returning the build error
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, opts Options) error {
	configStore, err := newConfigStore(opts)
	if err != nil {
		return err
	}
	a.Settings = services.NewSettingsService(configStore, opts.Env)
	settings, err := a.Settings.Get()
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	a.Resolved = settings

	var (
		reader driven.BlobContentReader
		writer driven.BlobMetadataWriter
	)
	switch {
	case opts.Offline:
		a.Blobs = memory.NewBlobStore()
		reader, writer = a.Blobs, a.Blobs
	case opts.LocalRoot != "":
		bucket := opts.LocalBucket
		if bucket == "" {
			bucket = "local"
		}
		a.Watcher = filesystem.New(bucket, opts.LocalRoot)
		a.closers = append(a.closers, a.Watcher.Close)
		reader, writer = a.Watcher, a.Watcher
	default:
		client, err := newStorageClient(ctx, settings, opts.Env)
		if err != nil {
			return err
		}
		reader, writer = client, client
	}

	if a.Registry, err = newRegistry(settings, reader); err != nil {
		return err
	}
	if a.Taxonomy, err = newTaxonomy(settings); err != nil {
		return err
	}

	switch {
	case opts.Offline:
		publisher := memory.NewPublisher()
		a.Publisher, a.Outbox = publisher, publisher
		a.Ledger = memory.NewEventLedger()
	default:
		store, err := sqlite.NewStore(settings.DataDir)
		if err != nil {
			return fmt.Errorf("opening data store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		a.Ledger = store.EventLedger()

		if settings.Environment == domain.EnvironmentGoogleCloud {
			if a.Publisher, err = newPublisher(ctx, settings, opts.Env); err != nil {
				return err
			}
		} else {
			outbox := store.Outbox()
			a.Publisher, a.Outbox = outbox, outbox
		}
	}

	a.Ingest, err = services.NewIngestService(a.Registry, a.Taxonomy, writer, a.Publisher, settings,
		services.WithLedger(a.Ledger),
		services.WithMetrics(a.Metrics),
	)
	if err != nil {
		return err
	}

	a.Launcher = services.NewJobLauncherService(
		tasks.NewStore(settings.Launcher.TaskDir),
		dsub.NewLauncher(settings.Launcher.Binary),
		a.Publisher,
		settings,
		a.Metrics,
	)

	logger.Debug("assembled %s environment (config %s)", settings.Environment, configStore.Path())
	return nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newConfigStore(opts Options) (driven.ConfigStore, error) {
	switch {
	case opts.NoConfig:
		return memory.NewConfigStore(), nil
	case opts.ConfigPath != "":
		return file.NewConfigStoreAt(opts.ConfigPath)
	default:
		return file.NewConfigStore("")
	}
}

func newRegistry(settings domain.Settings, reader driven.BlobContentReader) (*labels.Registry, error) {
	defs := labels.DefaultDefinitions()
	if settings.RegistryFile != "" {
		loaded, err := labels.LoadFile(settings.RegistryFile)
		if err != nil {
			return nil, err
		}
		defs = loaded
	}

	functions := enrichers.NewRegistry()
	enrichers.RegisterDefaults(functions, reader)
	return labels.NewRegistry(defs, functions)
}

func newTaxonomy(settings domain.Settings) (*taxonomy.Taxonomy, error) {
	if settings.TaxonomyFile == "" {
		return taxonomy.Default(), nil
	}
	return taxonomy.LoadFile(settings.TaxonomyFile)
}

func newStorageClient(ctx context.Context, settings domain.Settings, env map[string]string) (*gcs.Client, error) {
	opts, err := google.ClientOptions(ctx, settings.Storage.CredentialsFile, env[EnvStorageEmulator], google.ScopeStorage)
	if err != nil {
		return nil, fmt.Errorf("storage credentials: %w", err)
	}
	svc, err := google.NewStorageService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	limiter := google.NewRateLimiterWithConfig(google.RateLimitConfig{
		RequestsPerSecond: settings.Storage.RequestsPerSecond,
		BurstSize:         settings.Storage.Burst,
	})
	return gcs.New(svc, limiter), nil
}

func newPublisher(ctx context.Context, settings domain.Settings, env map[string]string) (*pubsub.Publisher, error) {
	if settings.ProjectID == "" {
		return nil, fmt.Errorf("%w: project_id is required in %s", domain.ErrInvalidInput, settings.Environment)
	}
	opts, err := google.ClientOptions(ctx, settings.Storage.CredentialsFile, env[EnvPubSubEmulator], google.ScopePubSub)
	if err != nil {
		return nil, fmt.Errorf("pubsub credentials: %w", err)
	}
	svc, err := google.NewPubSubService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return pubsub.NewPublisher(svc, settings.ProjectID, google.NewRateLimiter(google.ServicePubSub)), nil
}
