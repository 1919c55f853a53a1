package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/trellis/internal/core/domain"
)

func TestNew_Offline(t *testing.T) {
	a, err := New(context.Background(), Options{NoConfig: true, Offline: true})
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Blobs)
	assert.Nil(t, a.Watcher)
	assert.NotNil(t, a.Outbox)
	assert.NotNil(t, a.Ledger)
	assert.Equal(t, domain.EnvironmentLocal, a.Resolved.Environment)
	assert.Contains(t, a.Registry.Labels(), "Fastq")
}

func TestNew_OfflinePipeline(t *testing.T) {
	a, err := New(context.Background(), Options{NoConfig: true, Offline: true})
	require.NoError(t, err)
	defer a.Close()

	path := "va_mvp_phase2/P0/S0/FASTQ/S0_0_R1.fastq.gz"
	a.Blobs.Put("bucket", path, []byte("@r\n"), map[string]string{domain.IdentifierMetadataKey: "uuid-1"})
	event := domain.ObjectEvent{
		Bucket:      "bucket",
		Name:        path,
		Size:        "3",
		TimeCreated: "2019-06-03T23:51:30.123Z",
		Updated:     "2019-06-03T23:51:30.123Z",
		Metadata:    map[string]string{domain.IdentifierMetadataKey: "uuid-1"},
	}

	outcome, err := a.Ingest.HandleCreateEvent(context.Background(), event, domain.EventContext{EventID: "evt-1"})

	require.NoError(t, err)
	assert.Equal(t, domain.OutcomePublished, outcome.Kind)

	messages, err := a.Outbox.Messages(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "TOPIC_DB_QUERY", messages[0].Topic)

	record, err := a.Ledger.Get(context.Background(), "evt-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomePublished, record.Outcome)
}

func TestNew_LocalRoot(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dataDir := filepath.Join(home, "data")

	configPath := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("data_dir = \""+dataDir+"\"\n"), 0o600))

	a, err := New(context.Background(), Options{
		ConfigPath:  configPath,
		LocalRoot:   t.TempDir(),
		LocalBucket: "bkt",
	})
	require.NoError(t, err)

	require.NotNil(t, a.Watcher)
	assert.Equal(t, "bkt", a.Watcher.Bucket())
	assert.NotNil(t, a.Outbox, "local environment records messages in the outbox")
	assert.FileExists(t, filepath.Join(dataDir, "trellis.db"))
	assert.NoError(t, a.Close())
}

func TestNew_DefaultLocalBucket(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	a, err := New(context.Background(), Options{NoConfig: true, LocalRoot: t.TempDir()})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "local", a.Watcher.Bucket())
}

func TestNew_InvalidSettings(t *testing.T) {
	_, err := New(context.Background(), Options{
		NoConfig: true,
		Offline:  true,
		Env:      map[string]string{"ENVIRONMENT": "mars"},
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNew_MissingRegistryFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	content := "[labels]\nregistry_file = \"" + filepath.Join(dir, "missing.yaml") + "\"\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))

	_, err := New(context.Background(), Options{ConfigPath: configPath, Offline: true})

	assert.Error(t, err)
}

func TestNew_GoogleCloudRequiresProject(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := New(context.Background(), Options{
		NoConfig:  true,
		LocalRoot: t.TempDir(),
		Env: map[string]string{
			"ENVIRONMENT":      "google-cloud",
			EnvPubSubEmulator:  "localhost:8085",
			EnvStorageEmulator: "localhost:9023",
		},
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestClose_Idempotent(t *testing.T) {
	a, err := New(context.Background(), Options{NoConfig: true, Offline: true})
	require.NoError(t, err)

	assert.NoError(t, a.Close())
	assert.NoError(t, a.Close())
}
