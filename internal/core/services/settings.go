package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/custodia-labs/trellis/internal/core/domain"
	"github.com/custodia-labs/trellis/internal/core/ports/driven"
	"github.com/custodia-labs/trellis/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyEnvironment      = "environment"
	keyFunctionName     = "function_name"
	keyProjectID        = "project_id"
	keyTopicDBQuery     = "topics.db_query"
	keyPublishTo        = "topics.publish_to"
	keyTriggerOperation = "trigger_operation"
	keyDataDir          = "data_dir"
	keyRegistryFile     = "labels.registry_file"
	keyTaxonomyFile     = "labels.taxonomy_file"

	keyLaunchEnabled      = "launcher.enabled"
	keyLaunchBinary       = "launcher.binary"
	keyLaunchTaskDir      = "launcher.task_dir"
	keyLaunchUser         = "launcher.user"
	keyLaunchRegions      = "launcher.regions"
	keyLaunchLogBucket    = "launcher.log_bucket"
	keyLaunchOutputBucket = "launcher.output_bucket"
	keyLaunchNetwork      = "launcher.network"
	keyLaunchSubnetwork   = "launcher.subnetwork"

	keyStorageRPS         = "storage.requests_per_second"
	keyStorageBurst       = "storage.burst"
	keyStorageCredentials = "storage.credentials_file"
)

// envOverrides maps environment variable names to the config key they override.
var envOverrides = map[string]string{
	"ENVIRONMENT":        keyEnvironment,
	"K_SERVICE":          keyFunctionName,
	"PROJECT_ID":         keyProjectID,
	"TOPIC_DB_QUERY":     keyTopicDBQuery,
	"TRIGGER_OPERATION":  keyTriggerOperation,
	"ENABLE_JOB_LAUNCH":  keyLaunchEnabled,
	"DSUB_USER":          keyLaunchUser,
	"DSUB_REGIONS":       keyLaunchRegions,
	"DSUB_LOG_BUCKET":    keyLaunchLogBucket,
	"DSUB_OUTPUT_BUCKET": keyLaunchOutputBucket,
	"DSUB_NETWORK":       keyLaunchNetwork,
	"DSUB_SUBNETWORK":    keyLaunchSubnetwork,
}

// SettingsService resolves runtime settings from the config store and an
// explicit environment map.
type SettingsService struct {
	configStore driven.ConfigStore
	env         map[string]string
}

// NewSettingsService creates a new settings service. env holds the process
// environment captured once at startup; it may be nil.
func NewSettingsService(configStore driven.ConfigStore, env map[string]string) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		env:         env,
	}
}

// Get returns defaults overlaid with config values, then environment values.
func (s *SettingsService) Get() (domain.Settings, error) {
	defaults := domain.DefaultSettings()

	enabled, err := s.getBool(keyLaunchEnabled, defaults.Launcher.Enabled)
	if err != nil {
		return domain.Settings{}, err
	}
	rps, err := s.getFloat(keyStorageRPS, defaults.Storage.RequestsPerSecond)
	if err != nil {
		return domain.Settings{}, err
	}
	burst, err := s.getInt(keyStorageBurst, defaults.Storage.Burst)
	if err != nil {
		return domain.Settings{}, err
	}

	settings := domain.Settings{
		Environment:      domain.Environment(s.getString(keyEnvironment, defaults.Environment.String())),
		FunctionName:     s.getString(keyFunctionName, defaults.FunctionName),
		ProjectID:        s.getString(keyProjectID, defaults.ProjectID),
		TopicDBQuery:     s.getString(keyTopicDBQuery, defaults.TopicDBQuery),
		TriggerOperation: s.getString(keyTriggerOperation, defaults.TriggerOperation),
		PublishTo:        s.getStrings(keyPublishTo, defaults.PublishTo),
		DataDir:          s.getString(keyDataDir, defaults.DataDir),
		RegistryFile:     s.getString(keyRegistryFile, defaults.RegistryFile),
		TaxonomyFile:     s.getString(keyTaxonomyFile, defaults.TaxonomyFile),
		Launcher: domain.LauncherSettings{
			Enabled:      enabled,
			Binary:       s.getString(keyLaunchBinary, defaults.Launcher.Binary),
			TaskDir:      s.getString(keyLaunchTaskDir, defaults.Launcher.TaskDir),
			User:         s.getString(keyLaunchUser, defaults.Launcher.User),
			Regions:      s.getString(keyLaunchRegions, defaults.Launcher.Regions),
			LogBucket:    s.getString(keyLaunchLogBucket, defaults.Launcher.LogBucket),
			OutputBucket: s.getString(keyLaunchOutputBucket, defaults.Launcher.OutputBucket),
			Network:      s.getString(keyLaunchNetwork, defaults.Launcher.Network),
			Subnetwork:   s.getString(keyLaunchSubnetwork, defaults.Launcher.Subnetwork),
		},
		Storage: domain.StorageSettings{
			RequestsPerSecond: rps,
			Burst:             burst,
			CredentialsFile:   s.getString(keyStorageCredentials, defaults.Storage.CredentialsFile),
		},
	}

	if !settings.Environment.IsValid() {
		return domain.Settings{}, fmt.Errorf("%w: environment %q", domain.ErrInvalidInput, settings.Environment)
	}
	if settings.TopicDBQuery == "" {
		return domain.Settings{}, fmt.Errorf("%w: empty %s", domain.ErrInvalidInput, keyTopicDBQuery)
	}
	if settings.Storage.RequestsPerSecond <= 0 {
		return domain.Settings{}, fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, keyStorageRPS)
	}

	return settings, nil
}

// Set stores a single configuration value.
func (s *SettingsService) Set(key string, value any) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Helper methods for reading config with defaults. Environment values win.

// lookupEnv returns the environment value overriding key, if any.
func (s *SettingsService) lookupEnv(key string) (string, bool) {
	for name, k := range envOverrides {
		if k != key {
			continue
		}
		if v, ok := s.env[name]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if v, ok := s.lookupEnv(key); ok {
		return v
	}
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getStrings(key string, defaultVal []string) []string {
	if v, ok := s.lookupEnv(key); ok {
		return strings.Split(v, ",")
	}
	val := s.configStore.GetStringSlice(key)
	if len(val) == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) (bool, error) {
	if v, ok := s.lookupEnv(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("%w: %s=%q is not a boolean", domain.ErrInvalidInput, key, v)
		}
		return b, nil
	}
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal, nil
	}
	return s.configStore.GetBool(key), nil
}

func (s *SettingsService) getInt(key string, defaultVal int) (int, error) {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal, nil
	}
	if val < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", domain.ErrInvalidInput, key)
	}
	return val, nil
}

func (s *SettingsService) getFloat(key string, defaultVal float64) (float64, error) {
	val, ok := s.configStore.Get(key)
	if !ok {
		return defaultVal, nil
	}

	// TOML distinguishes integers (int64) from floats.
	switch v := val.(type) {
	case float64:
		return v, nil
	case int64:
		return float64(v), nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%w: %s=%v is not a number", domain.ErrInvalidInput, key, val)
	}
}
