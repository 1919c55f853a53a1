package driving

import "github.com/custodia-labs/trellis/internal/core/domain"

// SettingsService resolves runtime settings.
type SettingsService interface {
	// Get returns the effective settings: defaults, then config file values,
	// then environment overrides.
	Get() (domain.Settings, error)

	// Set stores a single configuration value.
	Set(key string, value any) error
}
