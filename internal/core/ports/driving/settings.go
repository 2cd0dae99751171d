package driving

import "github.com/custodia-labs/sercha-desk/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// Set updates a single dotted key, validating the value.
	Set(key, value string) error

	// Keys returns every supported key with its effective value.
	Keys() ([]SettingEntry, error)

	// SetEmbeddingProvider configures the embedding provider.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error
}

// SettingEntry is one key of the effective configuration.
type SettingEntry struct {
	Key   string
	Value string
}
