package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-desk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-desk/internal/core/domain"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driving"
)

// failingConfigStore fails Set for one key.
type failingConfigStore struct {
	*memory.ConfigStore
	failOn string
}

func (f *failingConfigStore) Set(key string, value any) error {
	if key == f.failOn {
		return errors.New("disk full")
	}
	return f.ConfigStore.Set(key, value)
}

// mockAIConfigValidator records the settings it was asked to validate.
type mockAIConfigValidator struct {
	embedErr error
	got      *domain.EmbeddingSettings
}

func (m *mockAIConfigValidator) ValidateEmbedding(settings *domain.EmbeddingSettings) error {
	m.got = settings
	return m.embedErr
}

func newTestSettingsService(env map[string]string) (*SettingsService, *memory.ConfigStore) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)
	service.getenv = func(k string) string { return env[k] }
	return service, store
}

func TestNewSettingsService(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore(), nil)

	require.NotNil(t, service)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding, settings.Embedding)
	assert.Equal(t, defaults.Index, settings.Index)
	assert.Equal(t, defaults.Search, settings.Search)
	assert.Empty(t, settings.Extractors.Disabled)
	assert.False(t, settings.Schedule.Enabled())
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	service, store := newTestSettingsService(nil)
	_ = store.Set("embedding.provider", "ollama")
	_ = store.Set("embedding.model", "all-minilm")
	_ = store.Set("index.batch_size", 10)
	_ = store.Set("index.interval", "1h")
	_ = store.Set("search.alpha", 0.5)
	_ = store.Set("search.include_lexical_only", false)
	_ = store.Set("extractors.disabled", []string{"PDF", ".xlsx"})

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "all-minilm", settings.Embedding.Model)
	assert.Equal(t, 10, settings.Index.BatchSize)
	assert.Equal(t, time.Hour, settings.Schedule.Interval)
	assert.InDelta(t, 0.5, settings.Search.Alpha, 1e-9)
	assert.False(t, settings.Search.IncludeLexicalOnly)
	assert.Equal(t, []string{".pdf", ".xlsx"}, settings.Extractors.Disabled)
}

func TestSettingsService_Get_ProviderDefaultModel(t *testing.T) {
	service, store := newTestSettingsService(nil)
	_ = store.Set("embedding.provider", "ollama")

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
}

func TestSettingsService_Get_ZeroOverridesDefault(t *testing.T) {
	service, store := newTestSettingsService(nil)
	_ = store.Set("search.min_semantic", 0.0)
	_ = store.Set("embedding.cache_size", 0)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Zero(t, settings.Search.MinSemantic)
	assert.Zero(t, settings.Embedding.CacheSize)
}

func TestSettingsService_Get_InvalidProviderReturnsDefault(t *testing.T) {
	service, store := newTestSettingsService(nil)
	_ = store.Set("embedding.provider", "anthropic")

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderLocal, settings.Embedding.Provider)
}

func TestSettingsService_Get_OpenAIKeyFromEnvironment(t *testing.T) {
	service, store := newTestSettingsService(map[string]string{"OPENAI_API_KEY": "sk-env"})
	_ = store.Set("embedding.provider", "openai")

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, "sk-env", settings.Embedding.APIKey)
	assert.True(t, settings.Embedding.IsConfigured())
}

func TestSettingsService_Get_ConfiguredKeyWinsOverEnvironment(t *testing.T) {
	service, store := newTestSettingsService(map[string]string{"OPENAI_API_KEY": "sk-env"})
	_ = store.Set("embedding.provider", "openai")
	_ = store.Set("embedding.api_key", "sk-file")

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, "sk-file", settings.Embedding.APIKey)
}

func TestSettingsService_Save_RoundTrip(t *testing.T) {
	service, _ := newTestSettingsService(nil)
	settings := domain.DefaultAppSettings()
	settings.Embedding.Provider = domain.AIProviderOpenAI
	settings.Embedding.Model = "text-embedding-3-large"
	settings.Embedding.APIKey = "sk-test"
	settings.Index.ArchiveDepth = 3
	settings.Search.Beta = 0.5
	settings.Schedule.Interval = 30 * time.Minute
	settings.Extractors.Disabled = []string{".pdf"}

	require.NoError(t, service.Save(&settings))
	got, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, settings, *got)
}

func TestSettingsService_Save_DoesNotPersistEnvironmentKey(t *testing.T) {
	service, store := newTestSettingsService(map[string]string{"OPENAI_API_KEY": "sk-env"})
	_ = store.Set("embedding.provider", "openai")
	settings, err := service.Get()
	require.NoError(t, err)

	require.NoError(t, service.Save(settings))

	_, exists := store.Get("embedding.api_key")
	assert.False(t, exists)
}

func TestSettingsService_Save_Error(t *testing.T) {
	store := &failingConfigStore{ConfigStore: memory.NewConfigStore(), failOn: "search.alpha"}
	service := NewSettingsService(store, nil)
	settings := domain.DefaultAppSettings()

	err := service.Save(&settings)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "search.alpha")
}

func TestSettingsService_Set(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  any
	}{
		{"embedding.provider", "Ollama", "ollama"},
		{"embedding.model", " all-minilm ", "all-minilm"},
		{"embedding.cache_size", "0", 0},
		{"embedding.cache_ttl", "90s", "1m30s"},
		{"embedding.serialize", "true", true},
		{"embedding.rate_limit", "2.5", 2.5},
		{"index.batch_size", "25", 25},
		{"index.archive_depth", "0", 0},
		{"index.interval", "2h", "2h0m0s"},
		{"extractors.disabled", "pdf, .XLSX,,pdf", []string{".pdf", ".xlsx"}},
		{"search.alpha", "0.7", 0.7},
		{"search.include_lexical_only", "false", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			service, store := newTestSettingsService(nil)

			require.NoError(t, service.Set(tt.key, tt.value))

			got, ok := store.Get(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSettingsService_Set_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown key", "search.mode", "hybrid"},
		{"unknown provider", "embedding.provider", "anthropic"},
		{"not an integer", "index.batch_size", "many"},
		{"zero batch", "index.batch_size", "0"},
		{"negative depth", "index.archive_depth", "-1"},
		{"not a number", "search.alpha", "high"},
		{"negative weight", "search.beta", "-0.1"},
		{"not a boolean", "embedding.serialize", "maybe"},
		{"not a duration", "index.interval", "hourly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, store := newTestSettingsService(nil)

			err := service.Set(tt.key, tt.value)

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			_, exists := store.Get(tt.key)
			assert.False(t, exists)
		})
	}
}

func TestSettingsService_Set_AffectsGet(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	require.NoError(t, service.Set("search.max_results", "10"))
	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, 10, settings.Search.MaxResults)
}

func TestSettingsService_Keys(t *testing.T) {
	service, store := newTestSettingsService(nil)
	_ = store.Set("embedding.api_key", "sk-abcdef123456")
	_ = store.Set("extractors.disabled", []string{".pdf", ".pptx"})

	entries, err := service.Keys()

	require.NoError(t, err)
	require.Len(t, entries, len(settingKinds))
	assert.Equal(t, driving.SettingEntry{Key: "embedding.provider", Value: "local"}, entries[0])

	values := make(map[string]string, len(entries))
	for _, e := range entries {
		values[e.Key] = e.Value
	}
	assert.Equal(t, "****3456", values["embedding.api_key"])
	assert.Equal(t, "0.65", values["search.alpha"])
	assert.Equal(t, "50", values["search.max_results"])
	assert.Equal(t, "true", values["search.include_lexical_only"])
	assert.Equal(t, "30m0s", values["embedding.cache_ttl"])
	assert.Equal(t, "0s", values["index.interval"])
	assert.Equal(t, ".pdf,.pptx", values["extractors.disabled"])
}

func TestSettingsService_SetEmbeddingProvider_Ollama(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
	assert.Equal(t, 768, settings.Embedding.Dimensions)
}

func TestSettingsService_SetEmbeddingProvider_PreservesExistingBaseURL(t *testing.T) {
	service, store := newTestSettingsService(nil)
	_ = store.Set("embedding.base_url", "http://gpu-box:11434")

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOllama, "all-minilm", ""))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", settings.Embedding.BaseURL)
	assert.Equal(t, 384, settings.Embedding.Dimensions)
}

func TestSettingsService_SetEmbeddingProvider_OpenAI(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "sk-test"))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
	assert.Equal(t, "sk-test", settings.Embedding.APIKey)
	assert.Empty(t, settings.Embedding.BaseURL)
	assert.Equal(t, 1536, settings.Embedding.Dimensions)
}

func TestSettingsService_SetEmbeddingProvider_RequiresAPIKey(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	err := service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key required")
}

func TestSettingsService_SetEmbeddingProvider_APIKeyFromEnvironment(t *testing.T) {
	service, _ := newTestSettingsService(map[string]string{"OPENAI_API_KEY": "sk-env"})

	require.NoError(t, service.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))

	settings, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "sk-env", settings.Embedding.APIKey)
}

func TestSettingsService_SetEmbeddingProvider_Invalid(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	err := service.SetEmbeddingProvider(domain.AIProvider("anthropic"), "", "")

	assert.Error(t, err)
}

func TestSettingsService_GetDefaults(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	assert.Equal(t, domain.DefaultAppSettings(), service.GetDefaults())
}

func TestSettingsService_ValidateEmbeddingConfig_NilValidator(t *testing.T) {
	service, _ := newTestSettingsService(nil)

	assert.NoError(t, service.ValidateEmbeddingConfig())
}

func TestSettingsService_ValidateEmbeddingConfig_PassesCurrentSettings(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("embedding.provider", "ollama")
	validator := &mockAIConfigValidator{}
	service := NewSettingsService(store, validator)

	require.NoError(t, service.ValidateEmbeddingConfig())

	require.NotNil(t, validator.got)
	assert.Equal(t, domain.AIProviderOllama, validator.got.Provider)
}

func TestSettingsService_ValidateEmbeddingConfig_Error(t *testing.T) {
	validator := &mockAIConfigValidator{embedErr: assert.AnError}
	service := NewSettingsService(memory.NewConfigStore(), validator)

	assert.ErrorIs(t, service.ValidateEmbeddingConfig(), assert.AnError)
}

func TestNormaliseExtensions(t *testing.T) {
	assert.Equal(t, []string{".md", ".pdf"}, normaliseExtensions([]string{" PDF", ".md", "", "pdf"}))
	assert.Empty(t, normaliseExtensions(nil))
}
