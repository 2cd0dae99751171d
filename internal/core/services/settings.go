package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-desk/internal/core/domain"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-desk/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedDimensions = "embedding.dimensions"
	keyEmbedCacheSize  = "embedding.cache_size"
	keyEmbedCacheTTL   = "embedding.cache_ttl"
	keyEmbedSerialize  = "embedding.serialize"
	keyEmbedRateLimit  = "embedding.rate_limit"

	keyIndexMinContent   = "index.min_content_length"
	keyIndexEmbedMax     = "index.embed_max_chars"
	keyIndexBatchSize    = "index.batch_size"
	keyIndexArchiveDepth = "index.archive_depth"
	keyIndexInterval     = "index.interval"

	keyExtractorsDisabled = "extractors.disabled"

	keySearchAlpha         = "search.alpha"
	keySearchBeta          = "search.beta"
	keySearchMinSemantic   = "search.min_semantic"
	keySearchBonusSemantic = "search.bonus_semantic"
	keySearchBonusLexical  = "search.bonus_lexical"
	keySearchBonus         = "search.bonus"
	keySearchMaxResults    = "search.max_results"
	keySearchLexicalLimit  = "search.lexical_limit"
	keySearchContentPrefix = "search.content_prefix"
	keySearchLexicalOnly   = "search.include_lexical_only"
	keySearchSnippetTokens = "search.snippet_tokens"

	// envOpenAIKey is read when no API key is configured.
	envOpenAIKey = "OPENAI_API_KEY"

	defaultOllamaURL = "http://localhost:11434"
)

type settingKind int

const (
	kindString settingKind = iota
	kindProvider
	kindInt
	kindPositiveInt
	kindFloat
	kindBool
	kindDuration
	kindExtensions
)

// settingKinds lists every supported key in display order.
var settingKinds = []struct {
	key  string
	kind settingKind
}{
	{keyEmbedProvider, kindProvider},
	{keyEmbedModel, kindString},
	{keyEmbedBaseURL, kindString},
	{keyEmbedAPIKey, kindString},
	{keyEmbedDimensions, kindPositiveInt},
	{keyEmbedCacheSize, kindInt},
	{keyEmbedCacheTTL, kindDuration},
	{keyEmbedSerialize, kindBool},
	{keyEmbedRateLimit, kindFloat},
	{keyIndexMinContent, kindInt},
	{keyIndexEmbedMax, kindPositiveInt},
	{keyIndexBatchSize, kindPositiveInt},
	{keyIndexArchiveDepth, kindInt},
	{keyIndexInterval, kindDuration},
	{keyExtractorsDisabled, kindExtensions},
	{keySearchAlpha, kindFloat},
	{keySearchBeta, kindFloat},
	{keySearchMinSemantic, kindFloat},
	{keySearchBonusSemantic, kindFloat},
	{keySearchBonusLexical, kindFloat},
	{keySearchBonus, kindFloat},
	{keySearchMaxResults, kindPositiveInt},
	{keySearchLexicalLimit, kindPositiveInt},
	{keySearchContentPrefix, kindPositiveInt},
	{keySearchLexicalOnly, kindBool},
	{keySearchSnippetTokens, kindPositiveInt},
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		getenv:      os.Getenv,
	}
}

// Get retrieves current application settings. Missing or invalid values
// fall back to the defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	provider := s.getProvider(keyEmbedProvider, d.Embedding.Provider)
	model := s.configStore.GetString(keyEmbedModel)
	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   provider,
			Model:      model,
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // empty means the provider default
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.getInt(keyEmbedDimensions, d.Embedding.Dimensions),
			CacheSize:  s.getInt(keyEmbedCacheSize, d.Embedding.CacheSize),
			CacheTTL:   s.getDuration(keyEmbedCacheTTL, d.Embedding.CacheTTL),
			Serialize:  s.getBool(keyEmbedSerialize, d.Embedding.Serialize),
			RateLimit:  s.getFloat(keyEmbedRateLimit, d.Embedding.RateLimit),
		},
		Index: domain.IndexSettings{
			MinContentLength: s.getInt(keyIndexMinContent, d.Index.MinContentLength),
			EmbedMaxChars:    s.getInt(keyIndexEmbedMax, d.Index.EmbedMaxChars),
			BatchSize:        s.getInt(keyIndexBatchSize, d.Index.BatchSize),
			ArchiveDepth:     s.getInt(keyIndexArchiveDepth, d.Index.ArchiveDepth),
		},
		Search: domain.FusionSettings{
			Alpha:              s.getFloat(keySearchAlpha, d.Search.Alpha),
			Beta:               s.getFloat(keySearchBeta, d.Search.Beta),
			MinSemantic:        s.getFloat(keySearchMinSemantic, d.Search.MinSemantic),
			BonusSemantic:      s.getFloat(keySearchBonusSemantic, d.Search.BonusSemantic),
			BonusLexical:       s.getFloat(keySearchBonusLexical, d.Search.BonusLexical),
			Bonus:              s.getFloat(keySearchBonus, d.Search.Bonus),
			MaxResults:         s.getInt(keySearchMaxResults, d.Search.MaxResults),
			LexicalLimit:       s.getInt(keySearchLexicalLimit, d.Search.LexicalLimit),
			ContentPrefix:      s.getInt(keySearchContentPrefix, d.Search.ContentPrefix),
			SnippetTokens:      s.getInt(keySearchSnippetTokens, d.Search.SnippetTokens),
			IncludeLexicalOnly: s.getBool(keySearchLexicalOnly, d.Search.IncludeLexicalOnly),
		},
		Extractors: domain.ExtractorSettings{
			Disabled: normaliseExtensions(s.configStore.GetStringSlice(keyExtractorsDisabled)),
		},
		Schedule: domain.ScheduleSettings{
			Interval: s.getDuration(keyIndexInterval, d.Schedule.Interval),
		},
	}

	if settings.Embedding.APIKey == "" && settings.Embedding.Provider == domain.AIProviderOpenAI {
		settings.Embedding.APIKey = s.getenv(envOpenAIKey)
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDimensions, settings.Embedding.Dimensions},
		{keyEmbedCacheSize, settings.Embedding.CacheSize},
		{keyEmbedCacheTTL, settings.Embedding.CacheTTL.String()},
		{keyEmbedSerialize, settings.Embedding.Serialize},
		{keyEmbedRateLimit, settings.Embedding.RateLimit},
		{keyIndexMinContent, settings.Index.MinContentLength},
		{keyIndexEmbedMax, settings.Index.EmbedMaxChars},
		{keyIndexBatchSize, settings.Index.BatchSize},
		{keyIndexArchiveDepth, settings.Index.ArchiveDepth},
		{keyIndexInterval, settings.Schedule.Interval.String()},
		{keyExtractorsDisabled, normaliseExtensions(settings.Extractors.Disabled)},
		{keySearchAlpha, settings.Search.Alpha},
		{keySearchBeta, settings.Search.Beta},
		{keySearchMinSemantic, settings.Search.MinSemantic},
		{keySearchBonusSemantic, settings.Search.BonusSemantic},
		{keySearchBonusLexical, settings.Search.BonusLexical},
		{keySearchBonus, settings.Search.Bonus},
		{keySearchMaxResults, settings.Search.MaxResults},
		{keySearchLexicalLimit, settings.Search.LexicalLimit},
		{keySearchContentPrefix, settings.Search.ContentPrefix},
		{keySearchLexicalOnly, settings.Search.IncludeLexicalOnly},
		{keySearchSnippetTokens, settings.Search.SnippetTokens},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// The environment fallback is never written back.
	if settings.Embedding.APIKey != "" && settings.Embedding.APIKey != s.getenv(envOpenAIKey) {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}

	return nil
}

// Set validates and persists a single key. Values are given as text, the
// way they arrive from the command line.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := lookupKind(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseSetting(kind, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every supported key with its effective value. API keys are masked.
func (s *SettingsService) Keys() ([]driving.SettingEntry, error) {
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}

	e, ix, sr := settings.Embedding, settings.Index, settings.Search
	values := map[string]string{
		keyEmbedProvider:       e.Provider.String(),
		keyEmbedModel:          e.Model,
		keyEmbedBaseURL:        e.BaseURL,
		keyEmbedAPIKey:         maskSecret(e.APIKey),
		keyEmbedDimensions:     strconv.Itoa(e.Dimensions),
		keyEmbedCacheSize:      strconv.Itoa(e.CacheSize),
		keyEmbedCacheTTL:       e.CacheTTL.String(),
		keyEmbedSerialize:      strconv.FormatBool(e.Serialize),
		keyEmbedRateLimit:      formatFloat(e.RateLimit),
		keyIndexMinContent:     strconv.Itoa(ix.MinContentLength),
		keyIndexEmbedMax:       strconv.Itoa(ix.EmbedMaxChars),
		keyIndexBatchSize:      strconv.Itoa(ix.BatchSize),
		keyIndexArchiveDepth:   strconv.Itoa(ix.ArchiveDepth),
		keyIndexInterval:       settings.Schedule.Interval.String(),
		keyExtractorsDisabled:  strings.Join(settings.Extractors.Disabled, ","),
		keySearchAlpha:         formatFloat(sr.Alpha),
		keySearchBeta:          formatFloat(sr.Beta),
		keySearchMinSemantic:   formatFloat(sr.MinSemantic),
		keySearchBonusSemantic: formatFloat(sr.BonusSemantic),
		keySearchBonusLexical:  formatFloat(sr.BonusLexical),
		keySearchBonus:         formatFloat(sr.Bonus),
		keySearchMaxResults:    strconv.Itoa(sr.MaxResults),
		keySearchLexicalLimit:  strconv.Itoa(sr.LexicalLimit),
		keySearchContentPrefix: strconv.Itoa(sr.ContentPrefix),
		keySearchLexicalOnly:   strconv.FormatBool(sr.IncludeLexicalOnly),
		keySearchSnippetTokens: strconv.Itoa(sr.SnippetTokens),
	}

	entries := make([]driving.SettingEntry, 0, len(settingKinds))
	for _, sk := range settingKinds {
		entries = append(entries, driving.SettingEntry{Key: sk.key, Value: values[sk.key]})
	}
	return entries, nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if apiKey == "" && provider.RequiresAPIKey() {
		apiKey = s.getenv(envOpenAIKey)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings.Embedding.Provider = provider

	// Set model - use provided or default
	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	switch provider {
	case domain.AIProviderOllama:
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaURL
		}
	default:
		settings.Embedding.BaseURL = ""
	}

	settings.Embedding.APIKey = apiKey

	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.Embedding.Dimensions = d
	}

	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// Helper methods for reading config with defaults. A key that is present
// overrides the default even when its value is zero.

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetDuration(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func lookupKind(key string) (settingKind, bool) {
	for _, sk := range settingKinds {
		if sk.key == key {
			return sk.kind, true
		}
	}
	return 0, false
}

// parseSetting converts text into the value stored for a key kind.
func parseSetting(kind settingKind, value string) (any, error) {
	switch kind {
	case kindProvider:
		p := domain.AIProvider(strings.ToLower(value))
		if !p.IsValid() {
			return nil, fmt.Errorf("unknown provider %q", value)
		}
		return p.String(), nil
	case kindInt, kindPositiveInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", value)
		}
		if n < 0 || (kind == kindPositiveInt && n == 0) {
			return nil, fmt.Errorf("out of range: %d", n)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", value)
		}
		if f < 0 {
			return nil, fmt.Errorf("out of range: %v", f)
		}
		return f, nil
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("not a boolean: %q", value)
		}
		return b, nil
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("not a duration: %q", value)
		}
		if d < 0 {
			return nil, fmt.Errorf("out of range: %s", d)
		}
		return d.String(), nil
	case kindExtensions:
		return normaliseExtensions(strings.Split(value, ",")), nil
	default:
		return value, nil
	}
}

// normaliseExtensions lower-cases, dot-prefixes, dedupes and sorts extensions.
func normaliseExtensions(exts []string) []string {
	seen := make(map[string]bool, len(exts))
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !seen[ext] {
			seen[ext] = true
			out = append(out, ext)
		}
	}
	sort.Strings(out)
	return out
}

func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
