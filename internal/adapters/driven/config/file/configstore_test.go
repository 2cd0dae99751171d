package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cfg")

	_, err := NewConfigStore(dir)

	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestConfigStore_SetPersistsNested(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("search.alpha", 0.7))
	require.NoError(t, store.Set("embedding.provider", "ollama"))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[search]")
	assert.Contains(t, string(raw), "[embedding]")

	reloaded, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 0.7, reloaded.GetFloat("search.alpha"))
	assert.Equal(t, "ollama", reloaded.GetString("embedding.provider"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("embedding.api_key", "sk-secret"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_LoadHandWrittenTOML(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[index]
batch_size = 25
min_content_length = 30

[search]
alpha = 0.5
include_lexical_only = false

[embedding]
cache_ttl = "10m"

[extractors]
disabled = [".pdf", ".pptx"]
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 25, store.GetInt("index.batch_size"))
	assert.Equal(t, 30, store.GetInt("index.min_content_length"))
	assert.Equal(t, 0.5, store.GetFloat("search.alpha"))
	assert.False(t, store.GetBool("search.include_lexical_only"))
	_, exists := store.Get("search.include_lexical_only")
	assert.True(t, exists)
	assert.Equal(t, 10*time.Minute, store.GetDuration("embedding.cache_ttl"))
	assert.Equal(t, []string{".pdf", ".pptx"}, store.GetStringSlice("extractors.disabled"))
}

func TestConfigStore_InvalidTOML(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not = [valid"), 0600))

	_, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
}

func TestConfigStore_EnvOverride(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("embedding.provider", "local"))

	t.Setenv("SERCHA_DESK_EMBEDDING_PROVIDER", "ollama")
	t.Setenv("SERCHA_DESK_SEARCH_ALPHA", "0.8")
	t.Setenv("SERCHA_DESK_INDEX_BATCH_SIZE", "10")
	t.Setenv("SERCHA_DESK_SEARCH_INCLUDE_LEXICAL_ONLY", "true")
	t.Setenv("SERCHA_DESK_EXTRACTORS_DISABLED", ".pdf, .xlsx")

	assert.Equal(t, "ollama", store.GetString("embedding.provider"))
	assert.Equal(t, 0.8, store.GetFloat("search.alpha"))
	assert.Equal(t, 10, store.GetInt("index.batch_size"))
	assert.True(t, store.GetBool("search.include_lexical_only"))
	assert.Equal(t, []string{".pdf", ".xlsx"}, store.GetStringSlice("extractors.disabled"))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "ollama")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "SERCHA_DESK_SEARCH_ALPHA", EnvKey("search.alpha"))
	assert.Equal(t, "SERCHA_DESK_EMBEDDING_API_KEY", EnvKey("embedding.api_key"))
}

func TestConfigStore_TypeMismatch(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("k", true))

	assert.Equal(t, "", store.GetString("k"))
	assert.Equal(t, 0, store.GetInt("k"))
	assert.Equal(t, 0.0, store.GetFloat("k"))
	assert.Zero(t, store.GetDuration("k"))
	assert.Nil(t, store.GetStringSlice("k"))
}

func TestFlattenMap(t *testing.T) {
	nested := map[string]any{
		"a": map[string]any{"b": 1, "c": map[string]any{"d": "x"}},
		"e": true,
	}

	flat := flattenMap(nested, "")

	assert.Equal(t, map[string]any{"a.b": 1, "a.c.d": "x", "e": true}, flat)
	assert.Equal(t, nested, unflattenMap(flat))
}
