package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vcf-converter/backend/internal/config"
	"github.com/vcf-converter/backend/internal/converter"
	"github.com/vcf-converter/backend/internal/session"
	"github.com/vcf-converter/backend/internal/storage"
	"go.uber.org/zap"
)

func TestLoadRegistry(t *testing.T) {
	dir := t.TempDir()
	profiles := filepath.Join(dir, "profiles.yaml")
	require.NoError(t, os.WriteFile(profiles, []byte(`profiles:
  - name: Dashes
    strip: ["-", " "]
`), 0644))

	cfg := config.DefaultConfig()
	cfg.Conversion.ProfilesFile = profiles
	cfg.Conversion.DefaultProfile = "dashes"

	registry, err := loadRegistry(cfg, zap.NewNop())
	require.NoError(t, err)

	conv, err := registry.Get("")
	require.NoError(t, err)
	assert.Equal(t, "Dashes", conv.Name())
	assert.Equal(t, []string{"0812345"}, conv.FilterLines("0812-345\n"))
}

func TestLoadRegistryMissingFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Conversion.ProfilesFile = filepath.Join(t.TempDir(), "none.yaml")
	cfg.Conversion.DefaultProfile = "unknown"

	registry, err := loadRegistry(cfg, zap.NewNop())
	require.NoError(t, err)

	conv, err := registry.Get("")
	require.NoError(t, err)
	assert.Equal(t, converter.DefaultProfileName, conv.Name())
}

func TestLoadRegistryInvalidPattern(t *testing.T) {
	profiles := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(profiles, []byte("profiles:\n  - name: bad\n    pattern: \"([\"\n"), 0644))

	cfg := config.DefaultConfig()
	cfg.Conversion.ProfilesFile = profiles

	_, err := loadRegistry(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestExampleLoaderFallsBackToEmbedded(t *testing.T) {
	data, err := exampleLoader(filepath.Join(t.TempDir(), "missing.txt"))()
	require.NoError(t, err)
	assert.Contains(t, string(data), "AAA")

	path := filepath.Join(t.TempDir(), "example.txt")
	require.NoError(t, os.WriteFile(path, []byte("local"), 0644))
	data, err = exampleLoader(path)()
	require.NoError(t, err)
	assert.Equal(t, "local", string(data))
}

func TestReleaseSourceDeletesUploads(t *testing.T) {
	uploads := t.TempDir()
	store, err := storage.NewLocalStore(uploads)
	require.NoError(t, err)

	batches := session.NewManager(nil, zap.NewNop())
	batches.SetReleaseFunc(releaseSource(store, zap.NewNop()))

	b := batches.Create("c")
	info, err := store.SaveBytes("a.txt", []byte("0812\n"))
	require.NoError(t, err)
	_, err = batches.Convert(b.ID, "a.txt", "0812\n", session.ConvertOptions{SourceID: info.ID})
	require.NoError(t, err)

	entries, err := os.ReadDir(uploads)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	batches.Remove(b.ID)

	entries, err = os.ReadDir(uploads)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// An id the store no longer knows is ignored.
	releaseSource(store, zap.NewNop())(info.ID)
}
