package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JOURNAL_SOURCE", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, SourceYAML, cfg.Journal.Source)
	assert.Equal(t, "jurnal.yaml", cfg.Journal.YAMLPath)
	assert.Equal(t, 257.0, cfg.Journal.PageHeight)
	assert.Equal(t, time.Hour, cfg.Journal.BatchCacheTTL)
	assert.True(t, cfg.Redis.Disabled)
	assert.True(t, cfg.Features.IsEnabled(FeatureBatchCache))
	assert.False(t, cfg.Features.IsEnabled(FeatureMigrateOnStart))
}

func TestLoadDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("JOURNAL_DISABLED_SUBJECTS=PJOK, Seni Budaya\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("JOURNAL_DISABLED_SUBJECTS") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"PJOK", "Seni Budaya"}, cfg.Journal.DisabledSubjects)
}

func TestEnvironmentWinsOverDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("JOURNAL_ROW_HEIGHT=20\n"), 0o600))
	t.Setenv("JOURNAL_ROW_HEIGHT", "15")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 15.0, cfg.Journal.RowHeight)
}

func TestValidate(t *testing.T) {
	t.Setenv("JOURNAL_SOURCE", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")

	_, err := Load(filepath.Join(t.TempDir(), "none.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL is required")

	t.Setenv("JOURNAL_SOURCE", "excel")
	_, err = Load(filepath.Join(t.TempDir(), "none.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JOURNAL_SOURCE must be postgres or yaml")
}

func TestDatabaseURLFromParts(t *testing.T) {
	t.Setenv("JOURNAL_SOURCE", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "guru")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "sekolah")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.env"))
	require.NoError(t, err)
	assert.Equal(t, "postgres://guru:secret@db:5432/sekolah?sslmode=disable", cfg.Database.URL)
}

func TestFeatureFlags(t *testing.T) {
	t.Setenv("FEATURE_CACHE_SOURCE", "false")
	ff := LoadFeatureFlags()

	assert.False(t, ff.IsEnabled(FeatureSourceCache))
	assert.False(t, ff.IsEnabled("unknown"))
	require.NoError(t, ff.Set(FeatureSourceCache, true))
	assert.True(t, ff.IsEnabled(FeatureSourceCache))
	assert.ErrorIs(t, ff.Set("unknown", true), ErrFeatureNotFound)
	assert.Len(t, ff.GetAllFeatures(), 5)

	var nilFlags *FeatureFlags
	assert.False(t, nilFlags.IsEnabled(FeatureBatchCache))
}
