package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Locale    string `json:"locale"`
	SessionDB string `json:"session_db"`
}

func TestReadConfigMergesLocalOverrides(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "bridge.json5")

	// json5: trailing commas and comments are allowed
	require.NoError(t, os.WriteFile(base, []byte(`{
		// defaults checked into the repo
		locale: "en-US",
		session_db: "session.db",
	}`), 0666))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bridge.local.json5"), []byte(`{
		session_db: "/tmp/override.db",
	}`), 0666))

	cfg, err := ReadConfig[testConfig](base)
	require.NoError(t, err)
	require.Equal(t, "en-US", cfg.Locale)
	require.Equal(t, "/tmp/override.db", cfg.SessionDB)
}

func TestReadConfigLocalOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bridge.local.json5"), []byte(`{locale: "ja-JP"}`), 0666))

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "bridge.json5"))
	require.NoError(t, err)
	require.Equal(t, "ja-JP", cfg.Locale)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "bridge.json5"))
	require.True(t, os.IsNotExist(err))
}
