package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekaihub/apphashd/util"
)

func TestReadConfigCreatesDefault(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")

	config, err := ReadConfig(configPath)
	require.NoError(t, err)

	assert.True(t, util.FileExists(configPath))
	assert.Equal(t, 5*time.Minute, config.UpdateInterval())
	assert.Equal(t, DefaultQooAppURLTemplate, config.QooAppURLTemplate)
	assert.Equal(t, "com.sega.pjsekai", config.PackageNames["JP"])
	assert.Equal(t, "223265", config.TapTapAppIDs["CN"])
	assert.False(t, config.Disabled)
}

func TestReadConfigKeepsExistingValues(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")

	existing := &Config{
		CacheDir:              "/var/lib/apphashd",
		UpdateIntervalMinutes: 10,
		ProxyURL:              "http://127.0.0.1:8080",
	}
	require.NoError(t, util.WriteJson(configPath, existing))

	config, err := ReadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/apphashd", config.CacheDir)
	assert.Equal(t, 10*time.Minute, config.UpdateInterval())
	assert.Equal(t, "http://127.0.0.1:8080", config.ProxyURL)
	// missing fields are filled with defaults and written back
	assert.Equal(t, DefaultCNApkURL, config.CNApkURL)

	reread := &Config{}
	require.NoError(t, util.ReadJson(configPath, reread))
	assert.Equal(t, DefaultCNApkURL, reread.CNApkURL)
}

func TestIntervalFallback(t *testing.T) {
	config := &Config{UpdateIntervalMinutes: -1}
	assert.Equal(t, 5*time.Minute, config.UpdateInterval())
	assert.Equal(t, 15*time.Minute, config.DownloadTimeout())
}
