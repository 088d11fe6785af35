package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, loadErr := LoadConfig(afero.NewMemMapFs(), "/etc/callisto/config.yaml")
	require.NoError(t, loadErr)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultExportPrefix, cfg.MediaPlayer.ExportPrefix)
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/config.yaml", []byte(`
server:
  port: 9100
media_player:
  desktop_entry: phone
log:
  level: debug
`), 0o644))

	cfg, loadErr := LoadConfig(fs, "/config.yaml")
	require.NoError(t, loadErr)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.True(t, cfg.Server.Secure)
	assert.Equal(t, "phone", cfg.MediaPlayer.DesktopEntry)
	assert.Equal(t, DefaultExportPrefix, cfg.MediaPlayer.ExportPrefix)
	assert.Equal(t, DefaultService, cfg.Zeroconf.Service)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/broken.yaml", []byte("server: [1, 2"), 0o644))
	_, loadErr := LoadConfig(fs, "/broken.yaml")
	assert.ErrorContains(t, loadErr, "failed to parse")

	require.NoError(t, afero.WriteFile(fs, "/prefix.yaml", []byte("media_player:\n  export_prefix: \"not a name\"\n"), 0o644))
	_, loadErr = LoadConfig(fs, "/prefix.yaml")
	assert.ErrorContains(t, loadErr, "export prefix")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := DefaultConfig()
	cfg.Server.Port = 0
	cfg.Zeroconf.Enabled = false

	require.NoError(t, SaveConfig(fs, "/home/user/.config/callisto/config.yaml", cfg))
	loaded, loadErr := LoadConfig(fs, "/home/user/.config/callisto/config.yaml")
	require.NoError(t, loadErr)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Server.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.MediaPlayer.ExportPrefix = "callisto"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Zeroconf.Service = ""
	assert.Error(t, cfg.Validate())
	cfg.Zeroconf.Enabled = false
	assert.NoError(t, cfg.Validate())
}
