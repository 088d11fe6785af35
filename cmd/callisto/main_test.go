package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/Artiqlate/callisto/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Server.Port = 0
	cfg.Zeroconf.Enabled = false
	cfg.Log.Level = "error"
	return cfg
}

// TestAppGraphValidity verifies that the dependency graph is resolvable.
func TestAppGraphValidity(t *testing.T) {
	assert.NoError(t, fx.ValidateApp(AppOptions(testConfig())))
}

func TestNewLogger(t *testing.T) {
	logger, loggerErr := newLogger(testConfig())
	require.NoError(t, loggerErr)
	require.NotNil(t, logger)

	cfg := testConfig()
	cfg.Log.Level = "chatty"
	_, loggerErr = newLogger(cfg)
	assert.Error(t, loggerErr)
}

func TestEndToEndStartup(t *testing.T) {
	app := fx.New(AppOptions(testConfig()))
	require.NoError(t, app.Err())

	ctx, cancel := context.WithTimeout(context.Background(), app.StartTimeout())
	defer cancel()
	require.NoError(t, app.Start(ctx))
	require.NoError(t, app.Stop(ctx))
}

func withMemFs(t *testing.T) afero.Fs {
	previous := appFs
	appFs = afero.NewMemMapFs()
	t.Cleanup(func() { appFs = previous })
	return appFs
}

func TestConfigInit(t *testing.T) {
	fs := withMemFs(t)
	rootCmd := newRootCmd()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config", "init", "--config", "/home/user/.config/callisto/config.yaml"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "wrote")

	cfg, loadErr := config.LoadConfig(fs, "/home/user/.config/callisto/config.yaml")
	require.NoError(t, loadErr)
	assert.Equal(t, config.DefaultConfig(), cfg)

	// An existing file is kept without --force
	out.Reset()
	rootCmd = newRootCmd()
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config", "init", "--config", "/home/user/.config/callisto/config.yaml"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "already exists")
}

func TestLoadConfigAppliesFlags(t *testing.T) {
	fs := withMemFs(t)
	require.NoError(t, afero.WriteFile(fs, "/callisto.yaml", []byte("server:\n  port: 9100\n"), 0o644))

	rootCmd := newRootCmd()
	require.NoError(t, rootCmd.ParseFlags([]string{"--config", "/callisto.yaml", "--secure=false", "--no-zeroconf", "--log-level", "debug"}))
	cfg, cfgErr := loadConfig(rootCmd)
	require.NoError(t, cfgErr)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.False(t, cfg.Server.Secure)
	assert.False(t, cfg.Zeroconf.Enabled)
	assert.Equal(t, "debug", cfg.Log.Level)

	rootCmd = newRootCmd()
	require.NoError(t, rootCmd.ParseFlags([]string{"--config", "/callisto.yaml", "--port", "70000"}))
	_, cfgErr = loadConfig(rootCmd)
	assert.Error(t, cfgErr)
}
