package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.ScanTimeout)
	assert.Equal(t, 20*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 60*time.Second, cfg.TestTimeout)
}

func TestConfig_NewLogger(t *testing.T) {
	tests := []struct {
		name     string
		logLevel logrus.Level
	}{
		{
			name:     "creates logger with debug level",
			logLevel: logrus.DebugLevel,
		},
		{
			name:     "creates logger with info level",
			logLevel: logrus.InfoLevel,
		},
		{
			name:     "creates logger with warn level",
			logLevel: logrus.WarnLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				LogLevel: tt.logLevel,
			}

			logger := cfg.NewLogger()

			assert.NotNil(t, logger)
			assert.Equal(t, tt.logLevel, logger.GetLevel())

			// Verify formatter is set correctly
			formatter, ok := logger.Formatter.(*logrus.TextFormatter)
			assert.True(t, ok)
			assert.True(t, formatter.FullTimestamp)
			assert.Equal(t, time.RFC3339, formatter.TimestampFormat)
		})
	}
}

func TestDefaultHookConfig(t *testing.T) {
	cfg := DefaultHookConfig()

	assert.Equal(t, 0.0, cfg.Threshold)
	assert.Equal(t, SpiceHot, cfg.Spice)
	assert.Equal(t, HookPrePush, cfg.Hook)
	assert.NoError(t, cfg.Validate())
}

func TestHookConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     HookConfig
		wantErr string
	}{
		{
			name: "verde pre-commit is valid",
			cfg:  HookConfig{Threshold: 0.05, Spice: SpiceVerde, Hook: HookPreCommit},
		},
		{
			name: "diablo pre-push is valid",
			cfg:  HookConfig{Threshold: 0.08, Spice: SpiceDiablo, Hook: HookPrePush},
		},
		{
			name:    "unknown spice",
			cfg:     HookConfig{Spice: "mild", Hook: HookPrePush},
			wantErr: "invalid spice",
		},
		{
			name:    "unknown hook slot",
			cfg:     HookConfig{Spice: SpiceHot, Hook: "post-merge"},
			wantErr: "invalid hook",
		},
		{
			name:    "negative threshold",
			cfg:     HookConfig{Threshold: -0.01, Spice: SpiceHot, Hook: HookPrePush},
			wantErr: "invalid threshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestHookConfig_SaveAndLoad(t *testing.T) {
	repo := t.TempDir()

	saved := &HookConfig{Threshold: 0.08, Spice: SpiceDiablo, Hook: HookPreCommit}
	require.NoError(t, saved.Save(repo))

	// File lands at the repository root
	_, err := os.Stat(filepath.Join(repo, HookConfigFile))
	require.NoError(t, err)

	loaded, err := LoadHookConfig(repo)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestLoadHookConfig_MissingFileYieldsDefaults(t *testing.T) {
	loaded, err := LoadHookConfig(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, DefaultHookConfig(), loaded)
}

func TestLoadHookConfig_RejectsInvalidValues(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, HookConfigFile), []byte("spice: nuclear\n"), 0o644))

	_, err := LoadHookConfig(repo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid spice")
}

func TestLoadHookConfig_RejectsMalformedYAML(t *testing.T) {
	repo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repo, HookConfigFile), []byte("threshold: [nope"), 0o644))

	_, err := LoadHookConfig(repo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}
