package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mcuadros/go-defaults"
	"gopkg.in/yaml.v3"
)

// HookConfigFile is the per-repository hook configuration file name
const HookConfigFile = ".bacstop"

// Spice levels control how hard a failed check bites
const (
	SpiceVerde  = "verde"  // informational only, always allows
	SpiceHot    = "hot"    // blocks when BAC is below threshold
	SpiceDiablo = "diablo" // blocks AND resets the working tree
)

// Hook slots a BACstop hook may be installed into
const (
	HookPreCommit = "pre-commit"
	HookPrePush   = "pre-push"
)

// ValidSpices lists the accepted spice levels
var ValidSpices = []string{SpiceVerde, SpiceHot, SpiceDiablo}

// ValidHooks lists the accepted git hook slots
var ValidHooks = []string{HookPreCommit, HookPrePush}

// HookConfig is the persisted .bacstop configuration of a repository
type HookConfig struct {
	Threshold float64 `yaml:"threshold" default:"0.0"`
	Spice     string  `yaml:"spice" default:"hot"`
	Hook      string  `yaml:"hook" default:"pre-push"`
}

// DefaultHookConfig returns a hook config populated with defaults
func DefaultHookConfig() *HookConfig {
	cfg := &HookConfig{}
	defaults.SetDefaults(cfg)
	return cfg
}

// Validate checks spice and hook values against the accepted sets
func (c *HookConfig) Validate() error {
	if !contains(ValidSpices, c.Spice) {
		return fmt.Errorf("invalid spice: %s (must be one of: %s)", c.Spice, strings.Join(ValidSpices, ", "))
	}
	if !contains(ValidHooks, c.Hook) {
		return fmt.Errorf("invalid hook: %s (must be one of: %s)", c.Hook, strings.Join(ValidHooks, ", "))
	}
	if c.Threshold < 0 {
		return fmt.Errorf("invalid threshold: %.4f (must not be negative)", c.Threshold)
	}
	return nil
}

// LoadHookConfig reads the .bacstop file from the given repository root.
// A missing file yields the defaults, not an error.
func LoadHookConfig(repoPath string) (*HookConfig, error) {
	cfg := DefaultHookConfig()

	data, err := os.ReadFile(filepath.Join(repoPath, HookConfigFile))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", HookConfigFile, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", HookConfigFile, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the hook config to the repository root
func (c *HookConfig) Save(repoPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal hook config: %w", err)
	}

	path := filepath.Join(repoPath, HookConfigFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
