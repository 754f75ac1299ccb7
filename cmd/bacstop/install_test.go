package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/srg/bacstop/pkg/config"
)

// InstallTestSuite provides testify/suite for proper test isolation
type InstallTestSuite struct {
	suite.Suite
}

// SetupTest runs before each test in the suite
func (suite *InstallTestSuite) SetupTest() {
	installRepo = "."
	installThreshold = 0.0
	installSpice = config.SpiceHot
	installHook = config.HookPrePush
	uninstallRepo = "."
}

// makeRepo creates a temp directory that looks like a git repo root
func (suite *InstallTestSuite) makeRepo() string {
	repo := suite.T().TempDir()
	suite.Require().NoError(os.MkdirAll(filepath.Join(repo, ".git", "hooks"), 0o755))
	return repo
}

func (suite *InstallTestSuite) TestInstallHookScript_WritesExecutableHook() {
	repo := suite.makeRepo()
	var out bytes.Buffer

	cfg := config.HookConfig{Threshold: 0.05, Spice: config.SpiceHot, Hook: config.HookPrePush}
	dest, err := installHookScript(repo, cfg, &out)
	suite.Require().NoError(err)
	suite.Assert().Equal(filepath.Join(repo, ".git", "hooks", "pre-push"), dest)

	content, err := os.ReadFile(dest)
	suite.Require().NoError(err)
	suite.Assert().Contains(string(content), hookMarker)
	suite.Assert().Contains(string(content), "bacstop check --threshold 0.05")

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(dest)
		suite.Require().NoError(err)
		suite.Assert().NotZero(fi.Mode() & 0o100)
	}
}

func (suite *InstallTestSuite) TestInstallHookScript_NotAGitRepo() {
	repo := suite.T().TempDir()
	var out bytes.Buffer

	_, err := installHookScript(repo, *config.DefaultHookConfig(), &out)
	suite.Require().Error(err)
	suite.Assert().Contains(err.Error(), "not a git repo")
}

func (suite *InstallTestSuite) TestInstallHookScript_RemovesStaleHookInOtherSlot() {
	// TEST SCENARIO: A BACstop pre-commit hook is already installed. Installing
	// into pre-push must remove it so only one slot fires, while a foreign
	// pre-commit hook must be left alone.
	repo := suite.makeRepo()
	stale := filepath.Join(repo, ".git", "hooks", "pre-commit")
	suite.Require().NoError(os.WriteFile(stale, []byte("#!/bin/sh\n# BACstop sobriety gate\n"), 0o755))

	var out bytes.Buffer
	cfg := config.HookConfig{Threshold: 0, Spice: config.SpiceHot, Hook: config.HookPrePush}
	_, err := installHookScript(repo, cfg, &out)
	suite.Require().NoError(err)

	_, err = os.Stat(stale)
	suite.Assert().True(os.IsNotExist(err), "stale BACstop hook should be removed")
	suite.Assert().Contains(out.String(), "Removed old BACstop pre-commit hook.")
}

func (suite *InstallTestSuite) TestInstallHookScript_LeavesForeignHookAlone() {
	repo := suite.makeRepo()
	foreign := filepath.Join(repo, ".git", "hooks", "pre-commit")
	suite.Require().NoError(os.WriteFile(foreign, []byte("#!/bin/sh\nmake lint\n"), 0o755))

	var out bytes.Buffer
	cfg := config.HookConfig{Threshold: 0, Spice: config.SpiceHot, Hook: config.HookPrePush}
	_, err := installHookScript(repo, cfg, &out)
	suite.Require().NoError(err)

	content, err := os.ReadFile(foreign)
	suite.Require().NoError(err)
	suite.Assert().Equal("#!/bin/sh\nmake lint\n", string(content))
}

func (suite *InstallTestSuite) TestRenderHookScript_SpiceLevels() {
	tests := []struct {
		name        string
		spice       string
		contains    []string
		notContains []string
	}{
		{
			name:        "verde always allows",
			spice:       config.SpiceVerde,
			contains:    []string{"I'll allow it"},
			notContains: []string{"git reset --hard"},
		},
		{
			name:        "hot blocks below threshold",
			spice:       config.SpiceHot,
			contains:    []string{"too sober to ship", "exit 1"},
			notContains: []string{"git reset --hard"},
		},
		{
			name:     "diablo resets the working tree",
			spice:    config.SpiceDiablo,
			contains: []string{"git reset --hard", "exit 1"},
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			script := renderHookScript(config.HookConfig{Threshold: 0.08, Spice: tt.spice, Hook: config.HookPrePush})

			suite.Assert().Contains(script, "#!/bin/sh")
			suite.Assert().Contains(script, hookMarker)
			// Device errors never block, regardless of spice
			suite.Assert().Contains(script, "letting you through")
			for _, want := range tt.contains {
				suite.Assert().Contains(script, want)
			}
			for _, unwanted := range tt.notContains {
				suite.Assert().NotContains(script, unwanted)
			}
		})
	}
}

func (suite *InstallTestSuite) TestRunInstall_WritesConfig() {
	repo := suite.makeRepo()
	installRepo = repo
	installThreshold = 0.05
	installSpice = config.SpiceVerde
	installHook = config.HookPreCommit

	var out bytes.Buffer
	installCmd.SetOut(&out)

	suite.Require().NoError(runInstall(installCmd, nil))
	suite.Assert().Contains(out.String(), "BACstop installed!")

	cfg, err := config.LoadHookConfig(repo)
	suite.Require().NoError(err)
	suite.Assert().Equal(0.05, cfg.Threshold)
	suite.Assert().Equal(config.SpiceVerde, cfg.Spice)
	suite.Assert().Equal(config.HookPreCommit, cfg.Hook)
}

func (suite *InstallTestSuite) TestRunInstall_RejectsInvalidSpice() {
	repo := suite.makeRepo()
	installRepo = repo
	installSpice = "ghost-pepper"

	var out bytes.Buffer
	installCmd.SetOut(&out)

	err := runInstall(installCmd, nil)
	suite.Require().Error(err)
	suite.Assert().Contains(err.Error(), "invalid spice")
}

func (suite *InstallTestSuite) TestRunInstall_DiabloWarning() {
	repo := suite.makeRepo()
	installRepo = repo
	installSpice = config.SpiceDiablo

	var out bytes.Buffer
	installCmd.SetOut(&out)

	suite.Require().NoError(runInstall(installCmd, nil))
	suite.Assert().Contains(out.String(), "DIABLO MODE")
}

func (suite *InstallTestSuite) TestRunUninstall_RemovesHooksAndConfig() {
	repo := suite.makeRepo()
	installRepo = repo
	installHook = config.HookPrePush

	var out bytes.Buffer
	installCmd.SetOut(&out)
	suite.Require().NoError(runInstall(installCmd, nil))

	uninstallRepo = repo
	out.Reset()
	uninstallCmd.SetOut(&out)
	suite.Require().NoError(runUninstall(uninstallCmd, nil))

	suite.Assert().Contains(out.String(), "Removed BACstop pre-push hook.")
	suite.Assert().Contains(out.String(), "Removed .bacstop config.")

	_, err := os.Stat(filepath.Join(repo, ".git", "hooks", "pre-push"))
	suite.Assert().True(os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(repo, config.HookConfigFile))
	suite.Assert().True(os.IsNotExist(err))
}

func (suite *InstallTestSuite) TestRunUninstall_NothingInstalled() {
	repo := suite.makeRepo()
	uninstallRepo = repo

	var out bytes.Buffer
	uninstallCmd.SetOut(&out)

	suite.Require().NoError(runUninstall(uninstallCmd, nil))
	suite.Assert().Contains(out.String(), "No BACstop hooks found.")
}

// TestInstallCommandSuite runs the test suite
func TestInstallCommandSuite(t *testing.T) {
	suite.Run(t, new(InstallTestSuite))
}
