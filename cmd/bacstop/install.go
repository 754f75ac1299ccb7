package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/srg/bacstop/pkg/config"
)

var (
	installRepo      string
	installThreshold float64
	installSpice     string
	installHook      string
)

// installCmd represents the install command
var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the BACstop git hook into a repo",
	Long: `Install a git hook that runs a breath test before the hooked git operation.

Spice levels:
  verde  - informational only, always allows
  hot    - blocks if BAC is below the threshold
  diablo - blocks AND destroys your changes`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVarP(&installRepo, "repo", "r", ".", "Path to git repo")
	installCmd.Flags().Float64Var(&installThreshold, "threshold", 0.0, "BAC threshold in percent")
	installCmd.Flags().StringVarP(&installSpice, "spice", "s", config.SpiceHot, "Spice level (verde, hot, diablo)")
	installCmd.Flags().StringVar(&installHook, "hook", config.HookPrePush, "Hook type (pre-commit or pre-push)")
}

func runInstall(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	repoPath, err := filepath.Abs(installRepo)
	if err != nil {
		return err
	}

	hookConfig := config.HookConfig{
		Threshold: installThreshold,
		Spice:     installSpice,
		Hook:      installHook,
	}
	if err := hookConfig.Validate(); err != nil {
		return err
	}

	dest, err := installHookScript(repoPath, hookConfig, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if err := hookConfig.Save(repoPath); err != nil {
		return err
	}

	spiceDesc := map[string]string{
		config.SpiceVerde:  "informational only, always allows",
		config.SpiceHot:    "blocks if BAC below threshold",
		config.SpiceDiablo: "blocks AND destroys your changes",
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "BACstop installed!")
	fmt.Fprintf(out, "  Hook:      %s\n", dest)
	fmt.Fprintf(out, "  Threshold: %.2f%%\n", hookConfig.Threshold)
	fmt.Fprintf(out, "  Spice:     %s (%s)\n", hookConfig.Spice, spiceDesc[hookConfig.Spice])
	fmt.Fprintln(out)
	if hookConfig.Spice == config.SpiceDiablo {
		fmt.Fprintln(out, "!! DIABLO MODE: failing the check will DESTROY your changes !!")
		fmt.Fprintln(out)
	}
	return nil
}

// installHookScript writes the hook script into .git/hooks and removes any
// stale BACstop hook left in the opposite slot. Returns the hook path.
func installHookScript(repoPath string, hookConfig config.HookConfig, out io.Writer) (string, error) {
	gitDir := filepath.Join(repoPath, ".git")
	if fi, err := os.Stat(gitDir); err != nil || !fi.IsDir() {
		return "", fmt.Errorf("not a git repo: %s", repoPath)
	}

	hooksDir := filepath.Join(gitDir, "hooks")
	if err := os.MkdirAll(hooksDir, 0o755); err != nil {
		return "", err
	}

	other := config.HookPreCommit
	if hookConfig.Hook == config.HookPreCommit {
		other = config.HookPrePush
	}
	otherDest := filepath.Join(hooksDir, other)
	if content, err := os.ReadFile(otherDest); err == nil && isBACstopHook(content) {
		if err := os.Remove(otherDest); err != nil {
			return "", err
		}
		fmt.Fprintf(out, "Removed old BACstop %s hook.\n", other)
	}

	dest := filepath.Join(hooksDir, hookConfig.Hook)
	if _, err := os.Stat(dest); err == nil {
		fmt.Fprintf(out, "Overwriting existing %s hook.\n", hookConfig.Hook)
	}

	if err := os.WriteFile(dest, []byte(renderHookScript(hookConfig)), 0o755); err != nil {
		return "", err
	}
	return dest, nil
}

// hookMarker identifies a hook script as ours. Both install and uninstall
// refuse to touch hooks that do not carry it.
const hookMarker = "BACstop sobriety gate"

func isBACstopHook(content []byte) bool {
	return strings.Contains(string(content), "BACstop")
}

// renderHookScript produces the shell script installed into .git/hooks.
// Threshold and spice are baked in at install time so the hook does not
// depend on parsing the config file.
func renderHookScript(hookConfig config.HookConfig) string {
	script := fmt.Sprintf(`#!/bin/sh
# %s - installed by bacstop, do not edit by hand
# spice=%s threshold=%.2f

echo ""
echo "  BACstop: prove you've been drinking before you ship."
echo ""

bacstop check --threshold %.2f --timeout 90s
status=$?

if [ $status -eq 2 ]; then
    echo "  BACstop: device error, letting you through this time."
    exit 0
fi
`, hookMarker, hookConfig.Spice, hookConfig.Threshold, hookConfig.Threshold)

	switch hookConfig.Spice {
	case config.SpiceVerde:
		script += `
if [ $status -ne 0 ]; then
    echo "  BACstop (verde): you're too sober, but I'll allow it."
fi
exit 0
`
	case config.SpiceDiablo:
		script += `
if [ $status -ne 0 ]; then
    echo "  BACstop (diablo): too sober. Your changes are forfeit."
    git reset --hard
    exit 1
fi
exit 0
`
	default:
		script += `
if [ $status -ne 0 ]; then
    echo "  BACstop: too sober to ship. Have a drink and try again."
    exit 1
fi
exit 0
`
	}
	return script
}
