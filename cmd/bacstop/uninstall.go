package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/srg/bacstop/pkg/config"
)

var uninstallRepo string

// uninstallCmd represents the uninstall command
var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the BACstop git hook from a repo",
	Args:  cobra.NoArgs,
	RunE:  runUninstall,
}

func init() {
	uninstallCmd.Flags().StringVarP(&uninstallRepo, "repo", "r", ".", "Path to git repo")
}

func runUninstall(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	repoPath, err := filepath.Abs(uninstallRepo)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	hooksDir := filepath.Join(repoPath, ".git", "hooks")

	removed := false
	for _, hook := range config.ValidHooks {
		hookPath := filepath.Join(hooksDir, hook)
		content, err := os.ReadFile(hookPath)
		if err != nil || !isBACstopHook(content) {
			continue
		}
		if err := os.Remove(hookPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed BACstop %s hook.\n", hook)
		removed = true
	}

	if !removed {
		fmt.Fprintln(out, "No BACstop hooks found.")
	}

	configPath := filepath.Join(repoPath, config.HookConfigFile)
	if _, err := os.Stat(configPath); err == nil {
		if err := os.Remove(configPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "Removed %s config.\n", config.HookConfigFile)
	}
	return nil
}
