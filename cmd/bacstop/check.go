package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/srg/bacstop/breathalyzer"
	"github.com/srg/bacstop/pkg/config"
	"github.com/srg/bacstop/protocol"
)

// Exit codes consumed by the generated git hooks
const (
	exitAllowed = 0
	exitBlocked = 1
	exitError   = 2
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check BAC against a threshold (for git hooks)",
	Long: `Take a breath test and compare the reading against a threshold.

Designed for git hooks: exit 0 when the BAC meets or exceeds the
threshold (allowed), 1 when it falls below (blocked), 2 on any error or
when the test does not complete.

Examples:
  bacstop check --threshold 0.08
  bacstop check --threshold 0.05 --quiet`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

var (
	checkAddress   string
	checkThreshold float64
	checkQuiet     bool
	checkTimeout   time.Duration
	checkVerbose   bool
)

func init() {
	checkCmd.Flags().StringVarP(&checkAddress, "address", "a", "", "Device address (discovered by name when empty)")
	checkCmd.Flags().Float64VarP(&checkThreshold, "threshold", "t", 0.08, "BAC threshold in percent")
	checkCmd.Flags().BoolVarP(&checkQuiet, "quiet", "q", false, "Suppress output")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", config.DefaultConfig().TestTimeout, "Maximum time to wait for test completion")
	checkCmd.Flags().BoolVarP(&checkVerbose, "verbose", "v", false, "Verbose output")
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger, err := configureLogger(cmd, "verbose")
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// An explicit --threshold wins; otherwise a .bacstop in the working
	// directory overrides the built-in default, so hooks and a bare
	// `bacstop check` inside a configured repo agree.
	threshold := checkThreshold
	if !cmd.Flags().Changed("threshold") {
		threshold = repoThreshold(".", checkThreshold)
	}

	code := performCheck(ctx, checkAddress, threshold, checkQuiet, checkTimeout, logger)
	if code != exitAllowed {
		os.Exit(code)
	}
	return nil
}

// repoThreshold reads the threshold from the repo's .bacstop file, falling
// back to def when the file is absent or unreadable.
func repoThreshold(repoPath string, def float64) float64 {
	if _, err := os.Stat(filepath.Join(repoPath, config.HookConfigFile)); err != nil {
		return def
	}
	cfg, err := config.LoadHookConfig(repoPath)
	if err != nil {
		return def
	}
	return cfg.Threshold
}

// performCheck runs the full check and returns its exit code. It owns all
// of its output, so callers only translate the code into a process exit.
func performCheck(ctx context.Context, address string, threshold float64, quiet bool, timeout time.Duration, logger *logrus.Logger) int {
	say := func(format string, a ...interface{}) {
		if !quiet {
			fmt.Printf(format+"\n", a...)
		}
	}

	say("Checking BAC (threshold: %.2f%%)...", threshold)

	var progress func(phase string)
	if !quiet {
		printer := NewProgressPrinter("Connecting to BACtrack device", "scanning", "connected")
		printer.Start()
		defer printer.Stop()
		progress = printer.Callback()
	}

	client, conn, err := connectClient(ctx, address, logger, progress)
	if err != nil {
		say("Error: %s", FormatUserError(err))
		return exitError
	}
	defer func() {
		if err := conn.Disconnect(); err != nil {
			logger.WithError(err).Warn("Failed to disconnect")
		}
	}()

	callback := func(n protocol.Notification) {
		say("  %s", n.Message())
	}

	result, err := client.TakeTest(ctx, callback, timeout)
	if err != nil {
		say("Error: %s", FormatUserError(err))
		return exitError
	}
	if result == nil {
		say("Test failed")
		return exitError
	}

	say("")
	say("BAC: %.4f%%", result.BACPercent)

	code := checkExitCode(result, threshold)
	if code == exitAllowed {
		say("Above threshold - ALLOWED")
	} else {
		say("Below threshold - BLOCKED")
	}
	return code
}

// checkExitCode maps a completed reading to the hook exit code. The gate
// is inverted on purpose: BACstop blocks you for being too sober.
func checkExitCode(result *breathalyzer.Result, threshold float64) int {
	if result == nil {
		return exitError
	}
	if result.BACPercent >= threshold {
		return exitAllowed
	}
	return exitBlocked
}
