package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/srg/bacstop/internal/ui"
	"github.com/srg/bacstop/pkg/config"
	"github.com/srg/bacstop/protocol"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Take a breath test",
	Long: `Take a full breath test with a terminal UI.

The device is discovered automatically unless --address is given. The UI
walks through warmup, blowing, and analysis, then shows the final BAC.

Examples:
  # Discover a BACtrack device and run a test
  bacstop test

  # Use a specific device and the matrix theme
  bacstop test --address AA:BB:CC:DD:EE:FF --theme matrix

  # Plain output without the full-screen UI
  bacstop test --no-ui`,
	Args: cobra.NoArgs,
	RunE: runTest,
}

var (
	testAddress string
	testTheme   string
	testNoUI    bool
	testTimeout time.Duration
	testVerbose bool
)

func init() {
	testCmd.Flags().StringVarP(&testAddress, "address", "a", "", "Device address (discovered by name when empty)")
	testCmd.Flags().StringVarP(&testTheme, "theme", "t", "default", "UI theme (default, matrix, retro, minimal)")
	testCmd.Flags().BoolVar(&testNoUI, "no-ui", false, "Disable the full-screen UI")
	testCmd.Flags().DurationVar(&testTimeout, "timeout", config.DefaultConfig().TestTimeout, "Maximum time to wait for test completion")
	testCmd.Flags().BoolVarP(&testVerbose, "verbose", "v", false, "Verbose output")
}

func runTest(cmd *cobra.Command, args []string) error {
	logger, err := configureLogger(cmd, "verbose")
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var terminal *ui.TerminalUI
	var progress func(phase string)
	if !testNoUI {
		terminal = ui.New(testTheme)
		terminal.ShowConnecting()
	} else {
		// Plain mode gets a one-line phase display instead of the UI;
		// the "connected" phase stops it automatically
		printer := NewProgressPrinter("Connecting to BACtrack device", "scanning", "connected")
		printer.Start()
		defer printer.Stop()
		progress = printer.Callback()
	}

	client, conn, err := connectClient(ctx, testAddress, logger, progress)
	if err != nil {
		if terminal != nil {
			terminal.ShowError(FormatUserError(err))
		}
		return err
	}
	defer func() {
		if err := conn.Disconnect(); err != nil {
			logger.WithError(err).Warn("Failed to disconnect")
		}
	}()

	if terminal != nil {
		terminal.ShowConnected(conn.Address())
		time.Sleep(2 * time.Second)
		terminal.ShowGetReady()
		time.Sleep(2 * time.Second)
	} else {
		fmt.Printf("Connected to %s\n", conn.Address())
	}

	callback := func(n protocol.Notification) {
		if terminal != nil {
			terminal.Update(n)
		} else {
			fmt.Printf("  %s\n", n.Message())
		}
	}

	result, err := client.TakeTest(ctx, callback, testTimeout)
	if err != nil {
		if terminal != nil {
			terminal.ShowError(FormatUserError(err))
		}
		return err
	}

	if result == nil {
		if terminal != nil {
			terminal.ShowError("Test failed or was cancelled")
		} else {
			fmt.Println("Test failed or was cancelled")
		}
		return nil
	}

	if terminal != nil {
		terminal.ShowResult(result.BACPercent)
	} else {
		fmt.Printf("\nBAC: %.4f%%\n", result.BACPercent)
	}
	return nil
}
