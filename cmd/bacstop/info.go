package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/srg/bacstop/breathalyzer"
	"github.com/srg/bacstop/internal/transport"
	"github.com/srg/bacstop/pkg/config"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show device information",
	Long:  `Discover a BACtrack device and print its address and the GATT identifiers used by the breath-test protocol.`,
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

var infoVerbose bool

func init() {
	infoCmd.Flags().BoolVarP(&infoVerbose, "verbose", "v", false, "Verbose output")
}

func runInfo(cmd *cobra.Command, args []string) error {
	logger, err := configureLogger(cmd, "verbose")
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := NewProgressPrinter("Scanning for BACtrack device", "Scanning", "Done")
	progress.Start()
	defer progress.Stop()

	found, err := transport.FindDevice(ctx, transport.DeviceNameSubstring, config.DefaultConfig().ScanTimeout, logger)
	progress.Stop()
	if err != nil {
		return err
	}

	fmt.Println("Device found!")
	fmt.Printf("   Name:           %s\n", found.Name)
	fmt.Printf("   Address:        %s\n", found.Address)
	fmt.Printf("   RSSI:           %d dBm\n", found.RSSI)
	fmt.Printf("   Service:        %s\n", breathalyzer.ServiceUUID)
	fmt.Printf("   Characteristic: %s\n", breathalyzer.CharacteristicUUID)
	return nil
}
