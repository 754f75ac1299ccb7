package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/srg/bacstop/breathalyzer"
	"github.com/srg/bacstop/internal/transport"
	"github.com/srg/bacstop/pkg/config"
)

// connectClient establishes the BLE connection every device-facing command
// starts from. An empty address triggers discovery by advertised name;
// progress (may be nil) receives connection phase names for display.
// The caller owns the returned transport and must Disconnect it.
func connectClient(ctx context.Context, address string, logger *logrus.Logger, progress func(phase string)) (*breathalyzer.Client, *transport.BLETransport, error) {
	cfg := config.DefaultConfig()

	t := transport.NewBLETransport(logger)
	opts := transport.DefaultConnectOptions()
	opts.Address = address
	opts.ConnectTimeout = cfg.ConnectTimeout
	opts.ScanWindow = cfg.ScanTimeout
	opts.Progress = progress

	if err := t.Connect(ctx, opts); err != nil {
		return nil, nil, err
	}

	return breathalyzer.NewClient(t, logger), t, nil
}
