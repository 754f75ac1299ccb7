package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cornelk/hashmap"
	blelib "github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
)

// DeviceNameSubstring identifies the product family in advertised names.
// BACtrack peripherals advertise as "BACtrack C6", "BACtrack Mobile", etc.
const DeviceNameSubstring = "bactrack"

// DiscoveredDevice is a snapshot of an advertising peripheral
type DiscoveredDevice struct {
	Address string
	Name    string
	RSSI    int
}

// FindDevice scans for a peripheral whose advertised name contains match
// (case-insensitive) and returns the first hit. The scan window bounds the
// search; when it closes without a match, ErrDeviceNotFound is returned.
func FindDevice(ctx context.Context, match string, window time.Duration, logger *logrus.Logger) (DiscoveredDevice, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if window <= 0 {
		window = DefaultConnectOptions().ScanWindow
	}

	dev, err := DeviceFactory()
	if err != nil {
		return DiscoveredDevice{}, fmt.Errorf("failed to create BLE device: %w", err)
	}
	blelib.SetDefaultDevice(dev)

	logger.WithFields(logrus.Fields{
		"match":  match,
		"window": window,
	}).Info("Scanning for device...")

	scanCtx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	seen := hashmap.New[string, DiscoveredDevice]()
	var found DiscoveredDevice
	var matched atomic.Bool

	handler := func(adv blelib.Advertisement) {
		d := DiscoveredDevice{
			Address: adv.Addr().String(),
			Name:    adv.LocalName(),
			RSSI:    adv.RSSI(),
		}
		if _, existing := seen.GetOrInsert(d.Address, d); !existing {
			logger.WithFields(logrus.Fields{
				"device":  d.Name,
				"address": d.Address,
				"rssi":    d.RSSI,
			}).Debug("Discovered new device")
		}

		if strings.Contains(strings.ToLower(d.Name), strings.ToLower(match)) {
			// First match wins; cancel the scan instead of waiting out the window
			if matched.CompareAndSwap(false, true) {
				found = d
				cancel()
			}
		}
	}

	err = dev.Scan(scanCtx, false, handler)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return DiscoveredDevice{}, fmt.Errorf("scan failed: %w", NormalizeError(err))
	}

	if matched.Load() {
		logger.WithFields(logrus.Fields{
			"device":  found.Name,
			"address": found.Address,
		}).Info("Device found")
		return found, nil
	}

	logger.WithField("device_count", seen.Len()).Info("Scan window closed without a match")
	return DiscoveredDevice{}, fmt.Errorf("%w: no device advertising %q within %s", ErrDeviceNotFound, match, window)
}
