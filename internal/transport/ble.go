package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/darwin"
	"github.com/sirupsen/logrus"
)

// DeviceFactory creates ble.Device instances (can be overridden in tests)
var DeviceFactory = func() (ble.Device, error) {
	dev, err := darwin.NewDevice()
	if err != nil {
		// Wrap Bluetooth state errors with clearer messages
		if strings.Contains(err.Error(), "central manager has invalid state") {
			if strings.Contains(err.Error(), "have=4") { // StatePoweredOff
				return nil, fmt.Errorf("Bluetooth is turned off - please enable Bluetooth and retry")
			}
			return nil, fmt.Errorf("Bluetooth is not ready - %w", err)
		}
		return nil, err
	}
	return dev, nil
}

// BLETransport is the go-ble backed Transport implementation. It holds one
// connection to one peripheral and resolves characteristics by normalized
// UUID after profile discovery.
type BLETransport struct {
	client      ble.Client
	logger      *logrus.Logger
	writeMutex  sync.Mutex
	connMutex   sync.RWMutex
	isConnected bool
	address     string

	chars map[string]*ble.Characteristic
}

// NewBLETransport creates a disconnected BLE transport
func NewBLETransport(logger *logrus.Logger) *BLETransport {
	if logger == nil {
		logger = logrus.New()
	}
	return &BLETransport{
		logger: logger,
		chars:  make(map[string]*ble.Characteristic),
	}
}

// Connect establishes a BLE connection and populates live characteristics.
// When opts.Address is empty, it discovers a device by advertised name first.
func (t *BLETransport) Connect(ctx context.Context, opts *ConnectOptions) error {
	if opts == nil {
		opts = DefaultConnectOptions()
	}

	t.connMutex.Lock()
	defer t.connMutex.Unlock()

	if t.isConnectedInternal() {
		return fmt.Errorf("%w: disconnect before reconnecting", ErrAlreadyConnected)
	}

	address := opts.Address
	if strings.TrimSpace(address) == "" {
		opts.reportPhase("scanning")
		found, err := FindDevice(ctx, DeviceNameSubstring, opts.ScanWindow, t.logger)
		if err != nil {
			return err
		}
		address = found.Address
	}

	opts.reportPhase("connecting")

	t.logger.WithFields(logrus.Fields{
		"address": address,
		"timeout": opts.ConnectTimeout,
	}).Info("Connecting to BLE device...")

	// Create a BLE device using the factory (allows for mocking in tests)
	dev, err := DeviceFactory()
	if err != nil {
		return fmt.Errorf("failed to create BLE device: %w", err)
	}
	ble.SetDefaultDevice(dev)

	connCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	client, err := ble.Dial(connCtx, ble.NewAddr(address))
	if err != nil {
		return fmt.Errorf("failed to connect to device with address \"%s\": %w", address, NormalizeError(err))
	}

	opts.reportPhase("discovering services")
	profile, err := client.DiscoverProfile(true)
	if err != nil {
		if cancelErr := client.CancelConnection(); cancelErr != nil {
			t.logger.WithField("cancel_error", cancelErr).Warn("Failed to cancel connection during profile discovery failure")
		}
		return fmt.Errorf("failed to discover profile: %w", err)
	}

	for _, svc := range profile.Services {
		for _, char := range svc.Characteristics {
			uuid := NormalizeUUID(char.UUID.String())
			t.logger.WithFields(logrus.Fields{
				"service_uuid": svc.UUID.String(),
				"char_uuid":    uuid,
			}).Debug("Found characteristic UUID")
			t.chars[uuid] = char
		}
	}

	t.client = client
	t.address = address
	t.isConnected = true

	opts.reportPhase("connected")
	t.logger.WithField("characteristics", len(t.chars)).Info("BLE device connected")
	return nil
}

// isConnectedInternal checks the connection status without acquiring locks.
// Should only be called when the caller already holds connMutex.
func (t *BLETransport) isConnectedInternal() bool {
	return t.client != nil && t.isConnected
}

// IsConnected reports whether the transport holds a live connection
func (t *BLETransport) IsConnected() bool {
	t.connMutex.RLock()
	defer t.connMutex.RUnlock()
	return t.isConnectedInternal()
}

// Address returns the address of the connected device, or empty when disconnected
func (t *BLETransport) Address() string {
	t.connMutex.RLock()
	defer t.connMutex.RUnlock()
	return t.address
}

// findCharacteristic resolves a live characteristic handle by UUID.
// Caller must hold connMutex.
func (t *BLETransport) findCharacteristic(charUUID string) (*ble.Characteristic, error) {
	char, ok := t.chars[NormalizeUUID(charUUID)]
	if !ok {
		return nil, fmt.Errorf("characteristic \"%s\" not found on device \"%s\"", charUUID, t.address)
	}
	return char, nil
}

// Write sends data to the given characteristic. withResponse requests a
// delivery acknowledgment from the peripheral.
func (t *BLETransport) Write(charUUID string, data []byte, withResponse bool) error {
	t.connMutex.RLock()
	defer t.connMutex.RUnlock()

	if !t.isConnectedInternal() {
		return fmt.Errorf("%w: establish connection before writing", ErrNotConnected)
	}

	char, err := t.findCharacteristic(charUUID)
	if err != nil {
		return err
	}

	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()

	// go-ble inverts the flag: noRsp=true means write-without-response
	if err := t.client.WriteCharacteristic(char, data, !withResponse); err != nil {
		return fmt.Errorf("failed to write characteristic %s: %w", charUUID, NormalizeError(err))
	}

	t.logger.WithFields(logrus.Fields{
		"char_uuid": charUUID,
		"bytes":     len(data),
		"ack":       withResponse,
	}).Debug("Wrote to characteristic")
	return nil
}

// Subscribe registers handler for notifications on the given characteristic.
// The handler is invoked on the BLE delivery goroutine, one frame at a time.
func (t *BLETransport) Subscribe(charUUID string, handler NotificationHandler) error {
	t.connMutex.RLock()
	defer t.connMutex.RUnlock()

	if !t.isConnectedInternal() {
		return fmt.Errorf("%w: establish connection before subscribing", ErrNotConnected)
	}

	char, err := t.findCharacteristic(charUUID)
	if err != nil {
		return err
	}

	if err := t.client.Subscribe(char, false, func(data []byte) {
		handler(data)
	}); err != nil {
		return fmt.Errorf("failed to subscribe to characteristic %s: %w", charUUID, NormalizeError(err))
	}

	t.logger.WithField("char_uuid", charUUID).Info("Subscribed to characteristic notifications")
	return nil
}

// Unsubscribe removes the notification registration for the characteristic.
// It tries both notify and indicate, matching how peripherals vary.
func (t *BLETransport) Unsubscribe(charUUID string) error {
	t.connMutex.RLock()
	defer t.connMutex.RUnlock()

	// Allow unsubscribe while disconnecting for cleanup, but not without a client
	if t.client == nil {
		return fmt.Errorf("%w: unsubscribe unavailable", ErrNotConnected)
	}

	char, err := t.findCharacteristic(charUUID)
	if err != nil {
		return err
	}

	err1 := t.client.Unsubscribe(char, false) // notify
	err2 := t.client.Unsubscribe(char, true)  // indicate
	if err1 != nil && err2 != nil {
		return fmt.Errorf("failed to unsubscribe from characteristic %s: notify=%v, indicate=%v", charUUID, err1, err2)
	}

	t.logger.WithField("char_uuid", charUUID).Info("Unsubscribed from characteristic notifications")
	return nil
}

// Disconnect closes the BLE connection. Safe to call when already disconnected.
func (t *BLETransport) Disconnect() error {
	t.connMutex.Lock()
	defer t.connMutex.Unlock()

	if t.client == nil || !t.isConnected {
		t.logger.Debug("Already disconnected")
		return nil
	}

	t.logger.Info("Disconnecting BLE device...")

	err := t.client.CancelConnection()
	t.client = nil
	t.isConnected = false
	t.chars = make(map[string]*ble.Characteristic)

	if err != nil {
		t.logger.WithField("error", err).Warn("BLE device disconnected with errors")
		return NormalizeError(err)
	}

	t.logger.Info("BLE device disconnected successfully")
	return nil
}
