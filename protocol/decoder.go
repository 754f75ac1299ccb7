package protocol

import (
	"encoding/binary"
	"encoding/hex"
)

// Frame prefixes observed from BACtrack devices. Status frames start with
// 0x80 followed by a phase byte; result frames start with 0x81.
const (
	prefixCountdown   = "8001"
	prefixStartBlow   = "8002"
	prefixKeepBlowing = "8003"
	prefixAnalyzing   = "8004"
	prefixFinalizing  = "8005"
	prefixWrappingUp  = "8006"
	prefixCancelled   = "8007"
	prefixBlowError   = "8008"
)

// resultDivisor converts the raw 16-bit result value to percent BAC.
// Confirmed empirically: raw 10000 corresponds to 1.0000%.
const resultDivisor = 10000.0

// Decode interprets a single notification frame from the device.
//
// Decode is total: it never fails. Frames shorter than two bytes yield
// KindInvalid, unrecognized prefixes yield KindUnknown, and status frames
// missing their field byte default the field to zero instead of erroring.
// Identical input always yields an identical Notification.
func Decode(frame []byte) Notification {
	raw := make([]byte, len(frame))
	copy(raw, frame)

	n := Notification{
		Kind:   KindUnknown,
		RawHex: hex.EncodeToString(raw),
		Raw:    raw,
	}

	if len(raw) < 2 {
		n.Kind = KindInvalid
		return n
	}

	// Result frames are matched on the first byte only; the second byte
	// varies between firmware revisions.
	if raw[0] == 0x81 && len(raw) >= 5 {
		n.Kind = KindResult
		n.BACPercent = float64(binary.LittleEndian.Uint16(raw[2:4])) / resultDivisor
		n.RawValue = binary.LittleEndian.Uint16(raw[3:5])
		return n
	}

	switch n.RawHex[:4] {
	case prefixCountdown:
		n.Kind = KindCountdown
		if len(raw) >= 3 {
			n.Seconds = raw[2]
		}
	case prefixStartBlow:
		n.Kind = KindStartBlow
	case prefixKeepBlowing:
		n.Kind = KindKeepBlowing
		if len(raw) >= 3 {
			n.Seconds = raw[2]
		}
	case prefixAnalyzing:
		n.Kind = KindAnalyzing
	case prefixFinalizing:
		n.Kind = KindFinalizing
	case prefixWrappingUp:
		n.Kind = KindWrappingUp
	case prefixCancelled:
		n.Kind = KindCancelled
	case prefixBlowError:
		n.Kind = KindBlowError
	}

	return n
}
