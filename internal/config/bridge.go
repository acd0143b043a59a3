package config

import (
	"fmt"
	"strconv"
	"time"
)

// Bridge configures the hydrometer bridge (cmd/tiltbridge).
type Bridge struct {
	Common
	MQTT MQTT

	BLEAdapter string
	// DevicePrefix is prepended to the Tilt colour to form the device id
	// ("tilt-" + "red").
	DevicePrefix string
	// DedupWindow suppresses identical readings from the same device.
	DedupWindow time.Duration

	ChamberEnabled  bool
	ChamberAddress  uint16
	ChamberBus      string
	ChamberDeviceID string
	ChamberInterval time.Duration
}

func LoadBridgeFromEnv() (Bridge, error) {
	common, err := loadCommon()
	if err != nil {
		return Bridge{}, err
	}
	mqtt, err := loadMQTT("brewtracker-tiltbridge")
	if err != nil {
		return Bridge{}, err
	}

	dedup, err := envDuration("TILT_DEDUP_WINDOW", "30s")
	if err != nil {
		return Bridge{}, err
	}

	chamberEnabled, err := envBool("CHAMBER_ENABLED", "false")
	if err != nil {
		return Bridge{}, err
	}
	addrStr := envString("CHAMBER_ADDRESS", "0x76")
	addr, err := strconv.ParseUint(addrStr, 0, 16)
	if err != nil {
		return Bridge{}, fmt.Errorf("invalid CHAMBER_ADDRESS %q: %w", addrStr, err)
	}
	interval, err := envDuration("CHAMBER_POLL_INTERVAL", "1m")
	if err != nil {
		return Bridge{}, err
	}
	if interval <= 0 {
		return Bridge{}, fmt.Errorf("CHAMBER_POLL_INTERVAL must be positive, got %v", interval)
	}

	return Bridge{
		Common:          common,
		MQTT:            mqtt,
		BLEAdapter:      envString("BLE_ADAPTER", "hci0"),
		DevicePrefix:    envString("TILT_DEVICE_PREFIX", "tilt-"),
		DedupWindow:     dedup,
		ChamberEnabled:  chamberEnabled,
		ChamberAddress:  uint16(addr),
		ChamberBus:      envString("CHAMBER_I2C_BUS", ""),
		ChamberDeviceID: envString("CHAMBER_DEVICE_ID", "chamber"),
		ChamberInterval: interval,
	}, nil
}
