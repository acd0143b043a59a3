package tilt

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"tinygo.org/x/bluetooth"
)

// Match is one iBeacon advertisement seen by the scanner.
type Match struct {
	Address string
	RSSI    int16
	Data    []byte
	SeenAt  time.Time
}

// Listener wraps BlueZ scanning with context cancellation, passing on
// Apple iBeacon manufacturer data only.
type Listener struct {
	adapter     *bluetooth.Adapter
	adapterName string
	logger      *slog.Logger
}

func NewListener(adapterName string, logger *slog.Logger) *Listener {
	if adapterName == "" {
		adapterName = "hci0"
	}
	return &Listener{
		adapter:     bluetooth.NewAdapter(adapterName),
		adapterName: adapterName,
		logger:      logger,
	}
}

// Run scans until ctx is cancelled. A cancelled scan is a clean stop.
func (l *Listener) Run(ctx context.Context, onMatch func(Match)) error {
	l.logger.Info("ble: enabling adapter", "adapter", l.adapterName)
	if err := l.adapter.Enable(); err != nil {
		return fmt.Errorf("ble enable (%s): %w", l.adapterName, err)
	}

	go func() {
		<-ctx.Done()
		_ = l.adapter.StopScan()
	}()

	l.logger.Info("ble: scanning started", "company", fmt.Sprintf("0x%04X", AppleCompanyID), "prefix", fmt.Sprintf("% X", IBeaconPrefix))

	// Scan blocks until StopScan or an error.
	err := l.adapter.Scan(func(_ *bluetooth.Adapter, r bluetooth.ScanResult) {
		if m, ok := matchIBeacon(r.Address.String(), r.RSSI, r.ManufacturerData()); ok {
			onMatch(m)
		}
	})

	if ctx.Err() != nil {
		l.logger.Info("ble: scanning stopped (context canceled)")
		return nil
	}
	if err != nil {
		return fmt.Errorf("ble scan: %w", err)
	}
	l.logger.Info("ble: scanning stopped")
	return nil
}

func matchIBeacon(addr string, rssi int16, mfg []bluetooth.ManufacturerDataElement) (Match, bool) {
	for _, md := range mfg {
		if md.CompanyID != AppleCompanyID || !bytes.HasPrefix(md.Data, IBeaconPrefix) {
			continue
		}
		return Match{
			Address: addr,
			RSSI:    rssi,
			Data:    append([]byte(nil), md.Data...),
			SeenAt:  time.Now(),
		}, true
	}
	return Match{}, false
}
