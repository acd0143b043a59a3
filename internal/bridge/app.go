// Package bridge runs the hydrometer bridge: BLE scanning for Tilts and an
// optional chamber probe, both publishing over MQTT.
package bridge

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"brewtracker/internal/chamber"
	"brewtracker/internal/config"
	"brewtracker/internal/mqtt"
	"brewtracker/internal/tilt"
)

const minStaleAfter = 5 * time.Minute

// staleAfter is how long a Tilt may stay silent before it is reported
// offline.
func staleAfter(dedup time.Duration) time.Duration {
	return max(10*dedup, minStaleAfter)
}

func Run(ctx context.Context, cfg config.Bridge, logger *slog.Logger) error {
	logger.Info("initializing bridge",
		"mqtt_broker", cfg.MQTT.Broker,
		"mqtt_port", cfg.MQTT.Port,
		"mqtt_client_id", cfg.MQTT.ClientID,
		"ble_adapter", cfg.BLEAdapter,
		"device_prefix", cfg.DevicePrefix,
		"dedup_window", cfg.DedupWindow,
		"chamber_enabled", cfg.ChamberEnabled,
	)

	publisher := mqtt.NewPublisher(cfg.MQTT, logger)
	defer publisher.Disconnect()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err := publisher.Connect(connectCtx)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Readings are dropped until paho gets through.
		logger.Warn("mqtt not connected yet; retrying in background", "error", err)
	}

	var wg sync.WaitGroup
	workers := 0

	handler := tilt.NewHandler(publisher, cfg.DevicePrefix, cfg.DedupWindow, logger)
	listener := tilt.NewListener(cfg.BLEAdapter, logger)
	workers++
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := handler.Run(ctx, listener, staleAfter(cfg.DedupWindow)); err != nil {
			logger.Warn("ble listener could not be initialized; bridge continues without BLE", "error", err)
		}
	}()

	if cfg.ChamberEnabled {
		probe, err := chamber.Open(cfg.ChamberBus, cfg.ChamberAddress, cfg.ChamberDeviceID, cfg.ChamberInterval, logger)
		if err != nil {
			logger.Warn("chamber probe unavailable", "error", err)
		} else {
			workers++
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer func() {
					if err := probe.Close(); err != nil {
						logger.Warn("chamber probe close", "error", err)
					}
				}()
				if err := probe.Run(ctx, publisher); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("chamber probe stopped", "error", err)
				}
			}()
		}
	}

	logger.Info("bridge running", "workers", workers)
	<-ctx.Done()
	logger.Info("bridge shutting down")
	wg.Wait()
	return nil
}
