package service

import (
	"context"
	"log/slog"

	"brewtracker/internal/mqtt"
	"brewtracker/internal/telemetry"
)

type messageSubscriber interface {
	SetMessageHandler(h mqtt.HandlerFunc)
}

type telemetryHandler interface {
	HandleTelemetry(ctx context.Context, t telemetry.Telemetry) error
}

// registerMQTTHandler sets up the fermentation module's MQTT message handler
func registerMQTTHandler(subscriber messageSubscriber, h telemetryHandler, logger *slog.Logger) {
	subscriber.SetMessageHandler(func(ctx context.Context, t telemetry.Telemetry) error {
		logger.Debug("processing telemetry message",
			"device_id", t.DeviceID,
			"timestamp", t.Timestamp,
		)
		if err := h.HandleTelemetry(ctx, t); err != nil {
			return err
		}
		logger.Debug("successfully stored telemetry", "device_id", t.DeviceID)
		return nil
	})
}
