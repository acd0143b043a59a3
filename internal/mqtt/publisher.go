package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"brewtracker/internal/config"
	"brewtracker/internal/telemetry"
)

// BridgeStatusTopic carries the retained online/offline state of a bridge.
func BridgeStatusTopic(clientID string) string {
	return "brewtracker/bridges/" + clientID + "/status"
}

// DeviceStatus is the retained last-seen state of a device.
type DeviceStatus struct {
	DeviceID string    `json:"device_id"`
	LastSeen time.Time `json:"last_seen"`
	Online   bool      `json:"online"`
}

// Publisher sends telemetry on behalf of devices. The broker marks the
// bridge offline through a last will if the connection drops.
type Publisher struct {
	*conn
}

func NewPublisher(cfg config.MQTT, logger *slog.Logger) *Publisher {
	p := &Publisher{}
	status := BridgeStatusTopic(cfg.ClientID)
	p.conn = newConn(cfg, logger, func(o *paho.ClientOptions) {
		o.SetWill(status, "offline", 1, true)
	}, func() {
		go func() {
			if err := wait(p.client.Publish(status, 1, true, "online"), "publish bridge status"); err != nil {
				logger.Warn("bridge status not published", "error", err)
			}
		}()
	})
	return p
}

// Connect waits for the broker connection.
func (p *Publisher) Connect(ctx context.Context) error {
	return p.connect(ctx)
}

// PublishTelemetry publishes t to its device topic.
func (p *Publisher) PublishTelemetry(t telemetry.Telemetry) error {
	if !p.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal telemetry: %w", err)
	}

	topic := telemetry.Topic(t.DeviceID)
	if err := wait(p.client.Publish(topic, 1, false, data), "publish "+topic); err != nil {
		p.logger.Error("failed to publish telemetry", "topic", topic, "error", err)
		return err
	}
	p.logger.Debug("published telemetry", "topic", topic, "device_id", t.DeviceID)
	return nil
}

// PublishDeviceStatus publishes the retained status of a device.
func (p *Publisher) PublishDeviceStatus(s DeviceStatus) error {
	if !p.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}
	if s.LastSeen.IsZero() {
		s.LastSeen = time.Now().UTC()
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	topic := telemetry.TopicPrefix + "/" + s.DeviceID + "/status"
	if err := wait(p.client.Publish(topic, 1, true, data), "publish "+topic); err != nil {
		return err
	}
	p.logger.Debug("published device status", "topic", topic, "online", s.Online)
	return nil
}

// Disconnect marks the bridge offline and closes the connection. Safe to
// call more than once.
func (p *Publisher) Disconnect() {
	status := BridgeStatusTopic(p.cfg.ClientID)
	p.stop(func() {
		p.client.Publish(status, 1, true, "offline").WaitTimeout(2 * time.Second)
	})
	p.logger.Info("mqtt publisher disconnected")
}
