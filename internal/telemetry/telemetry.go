// Package telemetry holds the message exchanged between the hydrometer
// bridge and the server over MQTT.
package telemetry

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// TopicPrefix is the root of every BrewTracker topic.
	TopicPrefix = "brewtracker/devices"
	// SubscribeTopic matches telemetry from every device.
	SubscribeTopic = TopicPrefix + "/+/telemetry"
)

// Telemetry is one reading from a hydrometer or chamber probe.
// Temperature is always Celsius and gravity always specific gravity;
// conversion for display happens at the edge.
type Telemetry struct {
	DeviceID     string    `json:"device_id"`
	DeviceName   string    `json:"device_name,omitempty"`
	Kind         string    `json:"kind,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
	GravitySG    *float64  `json:"gravity_sg,omitempty"`
	TemperatureC *float64  `json:"temperature_c,omitempty"`
	BatteryV     *float64  `json:"battery_v,omitempty"`
	RSSI         *int      `json:"rssi,omitempty"`
	Sequence     *int      `json:"sequence,omitempty"`
	Source       string    `json:"source,omitempty"`
}

// Topic is the MQTT topic a device publishes its telemetry to.
func Topic(deviceID string) string {
	return TopicPrefix + "/" + deviceID + "/telemetry"
}

// DeviceFromTopic extracts the device id from a telemetry topic.
func DeviceFromTopic(topic string) (string, error) {
	rest, ok := strings.CutPrefix(topic, TopicPrefix+"/")
	if !ok {
		return "", fmt.Errorf("topic %q: not under %s", topic, TopicPrefix)
	}
	id, ok := strings.CutSuffix(rest, "/telemetry")
	if !ok || id == "" || strings.Contains(id, "/") {
		return "", fmt.Errorf("topic %q: not a telemetry topic", topic)
	}
	return id, nil
}

// Validate checks that the message identifies a device and carries at
// least one measurement.
func (t Telemetry) Validate() error {
	if strings.TrimSpace(t.DeviceID) == "" {
		return errors.New("device_id is required")
	}
	if t.GravitySG == nil && t.TemperatureC == nil && t.BatteryV == nil {
		return errors.New("no measurements")
	}
	return nil
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
