package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"brewtracker/internal/telemetry"
)

// Decode parses a telemetry payload received on topic. A missing device id
// is taken from the topic; a missing timestamp becomes now.
func Decode(topic string, payload []byte, now time.Time) (telemetry.Telemetry, error) {
	var t telemetry.Telemetry
	if err := json.Unmarshal(payload, &t); err != nil {
		return telemetry.Telemetry{}, fmt.Errorf("parse telemetry: %w", err)
	}

	topicID, err := telemetry.DeviceFromTopic(topic)
	if err != nil {
		return telemetry.Telemetry{}, err
	}
	switch {
	case t.DeviceID == "":
		t.DeviceID = topicID
	case t.DeviceID != topicID:
		return telemetry.Telemetry{}, fmt.Errorf("device_id %q does not match topic %q", t.DeviceID, topic)
	}

	if t.Timestamp.IsZero() {
		t.Timestamp = now
	}
	t.Timestamp = t.Timestamp.UTC()

	if err := t.Validate(); err != nil {
		return telemetry.Telemetry{}, err
	}
	return t, nil
}
