package tilt

import (
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"brewtracker/internal/mqtt"
	"brewtracker/internal/telemetry"
)

func payload(t *testing.T, beacon string, major, minor uint16) []byte {
	t.Helper()
	b := append([]byte(nil), IBeaconPrefix...)
	id := uuid.MustParse(beacon)
	b = append(b, id[:]...)
	b = binary.BigEndian.AppendUint16(b, major)
	b = binary.BigEndian.AppendUint16(b, minor)
	return append(b, 0xC5)
}

const redUUID = "a495bb10-c5b1-4b44-b512-1370f02d74de"

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		colour  Colour
		tempF   float64
		sg      float64
		highRes bool
	}{
		{"red standard", payload(t, redUUID, 68, 1052), Red, 68, 1.052, false},
		{"pink standard", payload(t, "a495bb80-c5b1-4b44-b512-1370f02d74de", 72, 998), Pink, 72, 0.998, false},
		{"blue high resolution", payload(t, "a495bb60-c5b1-4b44-b512-1370f02d74de", 685, 10523), Blue, 68.5, 1.0523, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.data)
			if err != nil {
				t.Fatalf("Parse() err = %v", err)
			}
			if r.Colour != tt.colour || r.HighRes != tt.highRes {
				t.Errorf("colour, highRes = %s, %v; want %s, %v", r.Colour, r.HighRes, tt.colour, tt.highRes)
			}
			if math.Abs(r.TemperatureF-tt.tempF) > 1e-9 || math.Abs(r.GravitySG-tt.sg) > 1e-9 {
				t.Errorf("temp, sg = %v, %v; want %v, %v", r.TemperatureF, r.GravitySG, tt.tempF, tt.sg)
			}
			if r.TxPower != -59 {
				t.Errorf("TxPower = %d; want -59", r.TxPower)
			}
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	good := payload(t, redUUID, 68, 1052)
	otherBeacon := payload(t, "11111111-2222-3333-4444-555555555555", 68, 1052)
	notIBeacon := append([]byte{0x01, 0x15}, good[2:]...)

	for name, data := range map[string][]byte{
		"short":       good[:10],
		"not ibeacon": notIBeacon,
		"other uuid":  otherBeacon,
		"starting up": payload(t, redUUID, 999, 1052),
	} {
		if _, err := Parse(data); err == nil {
			t.Errorf("%s: Parse() err = nil; want error", name)
		}
	}
}

func TestReading_TemperatureC(t *testing.T) {
	r := Reading{TemperatureF: 68}
	if got := r.TemperatureC(); math.Abs(got-20) > 1e-9 {
		t.Errorf("TemperatureC() = %v; want 20", got)
	}
}

func TestColour_DisplayName(t *testing.T) {
	if got := Red.DisplayName(); got != "Red Tilt" {
		t.Errorf("DisplayName() = %q; want Red Tilt", got)
	}
}

type fakePublisher struct {
	telemetry []telemetry.Telemetry
	statuses  []mqtt.DeviceStatus
	err       error
}

func (f *fakePublisher) PublishTelemetry(t telemetry.Telemetry) error {
	if f.err != nil {
		return f.err
	}
	f.telemetry = append(f.telemetry, t)
	return nil
}

func (f *fakePublisher) PublishDeviceStatus(s mqtt.DeviceStatus) error {
	f.statuses = append(f.statuses, s)
	return nil
}

func newTestHandler(pub Publisher, clock *time.Time) *Handler {
	h := NewHandler(pub, "tilt-", 30*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.now = func() time.Time { return *clock }
	return h
}

func TestHandler_Dedup(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	pub := &fakePublisher{}
	h := newTestHandler(pub, &now)

	h.HandleMatch(Match{Address: "AA:BB", RSSI: -70, Data: payload(t, redUUID, 68, 1052)})
	if len(pub.telemetry) != 1 {
		t.Fatalf("published %d; want 1", len(pub.telemetry))
	}
	got := pub.telemetry[0]
	if got.DeviceID != "tilt-red" || got.Kind != "tilt" || *got.GravitySG != 1.052 || *got.RSSI != -70 {
		t.Errorf("telemetry = %+v", got)
	}
	if math.Abs(*got.TemperatureC-20) > 1e-9 {
		t.Errorf("TemperatureC = %v; want 20", *got.TemperatureC)
	}
	if len(pub.statuses) != 1 || !pub.statuses[0].Online {
		t.Errorf("statuses = %+v; want one online", pub.statuses)
	}

	// Same reading inside the window is dropped.
	now = now.Add(10 * time.Second)
	h.HandleMatch(Match{Data: payload(t, redUUID, 68, 1052)})
	if len(pub.telemetry) != 1 {
		t.Errorf("duplicate published; total %d", len(pub.telemetry))
	}

	// A changed reading goes out immediately.
	h.HandleMatch(Match{Data: payload(t, redUUID, 68, 1051)})
	if len(pub.telemetry) != 2 {
		t.Errorf("changed reading not published; total %d", len(pub.telemetry))
	}

	// The same reading again after the window.
	now = now.Add(31 * time.Second)
	h.HandleMatch(Match{Data: payload(t, redUUID, 68, 1051)})
	if len(pub.telemetry) != 3 {
		t.Errorf("reading after window not published; total %d", len(pub.telemetry))
	}
	if len(pub.statuses) != 1 {
		t.Errorf("status republished while online: %+v", pub.statuses)
	}

	h.HandleMatch(Match{Data: []byte{0x02, 0x15, 0x00}})
	if len(pub.telemetry) != 3 {
		t.Error("garbage payload published")
	}
}

func TestHandler_PublishFailureRetries(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	pub := &fakePublisher{err: errors.New("not connected")}
	h := newTestHandler(pub, &now)

	h.HandleMatch(Match{Data: payload(t, redUUID, 68, 1052)})
	pub.err = nil
	h.HandleMatch(Match{Data: payload(t, redUUID, 68, 1052)})
	if len(pub.telemetry) != 1 {
		t.Errorf("published %d after failure; want the retry to go out", len(pub.telemetry))
	}
}

func TestHandler_Sweep(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	pub := &fakePublisher{}
	h := newTestHandler(pub, &now)

	h.HandleMatch(Match{Data: payload(t, redUUID, 68, 1052)})
	now = now.Add(4 * time.Minute)
	h.Sweep(5 * time.Minute)
	if len(pub.statuses) != 1 {
		t.Fatalf("statuses = %+v; want only the online status", pub.statuses)
	}

	now = now.Add(2 * time.Minute)
	h.Sweep(5 * time.Minute)
	if len(pub.statuses) != 2 || pub.statuses[1].Online || pub.statuses[1].DeviceID != "tilt-red" {
		t.Fatalf("statuses = %+v; want tilt-red offline", pub.statuses)
	}
	h.Sweep(5 * time.Minute)
	if len(pub.statuses) != 2 {
		t.Errorf("offline status repeated: %+v", pub.statuses)
	}

	h.HandleMatch(Match{Data: payload(t, redUUID, 68, 1052)})
	if len(pub.statuses) != 3 || !pub.statuses[2].Online {
		t.Errorf("statuses = %+v; want back online", pub.statuses)
	}
}
