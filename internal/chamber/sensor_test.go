package chamber

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"

	"brewtracker/internal/telemetry"
)

type fakeSensor struct {
	celsius float64
	err     error
}

func (f *fakeSensor) Sense(env *physic.Env) error {
	if f.err != nil {
		return f.err
	}
	env.Temperature = physic.ZeroCelsius + physic.Temperature(f.celsius*float64(physic.Celsius))
	env.Humidity = 55 * physic.PercentRH
	return nil
}

type recordingPublisher struct {
	got []telemetry.Telemetry
	err error
}

func (r *recordingPublisher) PublishTelemetry(t telemetry.Telemetry) error {
	if r.err != nil {
		return r.err
	}
	r.got = append(r.got, t)
	return nil
}

func newTestProbe(s sensor, interval time.Duration) *Probe {
	return &Probe{
		deviceID: "chamber",
		interval: interval,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		sensor:   s,
	}
}

func TestPublishOnce(t *testing.T) {
	p := newTestProbe(&fakeSensor{celsius: 18.5}, time.Minute)
	pub := &recordingPublisher{}

	if err := p.publishOnce(pub, 7); err != nil {
		t.Fatalf("publishOnce() = %v", err)
	}
	if len(pub.got) != 1 {
		t.Fatalf("published %d; want 1", len(pub.got))
	}
	got := pub.got[0]
	if got.DeviceID != "chamber" || got.Kind != "chamber" || *got.Sequence != 7 {
		t.Errorf("telemetry = %+v", got)
	}
	if math.Abs(*got.TemperatureC-18.5) > 0.01 {
		t.Errorf("TemperatureC = %v; want 18.5", *got.TemperatureC)
	}
	if got.GravitySG != nil {
		t.Error("chamber reading carries a gravity")
	}
}

func TestPublishOnce_Errors(t *testing.T) {
	p := newTestProbe(&fakeSensor{err: errors.New("i2c nack")}, time.Minute)
	if err := p.publishOnce(&recordingPublisher{}, 1); err == nil {
		t.Error("publishOnce() with failing sensor = nil; want error")
	}

	p = newTestProbe(&fakeSensor{celsius: 20}, time.Minute)
	if err := p.publishOnce(&recordingPublisher{err: errors.New("offline")}, 1); err == nil {
		t.Error("publishOnce() with failing publisher = nil; want error")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	p := newTestProbe(&fakeSensor{celsius: 20}, 5*time.Millisecond)
	pub := &recordingPublisher{}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	err := p.Run(ctx, pub)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() = %v; want deadline exceeded", err)
	}
	if len(pub.got) == 0 {
		t.Error("Run() published nothing")
	}
}
