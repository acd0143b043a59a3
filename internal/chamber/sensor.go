// Package chamber reads a BME280 in the fermentation chamber and publishes
// its temperature as a device of its own.
package chamber

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"

	"brewtracker/internal/telemetry"
)

type sensor interface {
	Sense(env *physic.Env) error
}

// Publisher is the part of mqtt.Publisher the probe needs.
type Publisher interface {
	PublishTelemetry(t telemetry.Telemetry) error
}

// Probe polls a BME280 on an I²C bus.
type Probe struct {
	deviceID string
	interval time.Duration
	logger   *slog.Logger

	bus    i2c.BusCloser
	dev    *bmxx80.Dev
	sensor sensor
}

// Open initialises the host drivers and the sensor. An empty busName
// opens the default bus, usually /dev/i2c-1.
func Open(busName string, addr uint16, deviceID string, interval time.Duration, logger *slog.Logger) (*Probe, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("bme280 at 0x%02X: %w", addr, err)
	}
	logger.Info("chamber probe ready", "bus", bus.String(), "addr", fmt.Sprintf("0x%02X", addr), "device", dev.String())
	return &Probe{deviceID: deviceID, interval: interval, logger: logger, bus: bus, dev: dev, sensor: dev}, nil
}

// Close halts the sensor and releases the bus.
func (p *Probe) Close() error {
	var haltErr error
	if p.dev != nil {
		haltErr = p.dev.Halt()
	}
	if p.bus != nil {
		if err := p.bus.Close(); err != nil {
			return err
		}
	}
	return haltErr
}

// Run publishes a reading every interval until ctx is cancelled. A failed
// read or publish is logged and retried on the next tick.
func (p *Probe) Run(ctx context.Context, pub Publisher) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	sequence := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			sequence++
			if err := p.publishOnce(pub, sequence); err != nil {
				p.logger.Warn("chamber reading not published", "device_id", p.deviceID, "error", err)
			}
		}
	}
}

func (p *Probe) publishOnce(pub Publisher, sequence int) error {
	var env physic.Env
	if err := p.sensor.Sense(&env); err != nil {
		return fmt.Errorf("sense: %w", err)
	}
	temperature := env.Temperature.Celsius()
	seq := sequence

	t := telemetry.Telemetry{
		DeviceID:     p.deviceID,
		Kind:         "chamber",
		Timestamp:    time.Now().UTC(),
		TemperatureC: &temperature,
		Sequence:     &seq,
		Source:       "bme280",
	}
	if err := pub.PublishTelemetry(t); err != nil {
		return err
	}
	// Humidity is fixed point in 0.00001 %rH; pressure is nano pascal.
	p.logger.Debug("chamber reading published",
		"device_id", p.deviceID,
		"temperature_c", temperature,
		"humidity_pct", float64(env.Humidity)/1e5,
		"pressure_hpa", float64(env.Pressure)/1e11,
		"sequence", seq,
	)
	return nil
}
