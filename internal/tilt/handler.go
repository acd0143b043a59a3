package tilt

import (
	"context"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"brewtracker/internal/mqtt"
	"brewtracker/internal/telemetry"
)

// Publisher is the part of mqtt.Publisher the handler needs.
type Publisher interface {
	PublishTelemetry(t telemetry.Telemetry) error
	PublishDeviceStatus(s mqtt.DeviceStatus) error
}

type lastReading struct {
	major, minor uint16
	publishedAt  time.Time
	seenAt       time.Time
	online       bool
}

// Handler publishes Tilt readings, dropping repeats of an unchanged
// reading inside the dedup window, and tracks which Tilts are online.
type Handler struct {
	publisher Publisher
	prefix    string
	window    time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu   sync.Mutex
	last map[string]*lastReading
}

func NewHandler(publisher Publisher, devicePrefix string, dedupWindow time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		publisher: publisher,
		prefix:    devicePrefix,
		window:    dedupWindow,
		logger:    logger,
		now:       time.Now,
		last:      make(map[string]*lastReading),
	}
}

// DeviceID is the device id a Tilt colour publishes under.
func (h *Handler) DeviceID(c Colour) string {
	return h.prefix + string(c)
}

// HandleMatch decodes a scanner match and publishes it unless it repeats
// the previous reading of that Tilt within the dedup window.
func (h *Handler) HandleMatch(m Match) {
	r, err := Parse(m.Data)
	if err != nil {
		h.logger.Debug("ble: ignore non-tilt payload", "addr", m.Address, "error", err)
		return
	}
	id := h.DeviceID(r.Colour)
	now := h.now()

	h.mu.Lock()
	prev, seen := h.last[id]
	if !seen {
		prev = &lastReading{}
		h.last[id] = prev
	}
	prev.seenAt = now
	duplicate := seen && prev.major == r.major && prev.minor == r.minor && now.Sub(prev.publishedAt) < h.window
	cameOnline := !prev.online
	h.mu.Unlock()

	if cameOnline {
		h.publishStatus(id, now, true)
	}
	if duplicate {
		return
	}

	rssi := int(m.RSSI)
	t := telemetry.Telemetry{
		DeviceID:     id,
		Kind:         "tilt",
		Timestamp:    now.UTC(),
		GravitySG:    telemetry.Float(r.GravitySG),
		TemperatureC: telemetry.Float(r.TemperatureC()),
		RSSI:         &rssi,
		Source:       "tiltbridge",
	}
	if err := h.publisher.PublishTelemetry(t); err != nil {
		h.logger.Warn("ble: failed to publish telemetry", "device_id", id, "error", err)
		return
	}

	h.mu.Lock()
	prev.major, prev.minor, prev.publishedAt = r.major, r.minor, now
	h.mu.Unlock()

	h.logger.Info("ble: tilt reading published",
		"device_id", id,
		"addr", m.Address,
		"rssi", m.RSSI,
		"sg", r.GravitySG,
		"temp_f", r.TemperatureF,
		"high_res", r.HighRes,
		"data", hex.EncodeToString(m.Data),
	)
}

// Sweep marks Tilts not seen for staleAfter as offline.
func (h *Handler) Sweep(staleAfter time.Duration) {
	now := h.now()
	var stale []string

	h.mu.Lock()
	for id, l := range h.last {
		if l.online && now.Sub(l.seenAt) > staleAfter {
			stale = append(stale, id)
		}
	}
	h.mu.Unlock()

	for _, id := range stale {
		h.publishStatus(id, now, false)
	}
}

func (h *Handler) publishStatus(id string, now time.Time, online bool) {
	h.mu.Lock()
	l := h.last[id]
	lastSeen := l.seenAt
	h.mu.Unlock()

	err := h.publisher.PublishDeviceStatus(mqtt.DeviceStatus{DeviceID: id, LastSeen: lastSeen.UTC(), Online: online})
	if err != nil {
		h.logger.Warn("ble: failed to publish device status", "device_id", id, "online", online, "error", err)
		return
	}

	h.mu.Lock()
	l.online = online
	h.mu.Unlock()
	h.logger.Info("ble: tilt status changed", "device_id", id, "online", online, "checked_at", now.UTC())
}

// Run scans with listener and sweeps stale Tilts until ctx is cancelled.
func (h *Handler) Run(ctx context.Context, listener *Listener, staleAfter time.Duration) error {
	errCh := make(chan error, 1)
	go func() { errCh <- listener.Run(ctx, h.HandleMatch) }()

	ticker := time.NewTicker(staleAfter / 2)
	defer ticker.Stop()
	for {
		select {
		case err := <-errCh:
			return err
		case <-ticker.C:
			h.Sweep(staleAfter)
		}
	}
}
