package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"brewtracker/internal/modules/fermentation/types"
)

//go:embed sql/get-devices.sql
var getDevicesSQL string

//go:embed sql/get-device.sql
var getDeviceSQL string

//go:embed sql/upsert-device.sql
var upsertDeviceSQL string

//go:embed sql/get-sessions.sql
var getSessionsSQL string

//go:embed sql/get-session.sql
var getSessionSQL string

//go:embed sql/insert-session.sql
var insertSessionSQL string

//go:embed sql/end-session.sql
var endSessionSQL string

//go:embed sql/get-latest-readings.sql
var getLatestReadingsSQL string

//go:embed sql/get-readings.sql
var getReadingsSQL string

//go:embed sql/get-readings-count.sql
var getReadingsCountSQL string

//go:embed sql/insert-reading.sql
var insertReadingSQL string

// tsLayout has a fixed-width fraction so stored timestamps sort as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

// Accepted measurement ranges; readings outside them are sensor faults.
const (
	minGravity     = 0.98
	maxGravity     = 1.2
	minTemperature = -20.0
	maxTemperature = 110.0
)

type FermentationRepository interface {
	GetDevices(ctx context.Context) ([]types.Device, error)
	GetDevice(ctx context.Context, idOrName string) (types.Device, error)
	UpsertDevice(ctx context.Context, d types.Device) error

	GetSessions(ctx context.Context, status types.SessionStatus) ([]types.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (types.Session, error)
	CreateSession(ctx context.Context, s types.Session) error
	EndSession(ctx context.Context, id uuid.UUID, endedAt time.Time) error

	GetLatestReadings(ctx context.Context, deviceID string, limit int) ([]types.Reading, error)
	GetReadings(ctx context.Context, deviceID string, from, to time.Time, limit, offset int) ([]types.Reading, error)
	GetReadingsCount(ctx context.Context, deviceID string, from, to time.Time) (int, error)
	InsertReading(ctx context.Context, r types.Reading) error
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) FermentationRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) GetDevices(ctx context.Context) ([]types.Device, error) {
	rows, err := r.db.QueryContext(ctx, getDevicesSQL)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "devices")

	var out []types.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetDevice looks a device up by id, falling back to its name.
func (r *repositoryImpl) GetDevice(ctx context.Context, idOrName string) (types.Device, error) {
	row := r.db.QueryRowContext(ctx, getDeviceSQL, sql.Named("key", idOrName))
	d, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Device{}, fmt.Errorf("device %q: %w", idOrName, types.ErrNotFound)
	}
	return d, err
}

func (r *repositoryImpl) UpsertDevice(ctx context.Context, d types.Device) error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("device id is required: %w", types.ErrInvalid)
	}
	if d.Name == "" {
		d.Name = d.ID
	}
	if d.Kind == "" {
		d.Kind = "tilt"
	}
	_, err := r.db.ExecContext(ctx, upsertDeviceSQL,
		sql.Named("id", d.ID),
		sql.Named("name", d.Name),
		sql.Named("kind", d.Kind),
	)
	if err != nil {
		return fmt.Errorf("upsert device %q: %w", d.ID, err)
	}
	return nil
}

// GetSessions lists sessions, newest first. An empty status lists all.
func (r *repositoryImpl) GetSessions(ctx context.Context, status types.SessionStatus) ([]types.Session, error) {
	rows, err := r.db.QueryContext(ctx, getSessionsSQL, sql.Named("status", string(status)))
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "sessions")

	var out []types.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) GetSession(ctx context.Context, id uuid.UUID) (types.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, getSessionSQL, sql.Named("id", id.String())))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Session{}, fmt.Errorf("session %s: %w", id, types.ErrNotFound)
	}
	return s, err
}

func (r *repositoryImpl) CreateSession(ctx context.Context, s types.Session) error {
	if s.OG != nil && !inRange(*s.OG, minGravity, maxGravity) {
		return fmt.Errorf("og out of range: %v (must be %v-%v): %w", *s.OG, minGravity, maxGravity, types.ErrInvalid)
	}
	if s.TargetFG != nil && !inRange(*s.TargetFG, minGravity, maxGravity) {
		return fmt.Errorf("target fg out of range: %v (must be %v-%v): %w", *s.TargetFG, minGravity, maxGravity, types.ErrInvalid)
	}
	_, err := r.db.ExecContext(ctx, insertSessionSQL,
		sql.Named("id", s.ID.String()),
		sql.Named("name", s.Name),
		sql.Named("device_id", s.DeviceID),
		sql.Named("style", nullString(s.Style)),
		sql.Named("og", nullFloat(s.OG)),
		sql.Named("target_fg", nullFloat(s.TargetFG)),
		sql.Named("batch_size_l", nullFloat(s.BatchSizeL)),
		sql.Named("srm", nullFloat(s.SRM)),
		sql.Named("ibu", nullFloat(s.IBU)),
		sql.Named("started_at", formatTS(s.StartedAt)),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// EndSession marks an active session ended. Ending an unknown or already
// ended session reports ErrNotFound.
func (r *repositoryImpl) EndSession(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, endSessionSQL,
		sql.Named("id", id.String()),
		sql.Named("ended_at", formatTS(endedAt)),
	)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("active session %s: %w", id, types.ErrNotFound)
	}
	return nil
}

func (r *repositoryImpl) GetLatestReadings(ctx context.Context, deviceID string, limit int) ([]types.Reading, error) {
	rows, err := r.db.QueryContext(ctx, getLatestReadingsSQL,
		sql.Named("device_id", deviceID),
		sql.Named("limit", limit),
	)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "latest readings")
	return scanReadings(rows)
}

// GetReadings returns readings newest first. A zero from or to leaves that
// side of the window open.
func (r *repositoryImpl) GetReadings(ctx context.Context, deviceID string, from, to time.Time, limit, offset int) ([]types.Reading, error) {
	rows, err := r.db.QueryContext(ctx, getReadingsSQL,
		sql.Named("device_id", deviceID),
		sql.Named("from", zeroAsNull(from)),
		sql.Named("to", zeroAsNull(to)),
		sql.Named("limit", limit),
		sql.Named("offset", offset),
	)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "readings")
	return scanReadings(rows)
}

func (r *repositoryImpl) GetReadingsCount(ctx context.Context, deviceID string, from, to time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, getReadingsCountSQL,
		sql.Named("device_id", deviceID),
		sql.Named("from", zeroAsNull(from)),
		sql.Named("to", zeroAsNull(to)),
	).Scan(&n)
	return n, err
}

// InsertReading stores a reading. DeviceID may be a device id or name.
// A reading with the same device and timestamp is ignored.
func (r *repositoryImpl) InsertReading(ctx context.Context, rd types.Reading) error {
	dev, err := r.GetDevice(ctx, rd.DeviceID)
	if err != nil {
		return err
	}

	if rd.GravitySG != nil && !inRange(*rd.GravitySG, minGravity, maxGravity) {
		return fmt.Errorf("gravity_sg out of range: %v (must be %v-%v): %w", *rd.GravitySG, minGravity, maxGravity, types.ErrInvalid)
	}
	if rd.TemperatureC != nil && !inRange(*rd.TemperatureC, minTemperature, maxTemperature) {
		return fmt.Errorf("temperature_c out of range: %v (must be %v-%v): %w", *rd.TemperatureC, minTemperature, maxTemperature, types.ErrInvalid)
	}
	if rd.BatteryV != nil && *rd.BatteryV < 0 {
		return fmt.Errorf("battery_v must not be negative: %v: %w", *rd.BatteryV, types.ErrInvalid)
	}

	var rssi any
	if rd.RSSI != nil {
		rssi = *rd.RSSI
	}
	_, err = r.db.ExecContext(ctx, insertReadingSQL,
		sql.Named("device_id", dev.ID),
		sql.Named("ts", formatTS(rd.Time)),
		sql.Named("gravity_sg", nullFloat(rd.GravitySG)),
		sql.Named("temperature_c", nullFloat(rd.TemperatureC)),
		sql.Named("battery_v", nullFloat(rd.BatteryV)),
		sql.Named("rssi", rssi),
	)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(s scanner) (types.Device, error) {
	var d types.Device
	var created string
	if err := s.Scan(&d.ID, &d.Name, &d.Kind, &created); err != nil {
		return types.Device{}, err
	}
	t, err := parseTS(created)
	if err != nil {
		return types.Device{}, err
	}
	d.CreatedAt = t
	return d, nil
}

func scanSession(s scanner) (types.Session, error) {
	var (
		out                     types.Session
		id, status, started     string
		style, ended            sql.NullString
		og, fg, batch, srm, ibu sql.NullFloat64
	)
	if err := s.Scan(&id, &out.Name, &out.DeviceID, &style, &og, &fg, &batch, &srm, &ibu, &status, &started, &ended); err != nil {
		return types.Session{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return types.Session{}, fmt.Errorf("parse session id %q: %w", id, err)
	}
	out.ID = parsed
	out.Style = style.String
	out.OG = floatPtr(og)
	out.TargetFG = floatPtr(fg)
	out.BatchSizeL = floatPtr(batch)
	out.SRM = floatPtr(srm)
	out.IBU = floatPtr(ibu)
	out.Status = types.SessionStatus(status)
	if out.StartedAt, err = parseTS(started); err != nil {
		return types.Session{}, err
	}
	if ended.Valid {
		t, err := parseTS(ended.String)
		if err != nil {
			return types.Session{}, err
		}
		out.EndedAt = &t
	}
	return out, nil
}

func scanReadings(rows *sql.Rows) ([]types.Reading, error) {
	var out []types.Reading
	for rows.Next() {
		var (
			rec                    types.Reading
			ts                     string
			gravity, temp, battery sql.NullFloat64
			rssi                   sql.NullInt64
		)
		if err := rows.Scan(&rec.DeviceID, &ts, &gravity, &temp, &battery, &rssi); err != nil {
			return nil, err
		}
		t, err := parseTS(ts)
		if err != nil {
			return nil, err
		}
		rec.Time = t
		rec.GravitySG = floatPtr(gravity)
		rec.TemperatureC = floatPtr(temp)
		rec.BatteryV = floatPtr(battery)
		if rssi.Valid {
			v := int(rssi.Int64)
			rec.RSSI = &v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func parseTS(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func formatTS(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func zeroAsNull(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTS(t)
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Error("close rows", "what", what, "error", err)
	}
}
