package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"brewtracker/internal/brewing"
	"brewtracker/internal/modules/fermentation/repository"
	"brewtracker/internal/modules/fermentation/types"
	"brewtracker/internal/mqtt"
	"brewtracker/internal/telemetry"
	"brewtracker/internal/units"
)

type Service struct {
	repository repository.FermentationRepository
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(repository repository.FermentationRepository, logger *slog.Logger) *Service {
	return &Service{repository: repository, logger: logger, now: time.Now}
}

func (s *Service) Register(subscriber *mqtt.Subscriber) {
	registerMQTTHandler(subscriber, s, s.logger)
}

// HandleTelemetry stores one telemetry message, registering the device the
// first time it reports. A name sent by the device replaces the stored one.
func (s *Service) HandleTelemetry(ctx context.Context, t telemetry.Telemetry) error {
	if t.DeviceName != "" {
		if err := s.repository.UpsertDevice(ctx, types.Device{ID: t.DeviceID, Name: t.DeviceName, Kind: t.Kind}); err != nil {
			return err
		}
	} else if _, err := s.repository.GetDevice(ctx, t.DeviceID); err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			return err
		}
		if err := s.repository.UpsertDevice(ctx, types.Device{ID: t.DeviceID, Kind: t.Kind}); err != nil {
			return err
		}
		s.logger.Info("registered device", "device_id", t.DeviceID, "kind", t.Kind)
	}

	return s.repository.InsertReading(ctx, types.Reading{
		DeviceID:     t.DeviceID,
		Time:         t.Timestamp,
		GravitySG:    t.GravitySG,
		TemperatureC: t.TemperatureC,
		BatteryV:     t.BatteryV,
		RSSI:         t.RSSI,
	})
}

// StartSession creates an active session for an existing device.
func (s *Service) StartSession(ctx context.Context, in types.NewSession) (types.Session, error) {
	if in.Name == "" {
		return types.Session{}, fmt.Errorf("name is required: %w", types.ErrInvalid)
	}
	dev, err := s.repository.GetDevice(ctx, in.DeviceID)
	if err != nil {
		return types.Session{}, err
	}
	now := s.now().UTC()
	started := now
	if in.StartedAt != nil {
		started = in.StartedAt.UTC()
		if started.After(now) {
			return types.Session{}, fmt.Errorf("startedAt %s is in the future: %w", started.Format(time.RFC3339), types.ErrInvalid)
		}
	}
	sess := types.Session{
		ID:         uuid.New(),
		Name:       in.Name,
		DeviceID:   dev.ID,
		Style:      in.Style,
		OG:         in.OG,
		TargetFG:   in.TargetFG,
		BatchSizeL: in.BatchSizeL,
		SRM:        in.SRM,
		IBU:        in.IBU,
		Status:     types.StatusActive,
		StartedAt:  started,
	}
	if err := s.repository.CreateSession(ctx, sess); err != nil {
		return types.Session{}, err
	}
	return sess, nil
}

func (s *Service) EndSession(ctx context.Context, id uuid.UUID) (types.Session, error) {
	if err := s.repository.EndSession(ctx, id, s.now().UTC()); err != nil {
		return types.Session{}, err
	}
	return s.repository.GetSession(ctx, id)
}

// SessionStats reports a session's progress from the newest reading taken
// while it ran, rendered in the given unit system.
func (s *Service) SessionStats(ctx context.Context, id uuid.UUID, system units.System) (types.SessionStats, error) {
	sess, err := s.repository.GetSession(ctx, id)
	if err != nil {
		return types.SessionStats{}, err
	}

	end := s.now().UTC()
	if sess.EndedAt != nil {
		end = *sess.EndedAt
	}
	readings, err := s.repository.GetReadings(ctx, sess.DeviceID, sess.StartedAt, end, 1, 0)
	if err != nil {
		return types.SessionStats{}, fmt.Errorf("latest reading: %w", err)
	}

	og, fg := value(sess.OG), value(sess.TargetFG)
	srm, ibu := value(sess.SRM), value(sess.IBU)
	stats := types.SessionStats{
		SessionID:      sess.ID.String(),
		Name:           sess.Name,
		Status:         string(sess.Status),
		System:         system.String(),
		OG:             units.FormatGravity(og),
		TargetFG:       units.FormatGravity(fg),
		CurrentGravity: units.FormatGravity(0),
		Temperature:    units.FormatTemperature(0, "c", system),
		ABV:            units.FormatAbv(0),
		Attenuation:    units.FormatAttenuation(0),
		Elapsed:        units.FormatTime(end.Sub(sess.StartedAt).Minutes()),
		BatchSize:      units.FormatBatchSize(value(sess.BatchSizeL), "l", system),
		SRM:            units.FormatSrm(srm),
		Colour:         units.SrmColour(srm),
		ColourName:     units.SrmDescription(srm),
		Strength:       units.AbvDescription(0),
		Bitterness:     units.IbuDescription(ibu),
		Balance:        units.BalanceDescription(brewing.BUGU(ibu, og)),
	}

	if len(readings) == 0 {
		return stats, nil
	}
	latest := readings[0]
	stats.LastReadingAt = &latest.Time
	if latest.TemperatureC != nil {
		stats.Temperature = units.FormatMeasuredTemperature(*latest.TemperatureC, "c", system)
	}
	if latest.GravitySG != nil {
		current := *latest.GravitySG
		abv := brewing.ABV(og, current)
		stats.CurrentGravity = units.FormatGravity(current)
		stats.ABV = units.FormatAbv(abv)
		stats.Attenuation = units.FormatAttenuation(brewing.ApparentAttenuation(og, current))
		stats.Strength = units.AbvDescription(abv)
	}
	return stats, nil
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
