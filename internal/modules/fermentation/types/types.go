package types

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
)

type Device struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"createdAt"`
}

type SessionStatus string

const (
	StatusActive SessionStatus = "active"
	StatusEnded  SessionStatus = "ended"
)

// Session is one fermentation tracked by a device. Gravity is specific
// gravity and BatchSizeL litres.
type Session struct {
	ID         uuid.UUID     `json:"id"`
	Name       string        `json:"name"`
	DeviceID   string        `json:"deviceId"`
	Style      string        `json:"style,omitempty"`
	OG         *float64      `json:"og,omitempty"`
	TargetFG   *float64      `json:"targetFg,omitempty"`
	BatchSizeL *float64      `json:"batchSizeL,omitempty"`
	SRM        *float64      `json:"srm,omitempty"`
	IBU        *float64      `json:"ibu,omitempty"`
	Status     SessionStatus `json:"status"`
	StartedAt  time.Time     `json:"startedAt"`
	EndedAt    *time.Time    `json:"endedAt,omitempty"`
}

// NewSession is the body of a create-session request.
type NewSession struct {
	Name       string     `json:"name"`
	DeviceID   string     `json:"deviceId"`
	Style      string     `json:"style,omitempty"`
	OG         *float64   `json:"og,omitempty"`
	TargetFG   *float64   `json:"targetFg,omitempty"`
	BatchSizeL *float64   `json:"batchSizeL,omitempty"`
	SRM        *float64   `json:"srm,omitempty"`
	IBU        *float64   `json:"ibu,omitempty"`
	StartedAt  *time.Time `json:"startedAt,omitempty"`
}

type Reading struct {
	DeviceID     string    `json:"deviceId"`
	Time         time.Time `json:"time"`
	GravitySG    *float64  `json:"gravitySg,omitempty"`
	TemperatureC *float64  `json:"temperatureC,omitempty"`
	BatteryV     *float64  `json:"batteryV,omitempty"`
	RSSI         *int      `json:"rssi,omitempty"`
}

// SessionStats is a session's progress rendered in one unit system.
type SessionStats struct {
	SessionID      string     `json:"sessionId"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	System         string     `json:"system"`
	OG             string     `json:"og"`
	TargetFG       string     `json:"targetFg"`
	CurrentGravity string     `json:"currentGravity"`
	Temperature    string     `json:"temperature"`
	ABV            string     `json:"abv"`
	Attenuation    string     `json:"attenuation"`
	Elapsed        string     `json:"elapsed"`
	BatchSize      string     `json:"batchSize"`
	SRM            string     `json:"srm"`
	Colour         string     `json:"colour"`
	ColourName     string     `json:"colourName"`
	Strength       string     `json:"strength"`
	Bitterness     string     `json:"bitterness"`
	Balance        string     `json:"balance"`
	LastReadingAt  *time.Time `json:"lastReadingAt,omitempty"`
}
