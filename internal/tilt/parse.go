// Package tilt turns Tilt hydrometer iBeacon advertisements into telemetry.
package tilt

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"brewtracker/internal/units"
)

const (
	// AppleCompanyID is the manufacturer id iBeacons advertise under.
	AppleCompanyID = 0x004C

	// iBeacon payload: type 0x02, length 0x15, 16-byte UUID, major and
	// minor (big-endian uint16) and a signed tx power byte.
	payloadLen = 23

	// A Tilt reports 999 °F while it is still starting up.
	startupTemperature = 999

	// Standard Tilts send SG×1000 in minor; Tilt Pro sends SG×10000 and
	// tenths of a degree in major.
	highResMinorThreshold = 5000
)

// IBeaconPrefix starts the manufacturer data of every iBeacon.
var IBeaconPrefix = []byte{0x02, 0x15}

// Colour identifies a Tilt. Each colour has its own beacon UUID.
type Colour string

const (
	Red    Colour = "red"
	Green  Colour = "green"
	Black  Colour = "black"
	Purple Colour = "purple"
	Orange Colour = "orange"
	Blue   Colour = "blue"
	Yellow Colour = "yellow"
	Pink   Colour = "pink"
)

var colours = map[uuid.UUID]Colour{
	uuid.MustParse("a495bb10-c5b1-4b44-b512-1370f02d74de"): Red,
	uuid.MustParse("a495bb20-c5b1-4b44-b512-1370f02d74de"): Green,
	uuid.MustParse("a495bb30-c5b1-4b44-b512-1370f02d74de"): Black,
	uuid.MustParse("a495bb40-c5b1-4b44-b512-1370f02d74de"): Purple,
	uuid.MustParse("a495bb50-c5b1-4b44-b512-1370f02d74de"): Orange,
	uuid.MustParse("a495bb60-c5b1-4b44-b512-1370f02d74de"): Blue,
	uuid.MustParse("a495bb70-c5b1-4b44-b512-1370f02d74de"): Yellow,
	uuid.MustParse("a495bb80-c5b1-4b44-b512-1370f02d74de"): Pink,
}

// DisplayName is the colour as shown to people, e.g. "Red Tilt".
func (c Colour) DisplayName() string {
	if c == "" {
		return "Tilt"
	}
	return strings.ToUpper(string(c[:1])) + string(c[1:]) + " Tilt"
}

// Reading is one decoded Tilt advertisement.
type Reading struct {
	Colour       Colour
	TemperatureF float64
	GravitySG    float64
	HighRes      bool
	TxPower      int8

	// major and minor are the raw beacon fields, used for de-duplication.
	major, minor uint16
}

// TemperatureC is the reading's temperature in Celsius.
func (r Reading) TemperatureC() float64 {
	return units.ConvertUnit(r.TemperatureF, "f", "c").Value
}

// Parse decodes Apple manufacturer data from a Tilt. Anything that is not a
// Tilt iBeacon, or a Tilt that is still starting up, is an error.
func Parse(data []byte) (Reading, error) {
	if len(data) < payloadLen {
		return Reading{}, fmt.Errorf("payload too short: %d", len(data))
	}
	if data[0] != IBeaconPrefix[0] || data[1] != IBeaconPrefix[1] {
		return Reading{}, fmt.Errorf("not an ibeacon: %02X %02X", data[0], data[1])
	}
	id, err := uuid.FromBytes(data[2:18])
	if err != nil {
		return Reading{}, err
	}
	colour, ok := colours[id]
	if !ok {
		return Reading{}, fmt.Errorf("unknown beacon uuid %s", id)
	}

	major := binary.BigEndian.Uint16(data[18:20])
	minor := binary.BigEndian.Uint16(data[20:22])
	if major == startupTemperature {
		return Reading{}, fmt.Errorf("%s tilt is starting up", colour)
	}

	r := Reading{
		Colour:  colour,
		TxPower: int8(data[22]),
		major:   major,
		minor:   minor,
	}
	if minor >= highResMinorThreshold {
		r.HighRes = true
		r.TemperatureF = float64(major) / 10
		r.GravitySG = float64(minor) / 10000
	} else {
		r.TemperatureF = float64(major)
		r.GravitySG = float64(minor) / 1000
	}
	return r, nil
}
