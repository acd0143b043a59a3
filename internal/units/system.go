package units

import "strings"

// System is a measurement convention used when presenting quantities.
type System string

const (
	Imperial System = "imperial"
	Metric   System = "metric"
)

// ParseSystem maps user input to a System. Anything unrecognised is Imperial.
func ParseSystem(s string) System {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "metric", "si":
		return Metric
	default:
		return Imperial
	}
}

func (s System) String() string {
	return string(s)
}

// Dimension is the physical quantity a unit measures.
type Dimension int

const (
	Weight Dimension = iota + 1
	Volume
	Temperature
)

func (d Dimension) String() string {
	switch d {
	case Weight:
		return "weight"
	case Volume:
		return "volume"
	case Temperature:
		return "temperature"
	default:
		return "unknown"
	}
}
