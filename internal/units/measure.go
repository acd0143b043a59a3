package units

// FormatWeight converts a weight into the natural unit for system and
// renders it with that unit's precision: 500 g is "1.1 lb" in imperial and
// "500 g" in metric. An empty unit means grams.
func FormatWeight(v float64, unit string, system System) string {
	return formatMeasure(v, unit, "g", Weight, system)
}

// FormatVolume does for volumes what FormatWeight does for weights. An
// empty unit means litres.
func FormatVolume(v float64, unit string, system System) string {
	return formatMeasure(v, unit, "l", Volume, system)
}

// FormatTemperature renders a temperature in °F (whole degrees) or °C (one
// decimal). An empty unit means Celsius.
func FormatTemperature(v float64, unit string, system System) string {
	if falsy(v) {
		return "-"
	}
	return FormatMeasuredTemperature(v, unit, system)
}

// FormatMeasuredTemperature is FormatTemperature for a value known to be a
// real reading: 0 °C renders as "32°F" or "0.0°C". Only NaN and ±Inf are
// missing.
func FormatMeasuredTemperature(v float64, unit string, system System) string {
	if IsMissing(v) {
		return "-"
	}
	from := unitOr(unit, "c")
	if dim, ok := UnitDimension(from); !ok || dim != Temperature {
		return trimmed(v) + " " + unit
	}
	target := BaseUnit(system, Temperature)
	c := ConvertUnit(v, from, target)
	return fixed(c.Value, precision[target]) + UnitLabel(target)
}

// FormatBatchSize renders a batch volume always in gallons or litres.
func FormatBatchSize(v float64, unit string, system System) string {
	if falsy(v) {
		return "-"
	}
	from := unitOr(unit, "l")
	if dim, ok := UnitDimension(from); !ok || dim != Volume {
		return trimmed(v) + " " + unit
	}
	target := BaseUnit(system, Volume)
	c := ConvertUnit(v, from, target)
	return fixed(c.Value, 1) + " " + UnitLabel(target)
}

// FormatIngredientAmount renders a recipe ingredient quantity. Weights and
// volumes are converted; counted units such as "pkg" or "tsp" pass through.
func FormatIngredientAmount(v float64, unit string, system System) string {
	if falsy(v) {
		return "-"
	}
	dim, ok := UnitDimension(unit)
	switch {
	case ok && dim == Weight:
		return FormatWeight(v, unit, system)
	case ok && dim == Volume:
		return FormatVolume(v, unit, system)
	case unit == "":
		return trimmed(v)
	default:
		return trimmed(v) + " " + unit
	}
}

func formatMeasure(v float64, unit, fallback string, dim Dimension, system System) string {
	if falsy(v) {
		return "-"
	}
	from := unitOr(unit, fallback)
	if d, ok := UnitDimension(from); !ok || d != dim {
		return trimmed(v) + " " + unit
	}
	base := BaseUnit(system, dim)
	inBase := ConvertUnit(v, from, base).Value
	display := AppropriateUnit(system, dim, inBase)
	out := roundTo(ConvertUnit(inBase, base, display).Value, precision[display])
	// 999.7 g rounds to 1000 g, which is displayed as 1.00 kg.
	if up := AppropriateUnit(system, dim, ConvertUnit(out, display, base).Value); up != display {
		display = up
		out = ConvertUnit(inBase, base, display).Value
	}
	return fixed(out, precision[display]) + " " + UnitLabel(display)
}

func unitOr(unit, fallback string) string {
	if NormalizeUnit(unit) == "" {
		return fallback
	}
	return unit
}
