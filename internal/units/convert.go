package units

import (
	"math"
	"strings"
)

// Conversion is a value expressed in a unit.
type Conversion struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type unitDef struct {
	dim Dimension
	// toBase multiplies a value in this unit into grams or litres.
	// Unused for temperature.
	toBase float64
}

var unitTable = map[string]unitDef{
	"g":    {dim: Weight, toBase: 1},
	"kg":   {dim: Weight, toBase: 1000},
	"oz":   {dim: Weight, toBase: 28.349523125},
	"lb":   {dim: Weight, toBase: 453.59237},
	"ml":   {dim: Volume, toBase: 0.001},
	"l":    {dim: Volume, toBase: 1},
	"floz": {dim: Volume, toBase: 0.0295735295625},
	"qt":   {dim: Volume, toBase: 0.946352946},
	"gal":  {dim: Volume, toBase: 3.785411784},
	"c":    {dim: Temperature},
	"f":    {dim: Temperature},
}

var unitAliases = map[string]string{
	"gram":        "g",
	"grams":       "g",
	"kilogram":    "kg",
	"kilograms":   "kg",
	"ounce":       "oz",
	"ounces":      "oz",
	"lbs":         "lb",
	"pound":       "lb",
	"pounds":      "lb",
	"milliliter":  "ml",
	"milliliters": "ml",
	"millilitre":  "ml",
	"millilitres": "ml",
	"liter":       "l",
	"liters":      "l",
	"litre":       "l",
	"litres":      "l",
	"fl oz":       "floz",
	"fl_oz":       "floz",
	"fl-oz":       "floz",
	"quart":       "qt",
	"quarts":      "qt",
	"gallon":      "gal",
	"gallons":     "gal",
	"°c":          "c",
	"celsius":     "c",
	"°f":          "f",
	"fahrenheit":  "f",
}

var unitLabels = map[string]string{
	"l":    "L",
	"floz": "fl oz",
	"c":    "°C",
	"f":    "°F",
}

// precision is the number of decimals each display unit gets.
var precision = map[string]int{
	"g":    0,
	"kg":   2,
	"oz":   1,
	"lb":   1,
	"ml":   0,
	"l":    1,
	"floz": 1,
	"qt":   1,
	"gal":  1,
	"c":    1,
	"f":    0,
}

// NormalizeUnit folds case, whitespace and common spellings into the
// canonical unit names used by ConvertUnit ("lbs" -> "lb", "L" -> "l").
func NormalizeUnit(u string) string {
	s := strings.ToLower(strings.TrimSpace(u))
	if canon, ok := unitAliases[s]; ok {
		return canon
	}
	return s
}

// UnitDimension reports the dimension of a unit, if known.
func UnitDimension(u string) (Dimension, bool) {
	def, ok := unitTable[NormalizeUnit(u)]
	if !ok {
		return 0, false
	}
	return def.dim, true
}

// UnitLabel is the display label for a unit.
func UnitLabel(u string) string {
	canon := NormalizeUnit(u)
	if label, ok := unitLabels[canon]; ok {
		return label
	}
	return canon
}

// ConvertUnit converts value from one unit to another. Mass and volume use a
// fixed multiplier table, temperature the affine Celsius/Fahrenheit formula.
//
// Converting to the same unit is the identity. A missing value converts to
// zero in the target unit. Unknown or incompatible units leave the value in
// its original unit.
func ConvertUnit(value float64, fromUnit, toUnit string) Conversion {
	if IsMissing(value) {
		return Conversion{Value: 0, Unit: toUnit}
	}
	from, to := NormalizeUnit(fromUnit), NormalizeUnit(toUnit)
	if fromUnit == toUnit || from == to {
		return Conversion{Value: value, Unit: toUnit}
	}

	fromDef, okFrom := unitTable[from]
	toDef, okTo := unitTable[to]
	if !okFrom || !okTo || fromDef.dim != toDef.dim {
		return Conversion{Value: value, Unit: fromUnit}
	}

	if fromDef.dim == Temperature {
		if from == "c" {
			return Conversion{Value: value*9/5 + 32, Unit: toUnit}
		}
		return Conversion{Value: (value - 32) * 5 / 9, Unit: toUnit}
	}
	return Conversion{Value: value * fromDef.toBase / toDef.toBase, Unit: toUnit}
}

// BaseUnit is the unit a system measures a dimension in before any
// magnitude-based adjustment.
func BaseUnit(system System, dim Dimension) string {
	metric := system == Metric
	switch dim {
	case Weight:
		if metric {
			return "g"
		}
		return "lb"
	case Volume:
		if metric {
			return "l"
		}
		return "gal"
	case Temperature:
		if metric {
			return "c"
		}
		return "f"
	default:
		return ""
	}
}

// AppropriateUnit picks the most natural display unit for a magnitude
// expressed in BaseUnit(system, dim).
func AppropriateUnit(system System, dim Dimension, magnitude float64) string {
	m := math.Abs(magnitude)
	if IsMissing(m) {
		m = 0
	}
	metric := system == Metric
	switch dim {
	case Weight:
		if metric {
			if atLeast(m, 1000) {
				return "kg"
			}
			return "g"
		}
		if atLeast(m, 1) {
			return "lb"
		}
		return "oz"
	case Volume:
		if metric {
			if atLeast(m, 1) {
				return "l"
			}
			return "ml"
		}
		switch {
		case atLeast(m, 1):
			return "gal"
		case atLeast(m, 0.25):
			return "qt"
		default:
			return "floz"
		}
	default:
		return BaseUnit(system, dim)
	}
}

// atLeast tolerates the rounding error picked up by converting into the
// base unit, so one quart is still a quart.
func atLeast(m, threshold float64) bool {
	return m >= threshold-1e-9
}
