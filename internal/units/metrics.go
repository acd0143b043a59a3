package units

// FormatGravity renders a specific gravity such as 1.048 with three decimals.
// Missing or zero gravity renders as water, "1.000".
func FormatGravity(v float64) string {
	if falsy(v) {
		return "1.000"
	}
	return fixed(v, 3)
}

// FormatAbv renders alcohol by volume, one decimal by default: "5.2%".
func FormatAbv(v float64, decimals ...int) string {
	return percent(v, decimalsOr(decimals, 1))
}

// FormatIbu renders bitterness as a whole number by default.
func FormatIbu(v float64, decimals ...int) string {
	if falsy(v) {
		v = 0
	}
	return fixed(v, decimalsOr(decimals, 0))
}

// FormatSrm renders beer colour, one decimal by default.
func FormatSrm(v float64, decimals ...int) string {
	if falsy(v) {
		v = 0
	}
	return fixed(v, decimalsOr(decimals, 1))
}

// FormatEfficiency renders brewhouse efficiency as a percentage.
func FormatEfficiency(v float64, decimals ...int) string {
	return percent(v, decimalsOr(decimals, 1))
}

// FormatAttenuation renders yeast attenuation as a percentage.
func FormatAttenuation(v float64, decimals ...int) string {
	return percent(v, decimalsOr(decimals, 1))
}

// FormatPercentage renders any percentage value.
func FormatPercentage(v float64, decimals ...int) string {
	return percent(v, decimalsOr(decimals, 1))
}

func percent(v float64, decimals int) string {
	if falsy(v) {
		v = 0
	}
	return fixed(v, decimals) + "%"
}

func decimalsOr(decimals []int, def int) int {
	if len(decimals) > 0 && decimals[0] >= 0 {
		return decimals[0]
	}
	return def
}
