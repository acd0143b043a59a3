package units

import (
	"math"
	"strconv"
)

const minutesPerDay = 1440

// FormatTime renders a duration given in minutes: "45 min" below a day,
// whole days ("1 day", "3 days") from there on.
func FormatTime(minutes float64) string {
	if falsy(minutes) {
		return "-"
	}
	if m := math.Round(minutes); m < minutesPerDay {
		return strconv.FormatFloat(m, 'f', 0, 64) + " min"
	}
	days := math.Round(minutes / minutesPerDay)
	if days == 1 {
		return "1 day"
	}
	return strconv.FormatFloat(days, 'f', 0, 64) + " days"
}
