package units

import "math"

type band struct {
	upper float64
	label string
}

// classify returns the label of the first band whose upper bound is >= v.
// Bands must be sorted by upper bound and end with +Inf.
func classify(bands []band, v float64) string {
	if IsMissing(v) {
		v = 0
	}
	for _, b := range bands {
		if v <= b.upper {
			return b.label
		}
	}
	return bands[len(bands)-1].label
}

var inf = math.Inf(1)

// srmColours runs from pale straw to black.
var srmColours = []band{
	{0, "#FFE699"},
	{1, "#FFD878"},
	{3, "#FFBF42"},
	{6, "#F39C00"},
	{10, "#D77200"},
	{20, "#A13700"},
	{30, "#5A0A02"},
	{inf, "#000000"},
}

var ibuBands = []band{
	{5, "Very Low"},
	{20, "Low"},
	{40, "Moderate"},
	{60, "High"},
	{inf, "Very High"},
}

var abvBands = []band{
	{3.5, "Session"},
	{5.5, "Standard"},
	{7.5, "Strong"},
	{10, "Very Strong"},
	{inf, "Extremely Strong"},
}

var srmBands = []band{
	{2, "Very Pale"},
	{4, "Pale"},
	{6, "Gold"},
	{10, "Amber"},
	{17, "Copper"},
	{25, "Brown"},
	{35, "Dark Brown"},
	{inf, "Black"},
}

// balanceBands classify the BU:GU ratio.
var balanceBands = []band{
	{0.3, "Very Malty"},
	{0.5, "Malty"},
	{0.7, "Balanced"},
	{0.9, "Hoppy"},
	{inf, "Very Hoppy"},
}

// SrmColour maps an SRM value to a hex colour. Negative or missing values
// get the palest colour.
func SrmColour(v float64) string {
	if IsMissing(v) || v < 0 {
		return srmColours[0].label
	}
	return classify(srmColours, v)
}

// IbuDescription names the perceived bitterness of an IBU value.
func IbuDescription(v float64) string { return classify(ibuBands, v) }

// AbvDescription names the strength of an ABV percentage.
func AbvDescription(v float64) string { return classify(abvBands, v) }

// SrmDescription names the colour of an SRM value.
func SrmDescription(v float64) string { return classify(srmBands, v) }

// BalanceDescription names the malt/hop balance of a BU:GU ratio.
func BalanceDescription(v float64) string { return classify(balanceBands, v) }
