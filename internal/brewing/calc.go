// Package brewing derives recipe statistics (gravity, strength, colour and
// bitterness) from ingredient lists.
package brewing

import (
	"math"

	"brewtracker/internal/units"
)

const (
	// abvFactor is the simple (OG-FG)*131.25 homebrew approximation.
	abvFactor = 131.25

	defaultAttenuation = 75.0
	defaultEfficiency  = 72.0
)

// ABV estimates alcohol by volume from original and final gravity.
func ABV(og, fg float64) float64 {
	if !validGravity(og) || !validGravity(fg) || og <= fg {
		return 0
	}
	return (og - fg) * abvFactor
}

// ApparentAttenuation is the share of gravity points the yeast consumed,
// as a percentage.
func ApparentAttenuation(og, fg float64) float64 {
	if !validGravity(og) || !validGravity(fg) || og <= 1 || og <= fg {
		return 0
	}
	return (og - fg) / (og - 1) * 100
}

// EstimateFG applies a yeast attenuation percentage to an original gravity.
func EstimateFG(og, attenuationPct float64) float64 {
	if !validGravity(og) {
		return 1
	}
	if units.IsMissing(attenuationPct) || attenuationPct <= 0 {
		attenuationPct = defaultAttenuation
	}
	return 1 + (og-1)*(1-attenuationPct/100)
}

// EstimateOG sums gravity points of the fermentables into batchGal gallons.
// Mashed grains are scaled by the brewhouse efficiency; extracts and sugars
// contribute their full potential.
func EstimateOG(fermentables []Fermentable, batchGal, efficiencyPct float64) float64 {
	if batchGal <= 0 || units.IsMissing(batchGal) {
		return 1
	}
	if units.IsMissing(efficiencyPct) || efficiencyPct <= 0 {
		efficiencyPct = defaultEfficiency
	}
	var points float64
	for _, f := range fermentables {
		eff := efficiencyPct / 100
		if !f.mashed() {
			eff = 1
		}
		points += f.pounds() * f.PPG * eff
	}
	return 1 + points/batchGal/1000
}

// MoreySRM estimates beer colour from malt colour units.
func MoreySRM(fermentables []Fermentable, batchGal float64) float64 {
	if batchGal <= 0 || units.IsMissing(batchGal) {
		return 0
	}
	var mcu float64
	for _, f := range fermentables {
		mcu += f.pounds() * f.Lovibond
	}
	mcu /= batchGal
	if mcu <= 0 {
		return 0
	}
	return 1.4922 * math.Pow(mcu, 0.6859)
}

// TinsethIBU estimates bitterness from boil additions. Dry hops and other
// non-boil uses add nothing.
func TinsethIBU(hops []Hop, og, batchGal float64) float64 {
	if batchGal <= 0 || units.IsMissing(batchGal) {
		return 0
	}
	if !validGravity(og) {
		og = 1
	}
	bigness := 1.65 * math.Pow(0.000125, og-1)

	var ibu float64
	for _, h := range hops {
		if !h.boiled() || h.Time <= 0 {
			continue
		}
		boil := (1 - math.Exp(-0.04*h.Time)) / 4.15
		mgPerL := h.AlphaAcid / 100 * h.ounces() * 7490 / batchGal
		ibu += mgPerL * bigness * boil
	}
	return ibu
}

// BUGU is the bitterness to gravity-points ratio used to describe balance.
func BUGU(ibu, og float64) float64 {
	if !validGravity(og) || og <= 1 || units.IsMissing(ibu) {
		return 0
	}
	return ibu / ((og - 1) * 1000)
}

func validGravity(sg float64) bool {
	return !units.IsMissing(sg) && sg >= 0.9 && sg <= 1.3
}
