package brewing

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brewtracker/internal/units"
)

func TestABV(t *testing.T) {
	assert.InDelta(t, 5.25, ABV(1.050, 1.010), 1e-9)
	assert.Zero(t, ABV(1.010, 1.050))
	assert.Zero(t, ABV(math.NaN(), 1.010))
	assert.Zero(t, ABV(0, 0))
}

func TestApparentAttenuation(t *testing.T) {
	assert.InDelta(t, 80, ApparentAttenuation(1.050, 1.010), 1e-9)
	assert.Zero(t, ApparentAttenuation(1.000, 1.000))
}

func TestEstimateOG(t *testing.T) {
	grain := []Fermentable{{Name: "2-Row", Amount: 10, Unit: "lb", PPG: 37}}
	assert.InDelta(t, 1.0555, EstimateOG(grain, 5, 75), 1e-9)

	t.Run("extract ignores efficiency", func(t *testing.T) {
		dme := []Fermentable{{Name: "DME", Amount: 1, Unit: "lb", PPG: 44, Type: "extract"}}
		assert.InDelta(t, 1.044, EstimateOG(dme, 1, 50), 1e-9)
	})

	t.Run("metric weights are converted", func(t *testing.T) {
		kg := []Fermentable{{Name: "Pils", Amount: 0.45359237, Unit: "kg", PPG: 37}}
		assert.InDelta(t, 1.037, EstimateOG(kg, 1, 100), 1e-9)
	})

	t.Run("no batch volume", func(t *testing.T) {
		assert.Equal(t, 1.0, EstimateOG(grain, 0, 75))
	})
}

func TestEstimateFG(t *testing.T) {
	assert.InDelta(t, 1.0125, EstimateFG(1.050, 75), 1e-9)
	assert.InDelta(t, 1.0125, EstimateFG(1.050, 0), 1e-9, "falls back to default attenuation")
	assert.Equal(t, 1.0, EstimateFG(math.NaN(), 75))
}

func TestMoreySRM(t *testing.T) {
	grain := []Fermentable{{Amount: 10, Unit: "lb", Lovibond: 2}}
	assert.InDelta(t, 3.862, MoreySRM(grain, 5), 0.01)
	assert.Zero(t, MoreySRM(nil, 5))
}

func TestTinsethIBU(t *testing.T) {
	hops := []Hop{
		{Name: "Magnum", Amount: 1, Unit: "oz", AlphaAcid: 10, Time: 60},
		{Name: "Citra", Amount: 2, Unit: "oz", AlphaAcid: 12, Time: 5, Use: "dry hop"},
	}
	assert.InDelta(t, 34.55, TinsethIBU(hops, 1.050, 5), 0.05)
	assert.Zero(t, TinsethIBU(hops[1:], 1.050, 5))
}

func TestBUGU(t *testing.T) {
	assert.InDelta(t, 0.7, BUGU(35, 1.050), 1e-9)
	assert.Zero(t, BUGU(35, 1.000))
}

func TestLoadRecipe(t *testing.T) {
	rec, err := LoadRecipe(filepath.Join("testdata", "pale_ale.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Backyard Pale Ale", rec.Name)
	require.Len(t, rec.Hops, 2)

	s := rec.Stats()
	assert.InDelta(t, 1.0555, s.OG, 1e-9)
	assert.InDelta(t, 1.013875, s.FG, 1e-9)
	assert.InDelta(t, 5.46, s.ABV, 0.01)
	assert.InDelta(t, 32.9, s.IBU, 0.1)
	assert.InDelta(t, 75, s.Attenuation, 1e-6)
	assert.InDelta(t, 18.93, s.BatchSizeL, 0.01)
	assert.Equal(t, "Balanced", units.BalanceDescription(s.BUGU))
}

func TestParseRecipe_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", "", "empty recipe"},
		{"unknown key", "name: x\nbatch_size: 5\ncolor: red\n", "decode recipe"},
		{"missing name", "batch_size: 5\n", "name is required"},
		{"no batch", "name: x\n", "invalid batch_size"},
		{"batch in kg", "name: x\nbatch_size: 5\nbatch_unit: kg\n", "not a volume"},
		{"hop in litres", "name: x\nbatch_size: 5\nhops:\n  - name: h\n    amount: 1\n    unit: l\n", "invalid unit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecipe(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestStatsFormat(t *testing.T) {
	s := Stats{
		OG:          1.050,
		FG:          1.010,
		ABV:         5.3,
		IBU:         35,
		SRM:         5,
		Attenuation: 80,
		BUGU:        0.7,
		BatchSizeL:  18.927,
		BoilTime:    60,
		Efficiency:  72,
	}

	imp := s.Format(units.Imperial)
	assert.Equal(t, FormattedStats{
		OG:          "1.050",
		FG:          "1.010",
		ABV:         "5.3%",
		IBU:         "35",
		SRM:         "5.0",
		Colour:      "#F39C00",
		Attenuation: "80.0%",
		Efficiency:  "72.0%",
		BatchSize:   "5.0 gal",
		BoilTime:    "60 min",
		Strength:    "Standard",
		Bitterness:  "Moderate",
		ColourName:  "Gold",
		Balance:     "Balanced",
	}, imp)

	assert.Equal(t, "18.9 L", s.Format(units.Metric).BatchSize)
	assert.Equal(t, "1.000", Stats{}.Format(units.Metric).OG)
	assert.Equal(t, "-", Stats{}.Format(units.Metric).BatchSize)
}
