package brewing

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"brewtracker/internal/units"
)

// Fermentable is a grain, extract or sugar addition.
type Fermentable struct {
	Name     string  `yaml:"name" json:"name"`
	Amount   float64 `yaml:"amount" json:"amount"`
	Unit     string  `yaml:"unit" json:"unit"`
	PPG      float64 `yaml:"ppg" json:"ppg"`
	Lovibond float64 `yaml:"lovibond" json:"lovibond"`
	// Type is grain (default), extract or sugar.
	Type string `yaml:"type" json:"type,omitempty"`
}

func (f Fermentable) pounds() float64 {
	return units.ConvertUnit(f.Amount, unitOr(f.Unit, "lb"), "lb").Value
}

func (f Fermentable) mashed() bool {
	switch strings.ToLower(f.Type) {
	case "extract", "sugar", "adjunct_sugar":
		return false
	default:
		return true
	}
}

// Hop is a hop addition. Time is minutes before flameout.
type Hop struct {
	Name      string  `yaml:"name" json:"name"`
	Amount    float64 `yaml:"amount" json:"amount"`
	Unit      string  `yaml:"unit" json:"unit"`
	AlphaAcid float64 `yaml:"alpha" json:"alpha"`
	Time      float64 `yaml:"time" json:"time"`
	// Use is boil (default), whirlpool or dry hop.
	Use string `yaml:"use" json:"use,omitempty"`
}

func (h Hop) ounces() float64 {
	return units.ConvertUnit(h.Amount, unitOr(h.Unit, "oz"), "oz").Value
}

func (h Hop) boiled() bool {
	u := strings.ToLower(h.Use)
	return u == "" || u == "boil" || u == "first wort"
}

// Yeast carries the attenuation used to estimate final gravity.
type Yeast struct {
	Name        string  `yaml:"name" json:"name"`
	Attenuation float64 `yaml:"attenuation" json:"attenuation"`
}

// Recipe is a beer recipe as read from YAML.
type Recipe struct {
	Name         string        `yaml:"name" json:"name"`
	Style        string        `yaml:"style" json:"style,omitempty"`
	BatchSize    float64       `yaml:"batch_size" json:"batch_size"`
	BatchUnit    string        `yaml:"batch_unit" json:"batch_unit"`
	BoilTime     float64       `yaml:"boil_time" json:"boil_time"`
	Efficiency   float64       `yaml:"efficiency" json:"efficiency"`
	Fermentables []Fermentable `yaml:"fermentables" json:"fermentables"`
	Hops         []Hop         `yaml:"hops" json:"hops"`
	Yeast        Yeast         `yaml:"yeast" json:"yeast"`
}

// Stats are the derived numbers of a recipe.
type Stats struct {
	OG          float64 `json:"og"`
	FG          float64 `json:"fg"`
	ABV         float64 `json:"abv"`
	IBU         float64 `json:"ibu"`
	SRM         float64 `json:"srm"`
	Attenuation float64 `json:"attenuation"`
	BUGU        float64 `json:"bugu"`
	BatchSizeL  float64 `json:"batch_size_l"`
	BoilTime    float64 `json:"boil_time"`
	Efficiency  float64 `json:"efficiency"`
}

// FormattedStats is Stats rendered for display.
type FormattedStats struct {
	OG          string `json:"og"`
	FG          string `json:"fg"`
	ABV         string `json:"abv"`
	IBU         string `json:"ibu"`
	SRM         string `json:"srm"`
	Colour      string `json:"colour"`
	Attenuation string `json:"attenuation"`
	Efficiency  string `json:"efficiency"`
	BatchSize   string `json:"batch_size"`
	BoilTime    string `json:"boil_time"`
	Strength    string `json:"strength"`
	Bitterness  string `json:"bitterness"`
	ColourName  string `json:"colour_name"`
	Balance     string `json:"balance"`
}

// Stats computes original and final gravity, strength, bitterness and colour.
func (r Recipe) Stats() Stats {
	gal := units.ConvertUnit(r.BatchSize, unitOr(r.BatchUnit, "gal"), "gal").Value
	eff := r.Efficiency
	if eff <= 0 {
		eff = defaultEfficiency
	}

	og := EstimateOG(r.Fermentables, gal, eff)
	fg := EstimateFG(og, r.Yeast.Attenuation)
	ibu := TinsethIBU(r.Hops, og, gal)

	return Stats{
		OG:          og,
		FG:          fg,
		ABV:         ABV(og, fg),
		IBU:         ibu,
		SRM:         MoreySRM(r.Fermentables, gal),
		Attenuation: ApparentAttenuation(og, fg),
		BUGU:        BUGU(ibu, og),
		BatchSizeL:  units.ConvertUnit(gal, "gal", "l").Value,
		BoilTime:    r.BoilTime,
		Efficiency:  eff,
	}
}

// Format renders the stats in the given unit system.
func (s Stats) Format(system units.System) FormattedStats {
	return FormattedStats{
		OG:          units.FormatGravity(s.OG),
		FG:          units.FormatGravity(s.FG),
		ABV:         units.FormatAbv(s.ABV),
		IBU:         units.FormatIbu(s.IBU),
		SRM:         units.FormatSrm(s.SRM),
		Colour:      units.SrmColour(s.SRM),
		Attenuation: units.FormatAttenuation(s.Attenuation),
		Efficiency:  units.FormatEfficiency(s.Efficiency),
		BatchSize:   units.FormatBatchSize(s.BatchSizeL, "l", system),
		BoilTime:    units.FormatTime(s.BoilTime),
		Strength:    units.AbvDescription(s.ABV),
		Bitterness:  units.IbuDescription(s.IBU),
		ColourName:  units.SrmDescription(s.SRM),
		Balance:     units.BalanceDescription(s.BUGU),
	}
}

// ParseRecipe decodes a YAML recipe. Unknown keys are rejected.
func ParseRecipe(r io.Reader) (Recipe, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var rec Recipe
	if err := dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return Recipe{}, errors.New("empty recipe")
		}
		return Recipe{}, fmt.Errorf("decode recipe: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return Recipe{}, err
	}
	return rec, nil
}

// LoadRecipe reads a YAML recipe from path.
func LoadRecipe(path string) (Recipe, error) {
	f, err := os.Open(path)
	if err != nil {
		return Recipe{}, fmt.Errorf("open recipe %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	rec, err := ParseRecipe(f)
	if err != nil {
		return Recipe{}, fmt.Errorf("recipe %q: %w", path, err)
	}
	return rec, nil
}

// Validate checks the fields Stats cannot do without.
func (r Recipe) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("recipe name is required")
	}
	if r.BatchSize <= 0 {
		return fmt.Errorf("invalid batch_size %v: must be > 0", r.BatchSize)
	}
	if bu := unitOr(r.BatchUnit, "gal"); !isUnit(bu, units.Volume) {
		return fmt.Errorf("invalid batch_unit %q: not a volume", r.BatchUnit)
	}
	for i, f := range r.Fermentables {
		if f.Amount < 0 {
			return fmt.Errorf("fermentable %d (%s): negative amount", i, f.Name)
		}
		if !isUnit(unitOr(f.Unit, "lb"), units.Weight) {
			return fmt.Errorf("fermentable %d (%s): invalid unit %q", i, f.Name, f.Unit)
		}
	}
	for i, h := range r.Hops {
		if h.Amount < 0 || h.AlphaAcid < 0 {
			return fmt.Errorf("hop %d (%s): negative amount or alpha", i, h.Name)
		}
		if !isUnit(unitOr(h.Unit, "oz"), units.Weight) {
			return fmt.Errorf("hop %d (%s): invalid unit %q", i, h.Name, h.Unit)
		}
	}
	return nil
}

func isUnit(u string, dim units.Dimension) bool {
	d, ok := units.UnitDimension(u)
	return ok && d == dim
}

func unitOr(u, fallback string) string {
	if strings.TrimSpace(u) == "" {
		return fallback
	}
	return u
}
