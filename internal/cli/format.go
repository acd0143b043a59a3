package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"brewtracker/internal/units"
)

type formatter func(v float64, unit string, system units.System) string

var formatters = map[string]formatter{
	"gravity":     func(v float64, _ string, _ units.System) string { return units.FormatGravity(v) },
	"abv":         func(v float64, _ string, _ units.System) string { return units.FormatAbv(v) },
	"ibu":         func(v float64, _ string, _ units.System) string { return units.FormatIbu(v) },
	"srm":         func(v float64, _ string, _ units.System) string { return units.FormatSrm(v) },
	"efficiency":  func(v float64, _ string, _ units.System) string { return units.FormatEfficiency(v) },
	"attenuation": func(v float64, _ string, _ units.System) string { return units.FormatAttenuation(v) },
	"percentage":  func(v float64, _ string, _ units.System) string { return units.FormatPercentage(v) },
	"time":        func(v float64, _ string, _ units.System) string { return units.FormatTime(v) },
	"colour":      func(v float64, _ string, _ units.System) string { return units.SrmColour(v) },
	"weight":      units.FormatWeight,
	"volume":      units.FormatVolume,
	"temperature": units.FormatTemperature,
	"batch":       units.FormatBatchSize,
	"amount":      units.FormatIngredientAmount,
}

// describers name the band a value falls in, printed with --describe.
var describers = map[string]func(float64) string{
	"abv":  units.AbvDescription,
	"ibu":  units.IbuDescription,
	"srm":  units.SrmDescription,
	"bugu": units.BalanceDescription,
}

func formatKinds() []string {
	kinds := make([]string, 0, len(formatters))
	for k := range formatters {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

func newFormatCommand(o *options) *cobra.Command {
	var describe bool

	cmd := &cobra.Command{
		Use:   "format <kind> <value> [unit]",
		Short: "Render a value the way the dashboard shows it",
		Long: "Render a brewing metric or measurement for display.\n\nKinds: " +
			strings.Join(formatKinds(), ", ") + ".\n\n" +
			"Measurements take an optional unit; without one the metric base unit is assumed.",
		Example: "  brewctl format gravity 1.0482\n  brewctl format weight 500 g --system imperial\n  brewctl format ibu 45 --describe",
		Args:    cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := strings.ToLower(args[0])
			v := units.Number(args[1])
			out := cmd.OutOrStdout()

			if describe {
				d, ok := describers[kind]
				if !ok {
					return fmt.Errorf("kind %q has no description bands (known: abv, bugu, ibu, srm)", args[0])
				}
				_, err := fmt.Fprintln(out, d(v))
				return err
			}

			f, ok := formatters[kind]
			if !ok {
				return fmt.Errorf("unknown kind %q (known: %s)", args[0], strings.Join(formatKinds(), ", "))
			}
			unit := ""
			if len(args) == 3 {
				unit = args[2]
			}
			_, err := fmt.Fprintln(out, f(v, unit, o.unitSystem()))
			return err
		},
	}

	cmd.Flags().BoolVarP(&describe, "describe", "d", false, "print the band name (abv, ibu, srm, bugu) instead of the value")
	return cmd
}
