package cli

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"brewtracker/internal/units"
)

func newConvertCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:     "convert <value> <from> <to>",
		Short:   "Convert a quantity between units",
		Example: "  brewctl convert 5 gal l\n  brewctl convert 152 f c",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := units.ParseNumber(args[0])
			if units.IsMissing(v) {
				return fmt.Errorf("invalid value %q", args[0])
			}
			from, to := args[1], args[2]

			fromDim, ok := units.UnitDimension(from)
			if !ok {
				return fmt.Errorf("unknown unit %q", from)
			}
			toDim, ok := units.UnitDimension(to)
			if !ok {
				return fmt.Errorf("unknown unit %q", to)
			}
			if fromDim != toDim {
				return fmt.Errorf("cannot convert %s to %s: %s is not %s", from, to, fromDim, toDim)
			}

			c := units.ConvertUnit(v, from, to)
			o.logger.Debug("converted", "value", v, "from", from, "to", to, "result", c.Value)
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", fourPlaces(c.Value), units.UnitLabel(c.Unit))
			return err
		},
	}
}

// fourPlaces rounds to four decimals and drops trailing zeros.
func fourPlaces(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
}
