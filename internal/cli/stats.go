package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"brewtracker/internal/brewing"
)

type statsOutput struct {
	Name      string                 `json:"name"`
	Style     string                 `json:"style,omitempty"`
	System    string                 `json:"system"`
	Stats     brewing.Stats          `json:"stats"`
	Formatted brewing.FormattedStats `json:"formatted"`
}

func newStatsCommand(o *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats <recipe.yaml>",
		Short: "Compute gravity, strength, bitterness and colour of a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := brewing.LoadRecipe(args[0])
			if err != nil {
				return err
			}
			system := o.unitSystem()
			stats := rec.Stats()
			f := stats.Format(system)
			o.logger.Debug("recipe stats", "recipe", rec.Name, "og", stats.OG, "ibu", stats.IBU, "srm", stats.SRM)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(statsOutput{
					Name:      rec.Name,
					Style:     rec.Style,
					System:    system.String(),
					Stats:     stats,
					Formatted: f,
				})
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "Recipe\t%s\n", rec.Name)
			if rec.Style != "" {
				fmt.Fprintf(tw, "Style\t%s\n", rec.Style)
			}
			fmt.Fprintf(tw, "Batch\t%s\n", f.BatchSize)
			fmt.Fprintf(tw, "Boil\t%s\n", f.BoilTime)
			fmt.Fprintf(tw, "Efficiency\t%s\n", f.Efficiency)
			fmt.Fprintf(tw, "OG\t%s\n", f.OG)
			fmt.Fprintf(tw, "FG\t%s\n", f.FG)
			fmt.Fprintf(tw, "ABV\t%s\t%s\n", f.ABV, f.Strength)
			fmt.Fprintf(tw, "Attenuation\t%s\n", f.Attenuation)
			fmt.Fprintf(tw, "IBU\t%s\t%s\n", f.IBU, f.Bitterness)
			fmt.Fprintf(tw, "SRM\t%s\t%s %s\n", f.SRM, f.ColourName, f.Colour)
			fmt.Fprintf(tw, "Balance\t%s\n", f.Balance)
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw and formatted stats as JSON")
	return cmd
}
