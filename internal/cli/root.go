// Package cli implements brewctl, the operator tool for BrewTracker: schema
// migrations, unit conversion and recipe statistics from the shell.
package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"brewtracker/internal/config"
	"brewtracker/internal/logging"
	"brewtracker/internal/units"
)

const appName = "brewctl"

type options struct {
	cfg     config.Tool
	version string
	system  string
	verbose bool
	logger  *slog.Logger
}

// NewRootCommand builds the brewctl command tree. cfg supplies the database
// location and the unit system used when --system is not given.
func NewRootCommand(cfg config.Tool, version string) *cobra.Command {
	o := &options{cfg: cfg, version: version}

	root := &cobra.Command{
		Use:   appName,
		Short: "BrewTracker command line tool",
		Long: `brewctl works with the BrewTracker database and formatter from the shell.

  migrate  apply pending schema migrations
  convert  convert a quantity between units
  format   render a value the way the dashboard shows it
  stats    compute gravity, strength, bitterness and colour of a recipe`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if o.system != "" {
				switch strings.ToLower(strings.TrimSpace(o.system)) {
				case "imperial", "metric":
				default:
					return fmt.Errorf("invalid --system %q (allowed: imperial, metric)", o.system)
				}
			}
			common := o.cfg.Common
			if o.verbose {
				common.LogLevel = slog.LevelDebug
			}
			o.logger = logging.NewWithWriter(cmd.ErrOrStderr(), common, o.version, appName)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&o.system, "system", "s", "", "unit system: imperial or metric (default from DEFAULT_UNIT_SYSTEM)")
	root.PersistentFlags().BoolVar(&o.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(
		newMigrateCommand(o),
		newConvertCommand(o),
		newFormatCommand(o),
		newStatsCommand(o),
	)
	return root
}

func (o *options) unitSystem() units.System {
	if o.system == "" {
		if o.cfg.DefaultSystem == "" {
			return units.Imperial
		}
		return o.cfg.DefaultSystem
	}
	return units.ParseSystem(o.system)
}
