package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"brewtracker/internal/db"
	"brewtracker/internal/migrate"
)

func newMigrateCommand(o *options) *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Apply every embedded migration that has not been recorded in the
database at SQLITE_PATH. With --status nothing is applied; each migration is
listed as applied or pending instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			conn, err := db.Open(ctx, o.cfg.SQLite, o.logger)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := db.Close(conn); closeErr != nil {
					o.logger.Error("db close", "error", closeErr)
				}
			}()

			out := cmd.OutOrStdout()

			if status {
				available, err := migrate.Available()
				if err != nil {
					return err
				}
				applied, err := migrate.Applied(ctx, conn)
				if err != nil {
					return fmt.Errorf("list applied migrations: %w", err)
				}
				at := make(map[string]string, len(applied))
				for _, m := range applied {
					at[m.Version] = m.AppliedAt
				}

				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				for _, m := range available {
					state := "pending"
					if ts, ok := at[m.Version]; ok {
						state = "applied " + ts
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Version, m.Name, state)
				}
				return tw.Flush()
			}

			ran, err := migrate.Run(ctx, conn, o.logger)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if len(ran) == 0 {
				fmt.Fprintln(out, "database is up to date")
				return nil
			}
			fmt.Fprintf(out, "%d migration(s) applied\n", len(ran))
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "list migrations without applying them")
	return cmd
}
