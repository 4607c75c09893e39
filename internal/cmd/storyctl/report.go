package storyctl

import (
	"fmt"
	"io"
	"os"

	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/app"
	"github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/services/story/storage/sqlite"
	"github.com/spf13/cobra"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run the canon gate over the stored story database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(ctx.dbPath); err != nil {
				return fmt.Errorf("story database %s: %w", ctx.dbPath, err)
			}
			store, err := sqlite.Open(ctx.dbPath)
			if err != nil {
				return fmt.Errorf("open story store: %w", err)
			}
			defer store.Close()

			service, err := app.NewService(store, app.WithMinGapMs(ctx.minGapMs))
			if err != nil {
				return err
			}
			report, err := service.CanonReport(cmd.Context())
			if err != nil {
				return err
			}
			return ctx.finish(cmd, report.Passed, report, func(w io.Writer) {
				renderGate(w, report)
			})
		},
	}
	cmd.Flags().StringVar(&ctx.dbPath, "db", ctx.dbPath, "Story SQLite database path")
	return cmd
}
