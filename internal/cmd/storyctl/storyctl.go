// Package storyctl implements the offline story checking CLI.
//
// Every command reads one YAML or JSON document, runs a domain check over it
// and renders the result as a table, or as JSON with --json. A failing check
// is reported as ErrCheckFailed after the report is written.
package storyctl

import (
	"context"
	"errors"
	"io"

	platformcmd "github.com/Johnsonbros/Uncharted-Stars-Saga-sub000/internal/platform/cmd"
	"github.com/spf13/cobra"
)

// ErrCheckFailed reports that a check ran and found problems.
var ErrCheckFailed = errors.New("check failed")

// Config holds storyctl defaults read from the environment.
type Config struct {
	DBPath   string `env:"USS_STORY_DB_PATH"   envDefault:"data/story.db"`
	MinGapMs int64  `env:"USS_BEAT_MIN_GAP_MS" envDefault:"200"`
}

// ParseConfig loads storyctl defaults from the environment.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type commandContext struct {
	file     string
	jsonOut  bool
	dbPath   string
	minGapMs int64
}

// NewRootCommand builds the storyctl command tree.
func NewRootCommand(cfg Config) *cobra.Command {
	ctx := &commandContext{dbPath: cfg.DBPath, minGapMs: cfg.MinGapMs}

	rootCmd := &cobra.Command{
		Use:           platformcmd.ServiceStoryCtl,
		Short:         "Check narrative events and audio scenes from YAML or JSON documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.file, "file", "f", "-", "Input document path, - for stdin")
	rootCmd.PersistentFlags().BoolVar(&ctx.jsonOut, "json", false, "Write the report as JSON")
	rootCmd.PersistentFlags().Int64Var(&ctx.minGapMs, "min-gap-ms", ctx.minGapMs, "Minimum spacing between beat markers in milliseconds")

	rootCmd.AddCommand(newContinuityCommand(ctx))
	rootCmd.AddCommand(newKnowledgeCommand(ctx))
	rootCmd.AddCommand(newGateCommand(ctx))
	rootCmd.AddCommand(newMarkersCommand(ctx))
	rootCmd.AddCommand(newSceneCommand(ctx))
	rootCmd.AddCommand(newReportCommand(ctx))

	return rootCmd
}

// Execute runs storyctl with args, writing reports to stdout.
func Execute(ctx context.Context, cfg Config, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := NewRootCommand(cfg)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

// Run executes storyctl inside the shared telemetry entrypoint.
func Run(ctx context.Context, cfg Config, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceStoryCtl, func(ctx context.Context) error {
		return Execute(ctx, cfg, args, stdin, stdout, stderr)
	})
}

func (c *commandContext) document(cmd *cobra.Command) (document, error) {
	return loadDocument(c.file, cmd.InOrStdin())
}

// finish writes the report and turns a failed check into ErrCheckFailed.
func (c *commandContext) finish(cmd *cobra.Command, passed bool, report any, renderText func(io.Writer)) error {
	if c.jsonOut {
		if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	} else {
		renderText(cmd.OutOrStdout())
	}
	if !passed {
		return ErrCheckFailed
	}
	return nil
}
