package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vsinha/shelfwatch/pkg/interfaces/cli/commands"
	"github.com/vsinha/shelfwatch/pkg/interfaces/cli/output"
)

type executor interface {
	Execute(ctx context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var config commands.Config

	root := &cobra.Command{
		Use:   "shelfwatch",
		Short: "Shelf-life compliance reconciliation for stock lots",
		Long: `shelfwatch reconciles stock movements, lot validity records and supplier
shelf-life specifications, classifies every lot by expiry deviation and
remaining life, and lists the lots that need attention.

SCENARIO DIRECTORY STRUCTURE:
    scenario_name/
    ├── movements.csv|xlsx   # Stock movement report
    ├── validity.csv|xlsx    # Lot validity records
    ├── suppliers.csv|xlsx   # Supplier shelf-life sheet
    └── timeline.csv|xlsx    # Expiry extract (optional)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&config.ScenarioDir, "scenario", "s", "", "Path to scenario directory containing source tables")
	flags.StringVar(&config.ConfigFile, "config", "", "Path to YAML configuration file (optional)")
	flags.StringVar(&config.EnvFile, "env-file", ".env", "Path to .env file with SHELFWATCH_* overrides")
	flags.StringVarP(&config.OutputDir, "output", "o", "", "Output directory for results (optional)")
	flags.StringVarP(&config.Format, "format", "f", "text", "Output format: "+strings.Join(output.Formats(), ", "))
	flags.StringVar(&config.AsOf, "as-of", "", "Evaluation date as YYYY-MM-DD (default today)")
	flags.StringSliceVar(&config.Exclude, "exclude", nil, "Categories hidden from the timeline, \"none\" to show all (default from config)")
	flags.BoolVar(&config.IncludeExcluded, "include-excluded", false, "List excluded timeline entries instead of hiding them")
	flags.BoolVarP(&config.Verbose, "verbose", "v", false, "Enable verbose output")
	_ = root.MarkPersistentFlagRequired("scenario")

	subcommand := func(use, short string, build func(commands.Config) executor) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg := config
				if !cmd.Flags().Changed("exclude") {
					cfg.Exclude = nil
				} else if cfg.Exclude == nil {
					cfg.Exclude = []string{}
				}
				cfg.Writer = cmd.OutOrStdout()
				return build(cfg).Execute(cmd.Context())
			},
		}
	}

	root.AddCommand(
		subcommand("classify", "Classify every lot by expiry deviation and remaining life",
			func(c commands.Config) executor { return commands.NewClassifyCommand(c) }),
		subcommand("audit", "Reconcile movements against lot validity records",
			func(c commands.Config) executor { return commands.NewAuditCommand(c) }),
		subcommand("timeline", "List lots in expiry order with exclusion categories applied",
			func(c commands.Config) executor { return commands.NewTimelineCommand(c) }),
		subcommand("report", "Write the full compliance report (monitor, audit, timeline, summary)",
			func(c commands.Config) executor { return commands.NewReportCommand(c) }),
	)
	return root
}
