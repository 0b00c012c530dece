// Package cmd provides the root command and CLI setup for guardcheck.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pin-drift/guardcheck/internal/adapter"
	"github.com/pin-drift/guardcheck/internal/controller"
	"github.com/pin-drift/guardcheck/internal/domain"
	m "github.com/pin-drift/guardcheck/internal/model"
)

var fsAdapter adapter.SourceFSAdapter
var sourceLoader adapter.SourceLoader
var reportStore adapter.ReportStore
var workflow domain.Workflow
var ui controller.UI
var logger *zap.Logger

func init() {
	fsAdapter = adapter.NewLocalSourceFSAdapter()
	sourceLoader = adapter.NewLocalSourceLoader(fsAdapter)
	reportStore = adapter.NewReportStore()
}

var verboseFlag bool
var noColorFlag bool
var simpleFlag bool
var profileFlag string
var reportFlag string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guardcheck [directory]",
		Short: "Conformance checker for conditionally compiled libraries",
		Long:  rootLongDescription,
		Args:  cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setUp(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, args []string) error {
			run, err := workflow.Verify(verifyArgs(args), domain.SuiteConditional, domain.SuiteStructure)
			if err != nil {
				return err
			}

			return failOnBrokenChecks(run)
		},
	}
	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", false, "disable colored output")
	cmd.PersistentFlags().BoolVar(&simpleFlag, "simple", false, "plain line output even on a terminal")
	cmd.PersistentFlags().StringVarP(&profileFlag, "profile", "p", "", "path to a TOML profile (default: guardcheck.toml in the target)")
	cmd.PersistentFlags().StringVar(&reportFlag, "report", "", "write the run results to this file")

	return cmd
}

// setUp builds the logger, the UI and the workflow once the persistent flags
// are parsed. The interactive UI is only used on a terminal and can be opted
// out of with --simple.
func setUp(cmd *cobra.Command) error {
	log, err := buildLogger(verboseFlag)
	if err != nil {
		return err
	}

	logger = log

	useTTY := controller.IsTTY(os.Stdout) && !simpleFlag
	colored := controller.IsTTY(os.Stdout) && !noColorFlag

	ui = controller.NewUI(cmd, useTTY, controller.WithColor(colored))
	workflow = domain.NewWorkflow(fsAdapter, sourceLoader, reportStore, ui, logger)

	return nil
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}

	config := zap.NewDevelopmentConfig()
	config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)

	return config.Build()
}

// verifyArgs assembles the workflow arguments from the positional target and
// the persistent flags.
func verifyArgs(args []string) domain.VerifyArgs {
	target := "."
	if len(args) > 0 {
		target = args[0]
	}

	return domain.VerifyArgs{
		Target:      m.Path(target),
		ProfilePath: m.Path(profileFlag),
		Report:      m.Path(reportFlag),
	}
}

// failOnBrokenChecks converts a run with failures into a non-zero exit.
func failOnBrokenChecks(run *m.RunResult) error {
	if run.Passed() {
		return nil
	}

	passed, total := run.Counts()

	return fmt.Errorf("%d of %d checks failed", total-passed, total)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
