package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pin-drift/guardcheck/internal/domain"
)

// conditionalCmd represents the conditional command.
var conditionalCmd = newConditionalCmd()

func newConditionalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conditional [directory]",
		Short: "Run only the guard consistency suite",
		Long:  conditionalLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			run, err := workflow.Verify(verifyArgs(args), domain.SuiteConditional)
			if err != nil {
				return err
			}

			return failOnBrokenChecks(run)
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(conditionalCmd)
}
