package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pin-drift/guardcheck/internal/domain"
)

// structureCmd represents the structure command.
var structureCmd = newStructureCmd()

func newStructureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "structure [directory]",
		Short: "Run only the library structure suite",
		Long:  structureLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			run, err := workflow.Verify(verifyArgs(args), domain.SuiteStructure)
			if err != nil {
				return err
			}

			return failOnBrokenChecks(run)
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(structureCmd)
}
