package cmd

import (
	"github.com/spf13/cobra"
)

// flagsCmd represents the flags command.
var flagsCmd = newFlagsCmd()

func newFlagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flags [directory]",
		Short: "List the feature flags declared in the configuration source",
		Long:  flagsLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			registry, err := workflow.ListFlags(verifyArgs(args))
			if err != nil {
				return err
			}

			return ui.DisplayRegistry(registry)
		},
	}

	return cmd
}

func init() {
	rootCmd.AddCommand(flagsCmd)
}
