package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// newRootCmd creates a root command carrying the logging flags shared by
// every itest program
func newRootCmd(use, short, long string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           use,
		Short:         short,
		Long:          long,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Setup logging
			verbose, _ := cmd.Flags().GetCount("verbose")
			if verbose > 0 {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	// Global flags
	rootCmd.PersistentFlags().CountP("verbose", "v", "Enable verbose logging (repeat for more)")

	return rootCmd
}

// ExitError carries a process exit status without an error message, used
// when the output already tells the user what went wrong
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}
