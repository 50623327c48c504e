package app

import (
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/logging"
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command of the jacoco-testwise tool.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   logging.AppName,
		Short: "Converts testwise JaCoCo coverage dumps into per-test line coverage reports.",
		Long: `jacoco-testwise analyzes the class files of an application once, reconciles the probe
hits recorded per test with the analyzed classes and writes one JSON record per test
listing the covered lines of every source file.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewConvertCommand())

	return cmd
}
