package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/analysis"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/config"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/convert"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/logging"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/report"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	logger = logging.AppLogger().WithFields(log.Fields{"component": "main"})
)

// NewConvertCommand creates the command converting coverage dumps into a testwise report.
func NewConvertCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert coverage dumps into a testwise coverage report.",
		Long: `Convert analyzes the configured class directories and archives, reads all coverage dumps
and writes the testwise coverage report. Every setting can be given as flag, as environment
variable or in the properties file passed with --config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides := map[string]string{}
			for _, property := range config.Properties() {
				if cmd.Flags().Changed(property) {
					value, err := cmd.Flags().GetString(property)
					if err != nil {
						return err
					}
					overrides[property] = value
				}
			}

			cfg, err := config.NewConfiguration(configFile, overrides)
			if err != nil {
				return err
			}

			// configure the Logger
			logging.SetLevel(cfg.Level())
			logging.SetFormat(cfg.Format())
			logger.Infof("starting %s with config: %s", logging.AppName, cfg)

			ctx, cancel := setupSignalContext()
			defer cancel()
			return runConvert(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "properties file with the configuration")
	for _, property := range config.Properties() {
		cmd.Flags().String(property, "", fmt.Sprintf("overrides %s", config.EnvironmentVariable(property)))
	}

	return cmd
}

func runConvert(ctx context.Context, cfg config.Configuration) error {
	policy, err := analysis.ParseDuplicatePolicy(cfg.Duplicates())
	if err != nil {
		return err
	}
	mode, err := convert.ParseMode(cfg.ReportMode())
	if err != nil {
		return err
	}
	analyzer, err := analysis.NewExecAnalyzer(cfg.AnalyzerCommand())
	if err != nil {
		return err
	}

	details, err := report.LoadTestDetails(cfg.TestDetails())
	if err != nil {
		return err
	}
	executions, err := report.LoadTestExecutions(cfg.TestExecutions())
	if err != nil {
		return err
	}

	converter := convert.NewConverter(analyzer, report.NewFileSinks(cfg.Output()), convert.Options{
		Filter:     analysis.NewWildcardFilter(cfg.Includes(), cfg.Excludes()),
		Duplicates: policy,
		Workers:    cfg.AnalysisWorkers(),
		Mode:       mode,
		SplitAfter: cfg.SplitAfter(),
	})
	summary, err := converter.Convert(ctx, cfg.ClassDirs(), cfg.Dumps(), details, executions)
	if err != nil {
		return err
	}

	logger.Infof("wrote testwise coverage of %d tests from %d dumps", summary.Tests, summary.Dumps)
	return nil
}

// setupSignalContext returns a context which is cancelled on SIGTERM or interrupt.
func setupSignalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, os.Interrupt)

	go func() {
		select {
		case <-sigChan:
			logger.Info("received shutdown signal - cancelling conversion")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}
