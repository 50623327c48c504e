// Package convert runs a complete conversion: class analysis, dump reconciliation and report writing.
package convert

import (
	"context"
	"strings"

	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/analysis"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/coverage"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/diagnostics"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/dump"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/logging"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/report"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var logger = logging.AppLogger().WithFields(log.Fields{"component": "convert"})

// Mode selects how records reach the report.
type Mode string

const (
	// Streaming writes each test's record as soon as its dumps are reconciled.
	Streaming Mode = "streaming"
	// Batch collects all coverage first and writes records ordered by uniform path.
	Batch Mode = "batch"
)

// ParseMode parses "streaming" or "batch".
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(value)) {
	case Streaming:
		return Streaming, nil
	case Batch:
		return Batch, nil
	default:
		return Streaming, errors.Errorf("unknown report mode '%s'", value)
	}
}

// Options configures a Converter.
type Options struct {
	Filter     analysis.Filter
	Duplicates analysis.DuplicatePolicy
	Workers    int
	Mode       Mode
	SplitAfter int
}

// Summary describes a finished conversion.
type Summary struct {
	// Classes is the number of distinct analyzed class bodies.
	Classes int
	// Dumps is the number of dumps read.
	Dumps int
	// Discarded is the number of dumps recorded outside of a test.
	Discarded int
	// Failed is the number of dumps dropped because of integrity errors.
	Failed int
	// Tests is the number of records written.
	Tests int
}

// Converter turns coverage dumps into a testwise coverage report.
type Converter struct {
	analyzer analysis.Analyzer
	sinks    report.Sinks
	options  Options
}

// NewConverter creates a converter analyzing classes with analyzer and writing the report to sinks.
func NewConverter(analyzer analysis.Analyzer, sinks report.Sinks, options Options) *Converter {
	if options.Mode == "" {
		options.Mode = Streaming
	}
	return &Converter{analyzer: analyzer, sinks: sinks, options: options}
}

// Convert analyzes the classes found in inputs, reconciles all dumps read from the dump
// locations and writes one record per test. Setup errors abort the conversion, integrity
// errors only drop the affected dump.
func (c *Converter) Convert(ctx context.Context, inputs []string, dumps []string, details []report.TestDetails, executions []report.TestExecution) (Summary, error) {
	summary := Summary{}
	diags := diagnostics.NewCollector()

	cache := analysis.NewCache(c.options.Duplicates, diags)
	driver := analysis.NewDriver(cache, c.analyzer, diags, analysis.DriverOptions{
		Filter:  c.options.Filter,
		Workers: c.options.Workers,
	})
	if err := driver.Populate(ctx, inputs); err != nil {
		return summary, errors.Wrap(err, "unable to analyze classes")
	}
	summary.Classes = cache.Len()

	reconciler, err := coverage.NewReconciler(cache, diags)
	if err != nil {
		return summary, err
	}
	records := report.NewRecordReconciler(details, executions, diags)

	switch c.options.Mode {
	case Batch:
		testwise := coverage.NewTestwiseCoverage()
		if err = c.reconcileAll(ctx, dumps, reconciler, testwise, &summary); err == nil {
			summary.Tests, err = report.WriteBatch(testwise, records, c.sinks, c.options.SplitAfter)
		}
	default:
		writer := report.NewStreamWriter(records, c.sinks, c.options.SplitAfter)
		merger := &consecutiveMerger{next: writer}
		err = c.reconcileAll(ctx, dumps, reconciler, merger, &summary)
		if err == nil {
			err = merger.flush()
		}
		if closeErr := writer.Close(); err == nil {
			err = closeErr
		}
		summary.Tests = writer.Written()
	}

	diags.Report(logger)
	if err != nil {
		return summary, err
	}

	logger.WithFields(log.Fields{
		"classes":   summary.Classes,
		"dumps":     summary.Dumps,
		"discarded": summary.Discarded,
		"failed":    summary.Failed,
		"tests":     summary.Tests,
	}).Info("conversion finished")
	return summary, nil
}

func (c *Converter) reconcileAll(ctx context.Context, locations []string, reconciler *coverage.Reconciler, acceptor coverage.Acceptor, summary *Summary) error {
	for _, location := range locations {
		if err := ctx.Err(); err != nil {
			return err
		}
		reader, err := dump.Open(location)
		if err != nil {
			return err
		}
		err = reader.Each(func(d *dump.CoverageDump) error {
			summary.Dumps++
			acc, err := reconciler.ReconcileDump(d)
			if coverage.IsIntegrityError(err) {
				summary.Failed++
				logger.Warnf("dropping dump %d of %s: %s", reader.Count(), location, err)
				return nil
			}
			if err != nil {
				return err
			}
			if acc == nil {
				summary.Discarded++
				return nil
			}
			return acceptor.Accept(acc)
		})
		reader.Close()
		if err != nil {
			return errors.Wrapf(err, "unable to process dumps of %s", location)
		}
	}
	return nil
}

// consecutiveMerger merges the coverage of consecutive dumps of the same test before passing
// it on, so that a test split into several dumps yields a single streamed record.
type consecutiveMerger struct {
	next    coverage.Acceptor
	pending *coverage.TestCoverageAccumulator
}

func (m *consecutiveMerger) Accept(acc *coverage.TestCoverageAccumulator) error {
	if m.pending != nil && m.pending.UniformPath() == acc.UniformPath() {
		return m.pending.Merge(acc)
	}
	if err := m.flush(); err != nil {
		return err
	}
	m.pending = acc
	return nil
}

func (m *consecutiveMerger) flush() error {
	if m.pending == nil {
		return nil
	}
	pending := m.pending
	m.pending = nil
	return m.next.Accept(pending)
}
