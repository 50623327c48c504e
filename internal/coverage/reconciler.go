package coverage

import (
	"fmt"

	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/analysis"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/diagnostics"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/dump"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/fingerprint"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/logging"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	logger = logging.AppLogger().WithFields(log.Fields{"component": "coverage"})

	// ErrCacheNotSealed is returned when reconciling against a cache which is still being populated.
	ErrCacheNotSealed = errors.New("class analysis cache must be sealed before reconciling coverage")
)

// ProbeCountMismatchError is returned when the hit array of a class does not have one entry
// per probe of the analyzed class body. This indicates a fingerprint collision or stale
// analysis results.
type ProbeCountMismatchError struct {
	Fingerprint fingerprint.Fingerprint
	ClassName   string
	Expected    int
	Actual      int
}

func (e *ProbeCountMismatchError) Error() string {
	return fmt.Sprintf("execution data for class %s (%s) has %d probes but the analyzed class has %d",
		e.ClassName, e.Fingerprint.Short(), e.Actual, e.Expected)
}

// IsIntegrityError returns true if the cause of err violates the contract between the
// analyzed classes and the coverage dumps. The coverage of the affected dump has to be dropped.
func IsIntegrityError(err error) bool {
	switch errors.Cause(err).(type) {
	case *ProbeCountMismatchError, *CrossFileMergeError:
		return true
	default:
		return false
	}
}

// Reconciler turns probe hits into covered lines using the analyzed class bodies.
type Reconciler struct {
	cache *analysis.Cache
	diags *diagnostics.Collector
}

// NewReconciler creates a reconciler reading from cache, which has to be sealed.
// Soft problems are recorded in diags.
func NewReconciler(cache *analysis.Cache, diags *diagnostics.Collector) (*Reconciler, error) {
	if cache == nil || !cache.Sealed() {
		return nil, ErrCacheNotSealed
	}
	return &Reconciler{cache: cache, diags: diags}, nil
}

// Reconcile returns the lines covered by the fired probes of data. It returns nil if data
// contributes no coverage.
func (r *Reconciler) Reconcile(data dump.ExecutionData) (*FileCoverageBuilder, error) {
	lookup, ok := r.cache.Get(data.ID)
	if !ok {
		r.diags.Record(diagnostics.UnanalyzedClass, data.Label())
		return nil, nil
	}
	if len(data.Probes) != lookup.ProbeCount() {
		return nil, &ProbeCountMismatchError{
			Fingerprint: data.ID,
			ClassName:   lookup.ClassName(),
			Expected:    lookup.ProbeCount(),
			Actual:      len(data.Probes),
		}
	}
	if !anyHit(data.Probes) {
		return nil, nil
	}
	if lookup.SourceFile() == "" {
		r.diags.Record(diagnostics.MissingSourceFile, lookup.ClassName())
		return nil, nil
	}

	builder := NewFileCoverageBuilder(lookup.PackagePath(), lookup.SourceFile())
	for probe, hit := range data.Probes {
		if !hit {
			continue
		}
		probeLines, ok := lookup.ProbeLines(probe)
		if !ok {
			r.diags.Record(diagnostics.ProbeWithoutLines, fmt.Sprintf("%s#%d", lookup.ClassName(), probe))
			continue
		}
		builder.AddLines(probeLines)
	}
	if builder.IsEmpty() {
		return nil, nil
	}
	return builder, nil
}

// ReconcileDump returns the coverage of the test the dump was recorded for. Dumps recorded
// outside of a test return nil. An integrity error in any class fails the whole dump.
func (r *Reconciler) ReconcileDump(d *dump.CoverageDump) (*TestCoverageAccumulator, error) {
	if d.TestID == "" {
		r.diags.Record(diagnostics.EmptyTestID, "")
		logger.Debugf("discarding dump with %d classes recorded outside of a test", len(d.Data))
		return nil, nil
	}

	acc := NewTestCoverageAccumulator(d.TestID)
	for _, data := range d.Data {
		builder, err := r.Reconcile(data)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to reconcile coverage of test %s", d.TestID)
		}
		if err := acc.Add(builder); err != nil {
			return nil, errors.Wrapf(err, "unable to reconcile coverage of test %s", d.TestID)
		}
	}
	return acc, nil
}

func anyHit(probes []bool) bool {
	for _, hit := range probes {
		if hit {
			return true
		}
	}
	return false
}
