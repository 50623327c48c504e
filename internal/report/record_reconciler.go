package report

import (
	"regexp"
	"sort"

	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/coverage"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/diagnostics"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/logging"
	log "github.com/sirupsen/logrus"
)

var (
	logger = logging.AppLogger().WithFields(log.Fields{"component": "report"})

	// matches parameterized invocations like "FooTest/test(int)[1]"
	parameterSuffix = regexp.MustCompile(`(.*\))\[.*\]`)
)

// RecordReconciler joins declared tests, test execution outcomes and coverage by uniform path
// into report records.
type RecordReconciler struct {
	details    map[string]TestDetails
	executions map[string]TestExecution
	seen       map[string]bool
	diags      *diagnostics.Collector
}

// NewRecordReconciler indexes the declared tests and executions by uniform path. Later
// entries for the same uniform path replace earlier ones.
func NewRecordReconciler(details []TestDetails, executions []TestExecution, diags *diagnostics.Collector) *RecordReconciler {
	reconciler := &RecordReconciler{
		details:    map[string]TestDetails{},
		executions: map[string]TestExecution{},
		seen:       map[string]bool{},
		diags:      diags,
	}
	for _, detail := range details {
		reconciler.details[detail.UniformPath] = detail
	}
	for _, execution := range executions {
		reconciler.executions[execution.UniformPath] = execution
	}
	return reconciler
}

// CreateFor creates the record for the coverage of one test. If neither a declared test nor
// an execution exists for the uniform path, a trailing parameterization suffix ("test(int)[1]")
// is stripped and the lookup retried.
func (r *RecordReconciler) CreateFor(acc *coverage.TestCoverageAccumulator) *TestInfo {
	uniformPath := r.resolve(acc.UniformPath())
	r.seen[uniformPath] = true

	info := r.create(uniformPath)
	info.Paths = pathsOf(acc)
	return info
}

// CreateForRemaining creates empty records for all declared tests not seen by CreateFor, ordered
// by uniform path. Executions matching neither coverage nor a declared test are only logged.
func (r *RecordReconciler) CreateForRemaining() []*TestInfo {
	var infos []*TestInfo
	for _, uniformPath := range sortedKeys(r.details) {
		if r.seen[uniformPath] {
			continue
		}
		r.seen[uniformPath] = true
		infos = append(infos, r.create(uniformPath))
	}

	for _, uniformPath := range sortedKeys(r.executions) {
		if r.seen[uniformPath] {
			continue
		}
		r.seen[uniformPath] = true
		r.diags.Record(diagnostics.UnmatchedExecution, uniformPath)
		logger.Warnf("test %s was executed but has no coverage and is not declared", uniformPath)
	}
	return infos
}

func (r *RecordReconciler) resolve(uniformPath string) string {
	if r.known(uniformPath) {
		return uniformPath
	}
	stripped := parameterSuffix.ReplaceAllString(uniformPath, "${1}")
	if stripped != uniformPath && r.known(stripped) {
		return stripped
	}
	return uniformPath
}

func (r *RecordReconciler) known(uniformPath string) bool {
	_, declared := r.details[uniformPath]
	_, executed := r.executions[uniformPath]
	return declared || executed
}

func (r *RecordReconciler) create(uniformPath string) *TestInfo {
	info := &TestInfo{UniformPath: uniformPath, Paths: []PathCoverage{}}

	if detail, ok := r.details[uniformPath]; ok {
		info.SourcePath = detail.SourcePath
		info.Content = detail.Content
	} else {
		logger.Debugf("no test details found for %s", uniformPath)
	}

	if execution, ok := r.executions[uniformPath]; ok {
		duration := execution.Duration
		info.Duration = &duration
		info.Result = execution.Result
		info.Message = execution.Message
	} else {
		logger.Debugf("no test execution found for %s", uniformPath)
	}
	return info
}

func pathsOf(acc *coverage.TestCoverageAccumulator) []PathCoverage {
	paths := []PathCoverage{}
	for _, path := range acc.Paths() {
		pathCoverage := PathCoverage{Path: path}
		for _, file := range acc.Files(path) {
			pathCoverage.Files = append(pathCoverage.Files, FileCoverage{
				FileName:     file.FileName(),
				CoveredLines: file.CoveredLines(),
			})
		}
		paths = append(paths, pathCoverage)
	}
	return paths
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
