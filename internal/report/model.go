package report

// ExecutionResult is the outcome of a test execution.
type ExecutionResult string

const (
	// Passed tests ran successfully.
	Passed ExecutionResult = "PASSED"
	// Ignored tests were disabled in the source code.
	Ignored ExecutionResult = "IGNORED"
	// Skipped tests were not run, e.g. because an assumption failed.
	Skipped ExecutionResult = "SKIPPED"
	// Failure marks tests with failed assertions.
	Failure ExecutionResult = "FAILURE"
	// Error marks tests which could not complete because of an unexpected error.
	Error ExecutionResult = "ERROR"
)

// Document is the top level struct of a testwise coverage report file.
type Document struct {
	Tests []*TestInfo `json:"tests"`
}

// TestInfo is the report record of a single test.
type TestInfo struct {
	UniformPath string          `json:"uniformPath"`
	SourcePath  string          `json:"sourcePath,omitempty"`
	Content     string          `json:"content,omitempty"`
	Duration    *float64        `json:"duration,omitempty"`
	Result      ExecutionResult `json:"result,omitempty"`
	Message     string          `json:"message,omitempty"`
	Paths       []PathCoverage  `json:"paths"`
}

// PathCoverage holds the covered files of one package path.
type PathCoverage struct {
	Path  string         `json:"path"`
	Files []FileCoverage `json:"files"`
}

// FileCoverage holds the covered lines of one file in compacted range form, e.g. "1-3,7".
type FileCoverage struct {
	FileName     string `json:"fileName"`
	CoveredLines string `json:"coveredLines"`
}

// TestDetails describes a declared test.
type TestDetails struct {
	UniformPath string `json:"uniformPath"`
	SourcePath  string `json:"sourcePath,omitempty"`
	// Content is a fingerprint of the test's source, used to detect changed tests.
	Content string `json:"content,omitempty"`
}

// TestExecution is the outcome of running a test. Duration is in seconds.
type TestExecution struct {
	UniformPath string          `json:"uniformPath"`
	Duration    float64         `json:"duration"`
	Result      ExecutionResult `json:"result"`
	Message     string          `json:"message,omitempty"`
}
