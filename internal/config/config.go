package config

// Configuration declares the configuration properties of this app.
type Configuration interface {
	AnalysisConfig
	DumpConfig
	ReportConfig
	LogConfig

	// String returns a string representation of the configuration.
	String() string
}

// AnalysisConfig defines how class files are found and analyzed.
type AnalysisConfig interface {
	// ClassDirs returns the directories, class files and archives to analyze.
	ClassDirs() []string
	// Includes returns the wildcard patterns of classes to analyze. Empty includes all classes.
	Includes() []string
	// Excludes returns the wildcard patterns of classes to skip.
	Excludes() []string
	// Duplicates returns the policy for non-identical classes with the same name, "warn" or "fail".
	Duplicates() string
	// AnalyzerCommand returns the command line of the external class analyzer.
	AnalyzerCommand() string
	// AnalysisWorkers returns the number of inputs analyzed in parallel, 0 for one per CPU.
	AnalysisWorkers() int
}

// DumpConfig defines where coverage dumps and test lists are read from.
type DumpConfig interface {
	// Dumps returns the files or URLs of the coverage dumps.
	Dumps() []string
	// TestDetails returns the file or URL of the declared tests, empty if there is none.
	TestDetails() string
	// TestExecutions returns the file or URL of the test execution outcomes, empty if there is none.
	TestExecutions() string
}

// ReportConfig defines the report output.
type ReportConfig interface {
	// Output returns the base path of the report documents.
	Output() string
	// SplitAfter returns the maximum number of tests per report document, 0 for no limit.
	SplitAfter() int
	// ReportMode returns "streaming" or "batch".
	ReportMode() string
}

// LogConfig defines the logging configuration.
type LogConfig interface {
	// Level returns the logging level.
	Level() string
	// Format returns the log format, "text" or "json".
	Format() string
}
