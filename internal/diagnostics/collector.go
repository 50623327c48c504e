// Package diagnostics aggregates soft problems found during a conversion run. The same
// problem can recur thousands of times (e.g. one unanalyzed class referenced by every
// dump), so occurrences are counted per subject and reported once at the end.
package diagnostics

import (
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Kind identifies a category of soft diagnostic.
type Kind string

const (
	// UnanalyzedClass is recorded for execution data whose fingerprint is not in the cache.
	UnanalyzedClass Kind = "unanalyzed-class"
	// ProbeWithoutLines is recorded for a covered probe that maps to no source line.
	ProbeWithoutLines Kind = "probe-without-lines"
	// MissingSourceFile is recorded for covered classes compiled without a source file name.
	MissingSourceFile Kind = "missing-source-file"
	// UnmatchedExecution is recorded for executed tests matching neither coverage nor a declared test.
	UnmatchedExecution Kind = "unmatched-execution"
	// DuplicateClass is recorded for non-identical class bodies sharing one class name.
	DuplicateClass Kind = "duplicate-class"
	// ClassAnalysisFailed is recorded when the analyzer rejected a class body.
	ClassAnalysisFailed Kind = "class-analysis-failed"
	// EmptyTestID is recorded for dumps without a test id.
	EmptyTestID Kind = "empty-test-id"
)

var descriptions = map[Kind]string{
	UnanalyzedClass:     "execution data references classes which were not analyzed. Make sure all class files and archives are passed as inputs",
	ProbeWithoutLines:   "covered probes have no line information. The classes were probably compiled without debug information",
	MissingSourceFile:   "covered classes have no source file name. The classes were probably compiled without debug information",
	UnmatchedExecution:  "tests were executed but have neither coverage nor a declaration. Check that the test ids passed to the agent match the test execution list",
	DuplicateClass:      "classes exist with the same name but different content. Each class file gets its own coverage, lookups by class name resolve to the first class found",
	ClassAnalysisFailed: "class files could not be analyzed",
	EmptyTestID:         "dumps had no test id and were discarded",
}

// maxSubjects limits how many subjects are listed per kind in the report.
const maxSubjects = 10

// Collector counts soft diagnostics per kind and subject. It is safe for concurrent use.
type Collector struct {
	mu     sync.Mutex
	counts map[Kind]map[string]int
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{counts: map[Kind]map[string]int{}}
}

// Record counts one occurrence of kind for the given subject. A nil collector ignores the call.
func (c *Collector) Record(kind Kind, subject string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	subjects, ok := c.counts[kind]
	if !ok {
		subjects = map[string]int{}
		c.counts[kind] = subjects
	}
	subjects[subject]++
}

// Occurrences returns the total number of occurrences recorded for kind.
func (c *Collector) Occurrences(kind Kind) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, count := range c.counts[kind] {
		total += count
	}
	return total
}

// Subjects returns the distinct subjects recorded for kind, sorted.
func (c *Collector) Subjects(kind Kind) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	subjects := make([]string, 0, len(c.counts[kind]))
	for subject := range c.counts[kind] {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)
	return subjects
}

// Count returns how often kind was recorded for subject.
func (c *Collector) Count(kind Kind, subject string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.counts[kind][subject]
}

// Empty returns true if nothing was recorded.
func (c *Collector) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.counts) == 0
}

// Report writes one warning per recorded kind to logger.
func (c *Collector) Report(logger *log.Entry) {
	kinds := c.kinds()
	for _, kind := range kinds {
		subjects := c.Subjects(kind)
		listed := subjects
		if len(listed) > maxSubjects {
			listed = listed[:maxSubjects]
		}
		logger.WithFields(log.Fields{
			"diagnostic":  string(kind),
			"occurrences": c.Occurrences(kind),
			"subjects":    len(subjects),
		}).Warnf("%s: %s", descriptions[kind], strings.Join(listed, ", "))
	}
}

func (c *Collector) kinds() []Kind {
	c.mu.Lock()
	defer c.mu.Unlock()

	kinds := make([]Kind, 0, len(c.counts))
	for kind := range c.counts {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
