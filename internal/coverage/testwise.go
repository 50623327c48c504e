package coverage

import (
	"sort"
	"sync"
)

// Acceptor consumes the coverage of one test at a time.
type Acceptor interface {
	Accept(acc *TestCoverageAccumulator) error
}

// TestwiseCoverage holds the coverage of all tests of a run. Repeated observations of the
// same test are merged. It is safe for concurrent use.
type TestwiseCoverage struct {
	mu    sync.Mutex
	tests map[string]*TestCoverageAccumulator
}

// NewTestwiseCoverage creates an empty container.
func NewTestwiseCoverage() *TestwiseCoverage {
	return &TestwiseCoverage{tests: map[string]*TestCoverageAccumulator{}}
}

// Add merges acc into the coverage of its test. Empty accumulators are ignored.
func (c *TestwiseCoverage) Add(acc *TestCoverageAccumulator) error {
	if acc == nil || acc.IsEmpty() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.tests[acc.uniformPath]
	if !ok {
		existing = NewTestCoverageAccumulator(acc.uniformPath)
		c.tests[acc.uniformPath] = existing
	}
	return existing.Merge(acc)
}

// Accept implements Acceptor.
func (c *TestwiseCoverage) Accept(acc *TestCoverageAccumulator) error {
	return c.Add(acc)
}

// Get returns the coverage of the test with the given uniform path.
func (c *TestwiseCoverage) Get(uniformPath string) (*TestCoverageAccumulator, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	acc, ok := c.tests[uniformPath]
	return acc, ok
}

// UniformPaths returns the sorted uniform paths of all tests with coverage.
func (c *TestwiseCoverage) UniformPaths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	paths := make([]string, 0, len(c.tests))
	for path := range c.tests {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Tests returns the coverage of all tests ordered by uniform path.
func (c *TestwiseCoverage) Tests() []*TestCoverageAccumulator {
	paths := c.UniformPaths()

	c.mu.Lock()
	defer c.mu.Unlock()

	tests := make([]*TestCoverageAccumulator, 0, len(paths))
	for _, path := range paths {
		tests = append(tests, c.tests[path])
	}
	return tests
}

// Len returns the number of tests with coverage.
func (c *TestwiseCoverage) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.tests)
}
