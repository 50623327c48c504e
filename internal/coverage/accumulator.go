package coverage

import (
	"sort"

	"github.com/pkg/errors"
)

type fileKey struct {
	path     string
	fileName string
}

// TestCoverageAccumulator collects the file coverage of a single test, grouped by path and file.
// It is not safe for concurrent use.
type TestCoverageAccumulator struct {
	uniformPath string
	files       map[fileKey]*FileCoverageBuilder
}

// NewTestCoverageAccumulator creates an empty accumulator for the test with the given uniform path.
func NewTestCoverageAccumulator(uniformPath string) *TestCoverageAccumulator {
	return &TestCoverageAccumulator{
		uniformPath: uniformPath,
		files:       map[fileKey]*FileCoverageBuilder{},
	}
}

// UniformPath returns the uniform path of the test.
func (a *TestCoverageAccumulator) UniformPath() string {
	return a.uniformPath
}

// Add merges the builder into the coverage of its file. Empty builders are ignored.
// The builder is copied, later changes to it do not affect the accumulator.
func (a *TestCoverageAccumulator) Add(builder *FileCoverageBuilder) error {
	if builder == nil || builder.IsEmpty() {
		return nil
	}
	key := fileKey{builder.path, builder.fileName}
	existing, ok := a.files[key]
	if !ok {
		a.files[key] = builder.clone()
		return nil
	}
	return existing.Merge(builder)
}

// Merge adds all file coverage of other, which must belong to the same test.
func (a *TestCoverageAccumulator) Merge(other *TestCoverageAccumulator) error {
	if other.uniformPath != a.uniformPath {
		return errors.Errorf("cannot merge coverage of test %s into coverage of test %s", other.uniformPath, a.uniformPath)
	}
	for _, builder := range other.files {
		if err := a.Add(builder); err != nil {
			return err
		}
	}
	return nil
}

// IsEmpty returns true if the test covered no line.
func (a *TestCoverageAccumulator) IsEmpty() bool {
	for _, builder := range a.files {
		if !builder.IsEmpty() {
			return false
		}
	}
	return true
}

// Paths returns the sorted package paths with coverage.
func (a *TestCoverageAccumulator) Paths() []string {
	seen := map[string]bool{}
	var paths []string
	for key := range a.files {
		if !seen[key.path] {
			seen[key.path] = true
			paths = append(paths, key.path)
		}
	}
	sort.Strings(paths)
	return paths
}

// Files returns the coverage of all files in the given path sorted by file name.
func (a *TestCoverageAccumulator) Files(path string) []*FileCoverageBuilder {
	var files []*FileCoverageBuilder
	for key, builder := range a.files {
		if key.path == path {
			files = append(files, builder)
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].fileName < files[j].fileName
	})
	return files
}

// File returns the coverage of a single file.
func (a *TestCoverageAccumulator) File(path string, fileName string) (*FileCoverageBuilder, bool) {
	builder, ok := a.files[fileKey{path, fileName}]
	return builder, ok
}
