package coverage

import (
	"fmt"

	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/lines"
)

// FileCoverageBuilder collects the covered lines of one source file, identified by the
// package path and the file name.
type FileCoverageBuilder struct {
	path     string
	fileName string
	lines    *lines.LineSet
}

// NewFileCoverageBuilder creates an empty builder for the given file.
func NewFileCoverageBuilder(path string, fileName string) *FileCoverageBuilder {
	return &FileCoverageBuilder{
		path:     path,
		fileName: fileName,
		lines:    lines.New(),
	}
}

// Path returns the package path of the file, e.g. "com/example".
func (b *FileCoverageBuilder) Path() string {
	return b.path
}

// FileName returns the file name, e.g. "Foo.java".
func (b *FileCoverageBuilder) FileName() string {
	return b.fileName
}

// AddLine marks a single line as covered.
func (b *FileCoverageBuilder) AddLine(line int) {
	b.lines.Add(line)
}

// AddLines marks all given lines as covered.
func (b *FileCoverageBuilder) AddLines(covered *lines.LineSet) {
	b.lines.Merge(covered)
}

// Merge adds the lines of other, which must describe the same file.
func (b *FileCoverageBuilder) Merge(other *FileCoverageBuilder) error {
	if b.path != other.path || b.fileName != other.fileName {
		return &CrossFileMergeError{
			Path:          b.path,
			FileName:      b.fileName,
			OtherPath:     other.path,
			OtherFileName: other.fileName,
		}
	}
	b.lines.Merge(other.lines)
	return nil
}

// IsEmpty returns true if no line is covered.
func (b *FileCoverageBuilder) IsEmpty() bool {
	return b.lines.IsEmpty()
}

// Lines returns a copy of the covered lines.
func (b *FileCoverageBuilder) Lines() *lines.LineSet {
	return b.lines.Clone()
}

// CoveredLines returns the covered lines in compacted range form, e.g. "1-3,7".
func (b *FileCoverageBuilder) CoveredLines() string {
	return b.lines.CompactToRanges()
}

func (b *FileCoverageBuilder) clone() *FileCoverageBuilder {
	return &FileCoverageBuilder{
		path:     b.path,
		fileName: b.fileName,
		lines:    b.lines.Clone(),
	}
}

// CrossFileMergeError is returned when merging the coverage of two different files.
type CrossFileMergeError struct {
	Path          string
	FileName      string
	OtherPath     string
	OtherFileName string
}

func (e *CrossFileMergeError) Error() string {
	return fmt.Sprintf("cannot merge coverage of %s into coverage of %s", joinPath(e.OtherPath, e.OtherFileName), joinPath(e.Path, e.FileName))
}

func joinPath(path string, fileName string) string {
	if path == "" {
		return fileName
	}
	return path + "/" + fileName
}
