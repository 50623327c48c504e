package coverage

import (
	"testing"

	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/lines"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func builder(path string, fileName string, covered ...int) *FileCoverageBuilder {
	b := NewFileCoverageBuilder(path, fileName)
	b.AddLines(lines.New(covered...))
	return b
}

func TestFileCoverageBuilderMerge(t *testing.T) {
	b := builder("com/example", "File.java", 1, 2)

	require.NoError(t, b.Merge(builder("com/example", "File.java", 2, 3)))

	assert.Equal(t, "1-3", b.CoveredLines())
	assert.False(t, b.IsEmpty())
}

func TestFileCoverageBuilderCrossFileMerge(t *testing.T) {
	var testCases = []struct {
		other *FileCoverageBuilder
	}{
		{builder("com/example", "Other.java", 1)},
		{builder("com/other", "File.java", 1)},
	}

	for _, testCase := range testCases {
		b := builder("com/example", "File.java", 5)
		err := b.Merge(testCase.other)

		require.Error(t, err)
		assert.True(t, IsIntegrityError(err))
		assert.Equal(t, "5", b.CoveredLines(), "target must stay unchanged")
	}
}

func TestCrossFileMergeErrorMessage(t *testing.T) {
	err := builder("", "Main.java").Merge(builder("com/example", "Foo.java"))
	assert.EqualError(t, err, "cannot merge coverage of com/example/Foo.java into coverage of Main.java")
}

func TestFileCoverageBuilderLinesIsCopy(t *testing.T) {
	b := builder("com/example", "File.java", 1)

	copied := b.Lines()
	copied.Add(10)

	assert.Equal(t, "1", b.CoveredLines())
}
