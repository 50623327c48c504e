package analysis

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExecAnalyzerRequiresCommand(t *testing.T) {
	_, err := NewExecAnalyzer("   ")
	assert.Error(t, err)
}

func TestExecAnalyzer(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	// "sh -c cat <location>" echoes the body, which for the fake classes is the analysis itself
	analyzer, err := NewExecAnalyzer("sh -c cat")
	require.NoError(t, err)

	body := classBody(t, "com/example/Foo", "Foo.java", map[int][]int{0: {3, 4}})
	analysis, err := analyzer.Analyze(context.Background(), "lib.jar@com/example/Foo.class", body)

	require.NoError(t, err)
	assert.Equal(t, "com/example/Foo", analysis.ClassName)
	assert.Equal(t, "Foo.java", analysis.SourceFile)
	assert.Equal(t, []int{3, 4}, analysis.Probes[0])
}

func TestExecAnalyzerFailures(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	failing, err := NewExecAnalyzer("sh -c false")
	require.NoError(t, err)
	_, err = failing.Analyze(context.Background(), "Foo.class", []byte("body"))
	assert.Error(t, err)

	garbage, err := NewExecAnalyzer("sh -c cat")
	require.NoError(t, err)
	_, err = garbage.Analyze(context.Background(), "Foo.class", []byte("not json"))
	assert.Error(t, err)
}
