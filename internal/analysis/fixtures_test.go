package analysis

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// classBody creates a fake class body. The bodies are JSON encoded analyses so that
// countingAnalyzer can "analyze" them without a real bytecode analyzer.
func classBody(t *testing.T, className string, sourceFile string, probes map[int][]int) []byte {
	body, err := json.Marshal(ClassAnalysis{ClassName: className, SourceFile: sourceFile, Probes: probes})
	require.NoError(t, err)
	return body
}

type countingAnalyzer struct {
	mu    sync.Mutex
	calls map[string]int
}

func newCountingAnalyzer() *countingAnalyzer {
	return &countingAnalyzer{calls: map[string]int{}}
}

func (a *countingAnalyzer) Analyze(ctx context.Context, location string, body []byte) (*ClassAnalysis, error) {
	analysis := &ClassAnalysis{}
	if err := json.Unmarshal(body, analysis); err != nil {
		return nil, errors.Wrap(err, "not a class")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls[analysis.ClassName]++
	return analysis, nil
}

func (a *countingAnalyzer) totalCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	total := 0
	for _, count := range a.calls {
		total += count
	}
	return total
}

func zipBytes(t *testing.T, entries map[string][]byte) []byte {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var buffer bytes.Buffer
	writer := zip.NewWriter(&buffer)
	for _, name := range names {
		w, err := writer.Create(name)
		require.NoError(t, err)
		_, err = w.Write(entries[name])
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buffer.Bytes()
}

func writeFile(t *testing.T, file string, data []byte) string {
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0755))
	require.NoError(t, ioutil.WriteFile(file, data, 0644))
	return file
}
