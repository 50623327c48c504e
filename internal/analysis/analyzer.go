package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// ClassAnalysis is the result of analyzing one class body: the class's name, its source
// file name and, per probe id, the source lines the probe covers.
type ClassAnalysis struct {
	// ClassName is the VM name of the class, e.g. "com/example/Foo$Inner".
	ClassName string `json:"className"`
	// SourceFile is the source file name from the debug information; empty without it.
	SourceFile string `json:"sourceFile"`
	// ProbeCount is the number of probes of the class. If zero, it is derived from the
	// highest probe id.
	ProbeCount int `json:"probeCount"`
	// Probes maps a probe id to the lines it covers.
	Probes map[int][]int `json:"probes"`
}

// Analyzer analyzes a single class body. Implementations must be safe for concurrent use.
type Analyzer interface {
	Analyze(ctx context.Context, location string, body []byte) (*ClassAnalysis, error)
}

// AnalyzerFunc adapts a function to the Analyzer interface.
type AnalyzerFunc func(ctx context.Context, location string, body []byte) (*ClassAnalysis, error)

// Analyze calls f.
func (f AnalyzerFunc) Analyze(ctx context.Context, location string, body []byte) (*ClassAnalysis, error) {
	return f(ctx, location, body)
}

// ExecAnalyzer runs an external analyzer process once per class. The class body is
// written to the process' stdin and the location is passed as last argument. The process
// must print a JSON encoded ClassAnalysis to stdout.
type ExecAnalyzer struct {
	command string
	args    []string
}

// NewExecAnalyzer creates an analyzer running the given command line, e.g.
// "java -jar probe-analyzer.jar".
func NewExecAnalyzer(commandLine string) (*ExecAnalyzer, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, errors.New("analyzer command cannot be empty")
	}
	return &ExecAnalyzer{command: fields[0], args: fields[1:]}, nil
}

// Analyze implements Analyzer.
func (a *ExecAnalyzer) Analyze(ctx context.Context, location string, body []byte) (*ClassAnalysis, error) {
	args := append(append([]string{}, a.args...), location)
	cmd := exec.CommandContext(ctx, a.command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(body)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "analyzer failed for %s: %s", location, strings.TrimSpace(stderr.String()))
	}

	analysis := &ClassAnalysis{}
	if err := json.Unmarshal(stdout.Bytes(), analysis); err != nil {
		return nil, errors.Wrapf(err, "unable to parse analyzer output for %s", location)
	}
	return analysis, nil
}
