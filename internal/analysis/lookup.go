package analysis

import (
	"strings"

	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/fingerprint"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/lines"
	"github.com/pkg/errors"
)

// maxProbes bounds the probe count reported by an analyzer.
const maxProbes = 1 << 20

// ClassCoverageLookup holds everything needed to turn the probe hits of one class body into
// covered lines. It is immutable once built and owned by the Cache.
type ClassCoverageLookup struct {
	fingerprint fingerprint.Fingerprint
	className   string
	sourceFile  string
	probeCount  int
	probes      []*lines.LineSet
}

// NewClassCoverageLookup builds the lookup for the class body with the given fingerprint.
func NewClassCoverageLookup(fp fingerprint.Fingerprint, analysis *ClassAnalysis) (*ClassCoverageLookup, error) {
	if analysis == nil || analysis.ClassName == "" {
		return nil, errors.Errorf("analysis of class %s has no class name", fp.Short())
	}

	probeCount := analysis.ProbeCount
	if probeCount == 0 {
		for probe := range analysis.Probes {
			if probe >= 0 && probe < maxProbes && probe+1 > probeCount {
				probeCount = probe + 1
			}
		}
	}
	if probeCount < 0 || probeCount > maxProbes {
		return nil, errors.Errorf("class %s has %d probes, expected at most %d", analysis.ClassName, probeCount, maxProbes)
	}

	probes := make([]*lines.LineSet, probeCount)
	for probe, probeLines := range analysis.Probes {
		if probe < 0 || probe >= probeCount {
			return nil, errors.Errorf("probe %d of class %s is outside of the %d probes of the class", probe, analysis.ClassName, probeCount)
		}
		for _, line := range probeLines {
			if line > lines.MaxLine {
				return nil, errors.Errorf("probe %d of class %s maps to line %d beyond the maximum line %d", probe, analysis.ClassName, line, lines.MaxLine)
			}
		}
		set := lines.New(probeLines...)
		if !set.IsEmpty() {
			probes[probe] = set
		}
	}

	return &ClassCoverageLookup{
		fingerprint: fp,
		className:   analysis.ClassName,
		sourceFile:  analysis.SourceFile,
		probeCount:  probeCount,
		probes:      probes,
	}, nil
}

// Fingerprint returns the fingerprint of the analyzed class body.
func (l *ClassCoverageLookup) Fingerprint() fingerprint.Fingerprint {
	return l.fingerprint
}

// ClassName returns the VM name of the class, e.g. "com/example/Foo".
func (l *ClassCoverageLookup) ClassName() string {
	return l.className
}

// SourceFile returns the source file name or the empty string if the class has no debug information.
func (l *ClassCoverageLookup) SourceFile() string {
	return l.sourceFile
}

// PackagePath returns the package of the class in path form, e.g. "com/example".
// Classes in the default package return the empty string.
func (l *ClassCoverageLookup) PackagePath() string {
	index := strings.LastIndex(l.className, "/")
	if index < 0 {
		return ""
	}
	return l.className[:index]
}

// ProbeCount returns the number of probes of the class.
func (l *ClassCoverageLookup) ProbeCount() int {
	return l.probeCount
}

// ProbeLines returns the lines covered by the probe. The second result is false if the probe
// maps to no line. The returned set must not be modified.
func (l *ClassCoverageLookup) ProbeLines(probe int) (*lines.LineSet, bool) {
	if probe < 0 || probe >= len(l.probes) || l.probes[probe] == nil {
		return nil, false
	}
	return l.probes[probe], true
}
