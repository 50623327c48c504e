package analysis

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/diagnostics"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/fingerprint"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const classSuffix = ".class"

var archiveSuffixes = []string{".jar", ".war", ".ear", ".zip", ".aar"}

// classes without executable code which every archive may contain under the same name
var skippedClassNames = []string{"module-info.class", "package-info.class"}

// Stats summarizes one population run.
type Stats struct {
	// Analyzed is the number of class bodies handed to the analyzer.
	Analyzed int64
	// Identical is the number of class bodies skipped because an identical body was cached.
	Identical int64
	// SkippedArchives is the number of archives not opened because they were already scanned.
	SkippedArchives int64
	// Filtered is the number of classes rejected by the filter.
	Filtered int64
}

// DriverOptions configures a Driver.
type DriverOptions struct {
	// Filter selects the classes to analyze. Nil includes all classes.
	Filter Filter
	// Workers limits the number of parallel analyzer calls. Defaults to the number of CPUs.
	Workers int
}

// Driver walks class directories and archives and populates a Cache, calling the analyzer
// at most once per distinct class body. Inputs are enumerated in order on the calling goroutine
// and the analyzer calls run in parallel.
type Driver struct {
	cache    *Cache
	analyzer Analyzer
	filter   Filter
	workers  int
	diags    *diagnostics.Collector

	analyzed        int64
	identical       int64
	skippedArchives int64
	filtered        int64
}

// source is a class file or an archive to populate the cache from.
type source struct {
	file string
	// location names the source in filters and diagnostics. Class files found by walking a
	// directory are named "dir@com/example/Foo.class" like archive entries.
	location string
}

// population is the state of one Populate call.
type population struct {
	ctx       context.Context
	group     *errgroup.Group
	scheduled map[fingerprint.Fingerprint]struct{}
	order     int
}

// NewDriver creates a driver populating cache with analyzer.
func NewDriver(cache *Cache, analyzer Analyzer, diags *diagnostics.Collector, options DriverOptions) *Driver {
	workers := options.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Driver{
		cache:    cache,
		analyzer: analyzer,
		filter:   options.Filter,
		workers:  workers,
		diags:    diags,
	}
}

// Populate analyzes all classes found in inputs, which may be directories, class files or
// archives, and seals the cache. Unreadable inputs abort the population. The cache is only
// sealed once all inputs are completely processed.
func (d *Driver) Populate(ctx context.Context, inputs []string) error {
	sources, err := d.expand(inputs)
	if err != nil {
		return err
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(d.workers)
	p := &population{ctx: egCtx, group: eg, scheduled: map[fingerprint.Fingerprint]struct{}{}}
	for _, src := range sources {
		if err = d.populateSource(p, src); err != nil {
			break
		}
	}
	if waitErr := eg.Wait(); err == nil {
		err = waitErr
	}
	if err != nil {
		return err
	}

	stats := d.Stats()
	logger.WithFields(log.Fields{
		"classes":          d.cache.Len(),
		"analyzed":         stats.Analyzed,
		"identical":        stats.Identical,
		"skipped-archives": stats.SkippedArchives,
		"filtered":         stats.Filtered,
	}).Info("class analysis finished")

	return d.cache.Seal()
}

// Stats returns the statistics of the population so far.
func (d *Driver) Stats() Stats {
	return Stats{
		Analyzed:        atomic.LoadInt64(&d.analyzed),
		Identical:       atomic.LoadInt64(&d.identical),
		SkippedArchives: atomic.LoadInt64(&d.skippedArchives),
		Filtered:        atomic.LoadInt64(&d.filtered),
	}
}

// expand resolves directories to the class files and archives they contain, in lexical order.
func (d *Driver) expand(inputs []string) ([]source, error) {
	var sources []source
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read input %s", input)
		}
		if !info.IsDir() {
			if !isClass(input) && !isArchive(input) {
				return nil, errors.Errorf("input %s is neither a directory, a class file nor an archive", input)
			}
			sources = append(sources, source{file: input, location: filepath.ToSlash(input)})
			continue
		}
		err = filepath.Walk(input, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			switch {
			case info.IsDir():
			case isClass(file):
				rel, err := filepath.Rel(input, file)
				if err != nil {
					return err
				}
				sources = append(sources, source{file: file, location: filepath.ToSlash(input) + "@" + filepath.ToSlash(rel)})
			case isArchive(file):
				sources = append(sources, source{file: file, location: filepath.ToSlash(file)})
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "unable to walk input directory %s", input)
		}
	}
	return sources, nil
}

func (d *Driver) populateSource(p *population, src source) error {
	if err := p.ctx.Err(); err != nil {
		return err
	}
	if isClass(src.file) {
		if !d.accepts(src.location) {
			return nil
		}
		body, err := ioutil.ReadFile(src.file)
		if err != nil {
			return errors.Wrapf(err, "unable to read class file %s", src.file)
		}
		d.populateClass(p, src.location, body)
		return nil
	}

	fp, err := fingerprintArchiveFile(src.file)
	if err != nil {
		return err
	}
	if !d.cache.MarkArchive(fp) {
		atomic.AddInt64(&d.skippedArchives, 1)
		logger.Debugf("skipping archive %s, identical archive already scanned", src.file)
		return nil
	}

	reader, err := zip.OpenReader(src.file)
	if err != nil {
		return errors.Wrapf(err, "unable to open archive %s", src.file)
	}
	defer reader.Close()

	return d.populateArchive(p, &reader.Reader, src.location)
}

func (d *Driver) populateArchive(p *population, archive *zip.Reader, prefix string) error {
	for _, entry := range archive.File {
		if err := p.ctx.Err(); err != nil {
			return err
		}
		if entry.FileInfo().IsDir() {
			continue
		}

		location := prefix + "@" + entry.Name
		switch {
		case isArchive(entry.Name):
			data, err := readEntry(entry)
			if err != nil {
				return errors.Wrapf(err, "unable to read nested archive %s", location)
			}
			if !d.cache.MarkArchive(fingerprint.OfArchiveBytes(data)) {
				atomic.AddInt64(&d.skippedArchives, 1)
				continue
			}
			nested, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
			if err != nil {
				return errors.Wrapf(err, "unable to open nested archive %s", location)
			}
			if err := d.populateArchive(p, nested, location); err != nil {
				return err
			}
		case isClass(entry.Name):
			if !d.accepts(location) {
				continue
			}
			body, err := readEntry(entry)
			if err != nil {
				return errors.Wrapf(err, "unable to read class %s", location)
			}
			d.populateClass(p, location, body)
		}
	}
	return nil
}

// populateClass schedules the analysis of the first occurrence of a class body. Later
// occurrences of the same body only count as identical.
func (d *Driver) populateClass(p *population, location string, body []byte) {
	fp := fingerprint.OfClass(body)
	if _, ok := p.scheduled[fp]; ok || d.cache.Contains(fp) {
		atomic.AddInt64(&d.identical, 1)
		return
	}
	p.scheduled[fp] = struct{}{}

	order := p.order
	p.order++
	p.group.Go(func() error {
		return d.analyze(p.ctx, fp, location, body, order)
	})
}

func (d *Driver) analyze(ctx context.Context, fp fingerprint.Fingerprint, location string, body []byte, order int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	atomic.AddInt64(&d.analyzed, 1)
	analysis, err := d.analyzer.Analyze(ctx, location, body)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.rejectClass(location, err)
		return nil
	}
	lookup, err := NewClassCoverageLookup(fp, analysis)
	if err != nil {
		d.rejectClass(location, err)
		return nil
	}
	return d.cache.Register(lookup, location, order)
}

func (d *Driver) rejectClass(location string, err error) {
	d.diags.Record(diagnostics.ClassAnalysisFailed, location)
	logger.Debugf("unable to analyze %s: %s", location, err)
}

func (d *Driver) accepts(location string) bool {
	if d.filter != nil && !d.filter.Matches(location) {
		atomic.AddInt64(&d.filtered, 1)
		return false
	}
	return true
}

func fingerprintArchiveFile(file string) (fingerprint.Fingerprint, error) {
	f, err := os.Open(file)
	if err != nil {
		return fingerprint.Fingerprint{}, errors.Wrapf(err, "unable to open archive %s", file)
	}
	defer f.Close()

	fp, err := fingerprint.OfArchive(f)
	if err != nil {
		return fp, errors.Wrapf(err, "unable to read archive %s", file)
	}
	return fp, nil
}

func readEntry(entry *zip.File) ([]byte, error) {
	reader, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	var buffer bytes.Buffer
	buffer.Grow(int(entry.UncompressedSize64))
	if _, err := io.Copy(&buffer, reader); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func isClass(name string) bool {
	if !strings.HasSuffix(name, classSuffix) {
		return false
	}
	base := path.Base(filepath.ToSlash(name))
	for _, skipped := range skippedClassNames {
		if base == skipped {
			return false
		}
	}
	return true
}

func isArchive(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range archiveSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
