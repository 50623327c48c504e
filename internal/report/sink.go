package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Sinks opens the outputs of the numbered report documents.
type Sinks interface {
	// Open opens the output of the document with the given 1-based index.
	Open(index int) (io.WriteCloser, error)
}

// SplitFileName inserts "-index" before the extension of base, e.g. "out/testwise.json"
// becomes "out/testwise-1.json".
func SplitFileName(base string, index int) string {
	ext := filepath.Ext(base)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(base, ext), index, ext)
}

// FileSinks writes the report documents to numbered files next to a base path.
type FileSinks struct {
	base  string
	files []string
}

// NewFileSinks creates sinks for the given base path.
func NewFileSinks(base string) *FileSinks {
	return &FileSinks{base: base}
}

// Open implements Sinks.
func (s *FileSinks) Open(index int) (io.WriteCloser, error) {
	file := SplitFileName(s.base, index)
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return nil, errors.Wrapf(err, "unable to create report directory for %s", file)
	}
	f, err := os.Create(file)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create report file %s", file)
	}
	s.files = append(s.files, file)
	return &fileSink{file: f, writer: bufio.NewWriter(f)}, nil
}

// Files returns the files opened so far.
func (s *FileSinks) Files() []string {
	return s.files
}

type fileSink struct {
	file    *os.File
	writer  *bufio.Writer
	written uint64
}

func (s *fileSink) Write(p []byte) (int, error) {
	n, err := s.writer.Write(p)
	s.written += uint64(n)
	return n, err
}

func (s *fileSink) Close() error {
	flushErr := s.writer.Flush()
	closeErr := s.file.Close()
	if flushErr != nil {
		return errors.Wrapf(flushErr, "unable to write report file %s", s.file.Name())
	}
	if closeErr != nil {
		return errors.Wrapf(closeErr, "unable to close report file %s", s.file.Name())
	}
	logger.WithFields(log.Fields{"file": s.file.Name()}).Infof("wrote %s of testwise coverage", humanize.Bytes(s.written))
	return nil
}
