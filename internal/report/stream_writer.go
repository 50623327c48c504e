package report

import (
	"sort"

	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/coverage"
	"github.com/pkg/errors"
)

// StreamWriter writes the record of each test as soon as its coverage is complete. Records
// are written in the order they are accepted. It is not safe for concurrent use.
type StreamWriter struct {
	records *RecordReconciler
	docs    *documentWriter
	closed  bool
}

// NewStreamWriter creates a writer splitting its output into documents of at most splitAfter
// records. A splitAfter of zero or less writes a single document.
func NewStreamWriter(records *RecordReconciler, sinks Sinks, splitAfter int) *StreamWriter {
	return &StreamWriter{
		records: records,
		docs:    newDocumentWriter(sinks, splitAfter),
	}
}

// Accept implements coverage.Acceptor. Empty coverage is ignored.
func (w *StreamWriter) Accept(acc *coverage.TestCoverageAccumulator) error {
	if w.closed {
		return errors.New("report stream writer is closed")
	}
	if acc == nil || acc.IsEmpty() {
		return nil
	}
	return w.docs.write(w.records.CreateFor(acc))
}

// Close writes the records of declared tests without coverage and finishes the last document.
func (w *StreamWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var err error
	for _, info := range w.records.CreateForRemaining() {
		if err = w.docs.write(info); err != nil {
			break
		}
	}
	if closeErr := w.docs.close(); err == nil {
		err = closeErr
	}
	return err
}

// Written returns the number of records written so far.
func (w *StreamWriter) Written() int {
	return w.docs.written
}

// Documents returns the number of documents opened so far.
func (w *StreamWriter) Documents() int {
	return w.docs.documents
}

// WriteBatch writes the records of all tests ordered by uniform path, including declared tests
// without coverage. It returns the number of records written.
func WriteBatch(testwise *coverage.TestwiseCoverage, records *RecordReconciler, sinks Sinks, splitAfter int) (int, error) {
	var infos []*TestInfo
	for _, acc := range testwise.Tests() {
		infos = append(infos, records.CreateFor(acc))
	}
	infos = append(infos, records.CreateForRemaining()...)
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].UniformPath < infos[j].UniformPath
	})

	docs := newDocumentWriter(sinks, splitAfter)
	var err error
	for _, info := range infos {
		if err = docs.write(info); err != nil {
			break
		}
	}
	if closeErr := docs.close(); err == nil {
		err = closeErr
	}
	return docs.written, err
}
