package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

var (
	documentStart = []byte(`{"tests":[`)
	documentEnd   = []byte(`]}`)
	separator     = []byte(`,`)
)

// documentWriter writes records to numbered documents of at most splitAfter records each.
// After the first failure every call returns that failure; the failing sink is closed
// immediately and never reopened.
type documentWriter struct {
	sinks      Sinks
	splitAfter int

	sink      io.WriteCloser
	documents int
	inSink    int
	written   int
	err       error
	buffer    bytes.Buffer
	encoder   *json.Encoder
}

func newDocumentWriter(sinks Sinks, splitAfter int) *documentWriter {
	w := &documentWriter{sinks: sinks, splitAfter: splitAfter}
	w.encoder = json.NewEncoder(&w.buffer)
	w.encoder.SetEscapeHTML(false)
	return w
}

func (w *documentWriter) write(info *TestInfo) error {
	if w.err != nil {
		return w.err
	}
	if w.sink != nil && w.splitAfter > 0 && w.inSink >= w.splitAfter {
		if err := w.closeSink(); err != nil {
			return err
		}
	}
	if w.sink == nil {
		if err := w.openSink(); err != nil {
			return err
		}
	}

	w.buffer.Reset()
	if err := w.encoder.Encode(info); err != nil {
		return w.fail(errors.Wrapf(err, "unable to encode test %s", info.UniformPath))
	}
	record := bytes.TrimSuffix(w.buffer.Bytes(), []byte("\n"))
	if w.inSink > 0 {
		if _, err := w.sink.Write(separator); err != nil {
			return w.fail(errors.Wrap(err, "unable to write report"))
		}
	}
	if _, err := w.sink.Write(record); err != nil {
		return w.fail(errors.Wrap(err, "unable to write report"))
	}
	w.inSink++
	w.written++
	return nil
}

// close finishes the last document. A run without records still produces one empty document.
func (w *documentWriter) close() error {
	if w.err != nil {
		return w.err
	}
	if w.sink == nil && w.documents == 0 {
		if err := w.openSink(); err != nil {
			return err
		}
	}
	if w.sink == nil {
		return nil
	}
	return w.closeSink()
}

func (w *documentWriter) openSink() error {
	sink, err := w.sinks.Open(w.documents + 1)
	if err != nil {
		w.err = err
		return err
	}
	w.sink = sink
	w.documents++
	w.inSink = 0
	if _, err := w.sink.Write(documentStart); err != nil {
		return w.fail(errors.Wrap(err, "unable to write report"))
	}
	return nil
}

func (w *documentWriter) closeSink() error {
	sink := w.sink
	w.sink = nil

	_, err := sink.Write(documentEnd)
	if closeErr := sink.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		w.err = errors.Wrap(err, "unable to finish report")
	}
	return w.err
}

// fail records err and closes the current sink without finishing the document.
func (w *documentWriter) fail(err error) error {
	w.err = err
	if w.sink != nil {
		w.sink.Close()
		w.sink = nil
	}
	return err
}
