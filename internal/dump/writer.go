package dump

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

type encoder interface {
	Encode(v interface{}) error
}

// Writer writes a stream of coverage dumps which Reader can read back.
type Writer struct {
	encoder encoder
	closer  io.Closer
}

// NewWriter creates a writer encoding dumps in the given format to w. JSON dumps are
// written one per line.
func NewWriter(w io.Writer, format Format) *Writer {
	writer := &Writer{}
	if format == CBOR {
		writer.encoder = encMode.NewEncoder(w)
	} else {
		writer.encoder = json.NewEncoder(w)
	}
	if closer, ok := w.(io.Closer); ok {
		writer.closer = closer
	}
	return writer
}

// CreateFile creates the file and a writer using the format and compression derived from
// the file name.
func CreateFile(file string) (*Writer, error) {
	format, compression, err := FormatOf(file)
	if err != nil {
		return nil, err
	}
	f, err := os.Create(file)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create dump file %s", file)
	}
	w, err := compress(f, compression)
	if err != nil {
		f.Close()
		return nil, err
	}
	return NewWriter(w, format), nil
}

// Write appends the dump to the stream.
func (w *Writer) Write(dump *CoverageDump) error {
	return errors.Wrap(w.encoder.Encode(dump), "unable to encode dump")
}

// Close flushes compressed output and closes the underlying stream if it is closable.
func (w *Writer) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}
