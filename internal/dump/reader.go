package dump

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

type decoder interface {
	Decode(v interface{}) error
}

// Reader reads a stream of coverage dumps.
type Reader struct {
	name    string
	decoder decoder
	closer  io.Closer
	read    int
}

// NewReader creates a reader decoding dumps in the given format from r. The name is used
// in error messages only.
func NewReader(name string, r io.Reader, format Format) *Reader {
	reader := &Reader{name: name}
	if format == CBOR {
		reader.decoder = decMode.NewDecoder(r)
	} else {
		reader.decoder = json.NewDecoder(r)
	}
	if closer, ok := r.(io.Closer); ok {
		reader.closer = closer
	}
	return reader
}

// Next returns the next dump of the stream. At the end of the stream it returns io.EOF.
func (r *Reader) Next() (*CoverageDump, error) {
	dump := &CoverageDump{}
	if err := r.decoder.Decode(dump); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.Wrapf(err, "unable to decode dump %d of %s", r.read+1, r.name)
	}
	r.read++
	return dump, nil
}

// Count returns the number of dumps read so far.
func (r *Reader) Count() int {
	return r.read
}

// Close closes the underlying stream if it is closable.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Each calls f for every dump of the stream until the stream ends or f returns an error.
func (r *Reader) Each(f func(dump *CoverageDump) error) error {
	for {
		dump, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := f(dump); err != nil {
			return err
		}
	}
}
