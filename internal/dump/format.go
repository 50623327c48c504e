package dump

import (
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// Format is the encoding of a dump stream.
type Format int

const (
	// JSON streams are concatenated JSON documents, usually one per line.
	JSON Format = iota
	// CBOR streams are a sequence of CBOR data items.
	CBOR
)

func (f Format) String() string {
	if f == CBOR {
		return "cbor"
	}
	return "json"
}

// Compression is the compression applied on top of the encoded stream.
type Compression int

const (
	// Uncompressed streams are read as is.
	Uncompressed Compression = iota
	// LZ4 streams use the LZ4 frame format.
	LZ4
	// Zstd streams use the Zstandard frame format.
	Zstd
)

func (c Compression) String() string {
	switch c {
	case LZ4:
		return "lz4"
	case Zstd:
		return "zstd"
	default:
		return "none"
	}
}

// FormatOf derives format and compression from the extensions of a file name or URL,
// e.g. "dumps.cbor.zst". Query parameters of URLs are ignored.
func FormatOf(location string) (Format, Compression, error) {
	name := strings.ToLower(path.Base(stripQuery(location)))

	compression := Uncompressed
	switch {
	case strings.HasSuffix(name, ".lz4"):
		compression = LZ4
		name = strings.TrimSuffix(name, ".lz4")
	case strings.HasSuffix(name, ".zst"):
		compression = Zstd
		name = strings.TrimSuffix(name, ".zst")
	}

	switch path.Ext(name) {
	case ".json", ".ndjson":
		return JSON, compression, nil
	case ".cbor":
		return CBOR, compression, nil
	default:
		return JSON, compression, errors.Errorf("unsupported dump format of %s, expected .json, .ndjson or .cbor", location)
	}
}

func stripQuery(location string) string {
	if index := strings.IndexAny(location, "?#"); index >= 0 {
		return location[:index]
	}
	return location
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r *readCloser) Close() error {
	return r.close()
}

// decompress wraps r with the decompressor for c. Closing the result closes r.
func decompress(r io.ReadCloser, c Compression) (io.ReadCloser, error) {
	switch c {
	case LZ4:
		return &readCloser{Reader: lz4.NewReader(r), close: r.Close}, nil
	case Zstd:
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, "unable to create zstd decoder")
		}
		return &readCloser{Reader: decoder, close: func() error {
			decoder.Close()
			return r.Close()
		}}, nil
	default:
		return r, nil
	}
}

type writeCloser struct {
	io.Writer
	close func() error
}

func (w *writeCloser) Close() error {
	return w.close()
}

// compress wraps w with the compressor for c. Closing the result flushes the compressor
// and closes w.
func compress(w io.WriteCloser, c Compression) (io.WriteCloser, error) {
	switch c {
	case LZ4:
		lz4Writer := lz4.NewWriter(w)
		return &writeCloser{Writer: lz4Writer, close: func() error {
			return closeBoth(lz4Writer, w)
		}}, nil
	case Zstd:
		encoder, err := zstd.NewWriter(w)
		if err != nil {
			return nil, errors.Wrap(err, "unable to create zstd encoder")
		}
		return &writeCloser{Writer: encoder, close: func() error {
			return closeBoth(encoder, w)
		}}, nil
	default:
		return w, nil
	}
}

func closeBoth(first io.Closer, second io.Closer) error {
	err := first.Close()
	if secondErr := second.Close(); err == nil {
		err = secondErr
	}
	return err
}
