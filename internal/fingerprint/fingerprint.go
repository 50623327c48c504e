// Package fingerprint computes the content hashes which key the class analysis cache
// and identify already scanned archives.
package fingerprint

import (
	"encoding/hex"
	"io"

	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
)

// Size is the length of a fingerprint in bytes.
const Size = 32

// Fingerprint is a keyed BLAKE3 digest of a byte sequence.
type Fingerprint [Size]byte

type domainKey [32]byte

// Class bodies and archives hash in separate domains so that a class file can never
// be mistaken for an archive with the same bytes.
var (
	classDomainKey = domainKey{
		'j', 'a', 'c', 'o', 'c', 'o', '.', 't', 'e', 's', 't', 'w', 'i', 's', 'e', '.',
		'c', 'l', 'a', 's', 's', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	archiveDomainKey = domainKey{
		'j', 'a', 'c', 'o', 'c', 'o', '.', 't', 'e', 's', 't', 'w', 'i', 's', 'e', '.',
		'a', 'r', 'c', 'h', 'i', 'v', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// OfClass returns the fingerprint of a raw class body.
func OfClass(body []byte) Fingerprint {
	hasher := newHasher(classDomainKey)
	_, _ = hasher.Write(body)
	return sum(hasher)
}

// OfArchive returns the fingerprint of a whole archive read from r.
func OfArchive(r io.Reader) (Fingerprint, error) {
	hasher := newHasher(archiveDomainKey)
	if _, err := io.Copy(hasher, r); err != nil {
		return Fingerprint{}, errors.Wrap(err, "unable to fingerprint archive")
	}
	return sum(hasher), nil
}

// OfArchiveBytes returns the fingerprint of an archive already held in memory.
func OfArchiveBytes(data []byte) Fingerprint {
	hasher := newHasher(archiveDomainKey)
	_, _ = hasher.Write(data)
	return sum(hasher)
}

// Parse parses the 64 character hex form of a fingerprint.
func Parse(value string) (Fingerprint, error) {
	var fingerprint Fingerprint
	decoded, err := hex.DecodeString(value)
	if err != nil {
		return fingerprint, errors.Wrapf(err, "invalid fingerprint '%s'", value)
	}
	if len(decoded) != Size {
		return fingerprint, errors.Errorf("fingerprint '%s' is %d bytes, want %d", value, len(decoded), Size)
	}
	copy(fingerprint[:], decoded)
	return fingerprint, nil
}

// String returns the hex form of the fingerprint.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

// Short returns the first 12 hex characters, used in log messages.
func (f Fingerprint) Short() string {
	return hex.EncodeToString(f[:6])
}

// IsZero returns true for the zero value, which never results from hashing.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// MarshalText implements encoding.TextMarshaler so that fingerprints appear as hex
// strings in JSON and CBOR documents.
func (f Fingerprint) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Fingerprint) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func newHasher(key domainKey) *blake3.Hasher {
	// NewKeyed only fails for keys which are not 32 bytes long.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("fingerprint: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	return hasher
}

func sum(hasher *blake3.Hasher) Fingerprint {
	var fingerprint Fingerprint
	copy(fingerprint[:], hasher.Sum(nil))
	return fingerprint
}
