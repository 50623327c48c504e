package dump

import (
	"bytes"
	"io"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/fingerprint"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/util"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fooID = fingerprint.OfClass([]byte("com/example/Foo"))
	barID = fingerprint.OfClass([]byte("com/example/Bar"))
)

func sampleDumps() []*CoverageDump {
	return []*CoverageDump{
		{TestID: "com/example/FooTest/testFoo()", Data: []ExecutionData{
			{ID: fooID, Name: "com/example/Foo", Probes: []bool{true, false, true}},
		}},
		{TestID: "", Data: []ExecutionData{
			{ID: barID, Probes: []bool{false}},
		}},
		{TestID: "com/example/BarTest/testBar()", Data: []ExecutionData{
			{ID: barID, Probes: []bool{true}},
			{ID: fooID, Name: "com/example/Foo", Probes: []bool{false, false, false}},
		}},
	}
}

type errorThrowingRetriever struct {
}

func (r *errorThrowingRetriever) open(location string) (io.ReadCloser, error) {
	return nil, util.Permanent(errors.New("Unable to retrieve dumps"))
}

type fixtureRetriever struct {
	data []byte
}

func (r *fixtureRetriever) open(location string) (io.ReadCloser, error) {
	return ioutil.NopCloser(bytes.NewReader(r.data)), nil
}

func TestFormatOf(t *testing.T) {
	var testCases = []struct {
		location    string
		format      Format
		compression Compression
		valid       bool
	}{
		{"dumps.json", JSON, Uncompressed, true},
		{"build/dumps.ndjson", JSON, Uncompressed, true},
		{"dumps.CBOR", CBOR, Uncompressed, true},
		{"dumps.json.lz4", JSON, LZ4, true},
		{"dumps.cbor.zst", CBOR, Zstd, true},
		{"https://storage.example.com/run/dumps.cbor.lz4?version=3", CBOR, LZ4, true},
		{"dumps.exec", JSON, Uncompressed, false},
		{"dumps.zst", JSON, Zstd, false},
	}

	for _, testCase := range testCases {
		format, compression, err := FormatOf(testCase.location)
		if !testCase.valid {
			assert.Error(t, err, testCase.location)
			continue
		}
		require.NoError(t, err, testCase.location)
		assert.Equal(t, testCase.format, format, testCase.location)
		assert.Equal(t, testCase.compression, compression, testCase.location)
	}
}

func TestWriteAndOpenDumpFiles(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"dumps.json", "dumps.cbor", "dumps.ndjson.lz4", "dumps.cbor.zst"} {
		file := filepath.Join(dir, name)
		writer, err := CreateFile(file)
		require.NoError(t, err, name)
		for _, dump := range sampleDumps() {
			require.NoError(t, writer.Write(dump), name)
		}
		require.NoError(t, writer.Close(), name)

		reader, err := Open(file)
		require.NoError(t, err, name)
		var read []*CoverageDump
		err = reader.Each(func(dump *CoverageDump) error {
			read = append(read, dump)
			return nil
		})
		require.NoError(t, err, name)
		require.NoError(t, reader.Close(), name)

		assert.Equal(t, sampleDumps(), read, name)
		assert.Equal(t, 3, reader.Count(), name)
	}
}

func TestReadJSONDumps(t *testing.T) {
	input := `{"testId":"FooTest/testFoo()","data":[{"id":"` + fooID.String() + `","name":"com/example/Foo","probes":[true,false]}]}
{"testId":"","data":[]}`

	reader := NewReader("inline", strings.NewReader(input), JSON)

	dump, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, "FooTest/testFoo()", dump.TestID)
	require.Len(t, dump.Data, 1)
	assert.Equal(t, fooID, dump.Data[0].ID)
	assert.Equal(t, "com/example/Foo", dump.Data[0].Label())
	assert.Equal(t, []bool{true, false}, dump.Data[0].Probes)

	dump, err = reader.Next()
	require.NoError(t, err)
	assert.Equal(t, "", dump.TestID)

	_, err = reader.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReadMalformedDumps(t *testing.T) {
	reader := NewReader("inline", strings.NewReader(`{"testId":"T","data":[{"id":"no-hex","probes":[true]}]}`), JSON)

	_, err := reader.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dump 1 of inline")
}

func TestOpenWithError(t *testing.T) {
	origRetriever := r
	defer func() {
		r = origRetriever
	}()
	r = &errorThrowingRetriever{}

	reader, err := Open("http://foo.bar/dumps.json")
	assert.Error(t, err)
	assert.Equal(t, "unable to retrieve http://foo.bar/dumps.json: Unable to retrieve dumps", err.Error())
	assert.Nil(t, reader)
}

func TestOpenSuccess(t *testing.T) {
	origRetriever := r
	defer func() {
		r = origRetriever
	}()

	var buffer bytes.Buffer
	writer := NewWriter(&buffer, CBOR)
	for _, dump := range sampleDumps() {
		require.NoError(t, writer.Write(dump))
	}
	r = &fixtureRetriever{data: buffer.Bytes()}

	reader, err := Open("http://foo.bar/dumps.cbor")
	require.NoError(t, err)
	defer reader.Close()

	dump, err := reader.Next()
	require.NoError(t, err)
	assert.Equal(t, "com/example/FooTest/testFoo()", dump.TestID)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestOpenUnsupportedFormat(t *testing.T) {
	_, err := Open("dumps.exec")
	assert.Error(t, err)
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://foo.bar/dumps.json"))
	assert.True(t, IsURL("http://foo.bar/dumps.json"))
	assert.False(t, IsURL("/tmp/dumps.json"))
	assert.False(t, IsURL("ftp://foo.bar/dumps.json"))
}
