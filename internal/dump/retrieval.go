package dump

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/logging"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/util"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	logger = logging.AppLogger().WithFields(log.Fields{"component": "dump"})

	timeout           = time.Second * 30
	r       retriever = &defaultRetriever{}
)

type retriever interface {
	open(location string) (io.ReadCloser, error)
}

type defaultRetriever struct {
}

func (r *defaultRetriever) open(location string) (io.ReadCloser, error) {
	if !IsURL(location) {
		f, err := os.Open(location)
		if os.IsNotExist(err) {
			return nil, util.Permanent(err)
		}
		return f, err
	}

	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = timeout
	client.RetryMax = 3
	client.Logger = logger

	response, err := client.Get(location)
	if err != nil {
		return nil, util.Permanent(err)
	}
	if response.StatusCode != http.StatusOK {
		response.Body.Close()
		return nil, util.Permanent(errors.Errorf("unexpected status %s retrieving %s", response.Status, location))
	}
	return response.Body, nil
}

// IsURL returns true for http and https locations.
func IsURL(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Retrieve opens a local file or an HTTP(S) URL. Compressed content is transparently
// decompressed according to the ".lz4" or ".zst" suffix of the location.
func Retrieve(location string) (io.ReadCloser, error) {
	var stream io.ReadCloser
	err := util.ApplyWithBackoff(func() error {
		var err error
		stream, err = r.open(location)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to retrieve %s", location)
	}

	_, compression, _ := FormatOf(location)
	decompressed, err := decompress(stream, compression)
	if err != nil {
		stream.Close()
		return nil, err
	}
	return decompressed, nil
}

// Open retrieves the dump stream at location and returns a reader for it. The format is
// derived from the location, see FormatOf.
func Open(location string) (*Reader, error) {
	format, _, err := FormatOf(location)
	if err != nil {
		return nil, err
	}
	stream, err := Retrieve(location)
	if err != nil {
		return nil, err
	}
	logger.Debugf("reading %s dumps from %s", format, location)
	return NewReader(location, stream, format), nil
}
