package report

import (
	"encoding/json"
	"io/ioutil"

	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/dump"
	"github.com/pkg/errors"
)

var r retriever = &defaultRetriever{}

type retriever interface {
	getRawList(location string) ([]byte, error)
}

type defaultRetriever struct {
}

func (r *defaultRetriever) getRawList(location string) ([]byte, error) {
	stream, err := dump.Retrieve(location)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	return ioutil.ReadAll(stream)
}

// LoadTestDetails loads the JSON list of declared tests from a file or URL.
// An empty location yields no tests.
func LoadTestDetails(location string) ([]TestDetails, error) {
	var details []TestDetails
	if err := load(location, &details); err != nil {
		return nil, err
	}
	return details, nil
}

// LoadTestExecutions loads the JSON list of test execution outcomes from a file or URL.
// An empty location yields no executions.
func LoadTestExecutions(location string) ([]TestExecution, error) {
	var executions []TestExecution
	if err := load(location, &executions); err != nil {
		return nil, err
	}
	return executions, nil
}

func load(location string, v interface{}) error {
	if location == "" {
		return nil
	}
	raw, err := r.getRawList(location)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrapf(err, "unable to parse test list %s", location)
	}
	return nil
}
