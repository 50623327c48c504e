package util

import (
	"runtime"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
)

var timeout = 60 * time.Second

// Contains checks whether the specified string is contained in the given string slice.
// Returns true if it does, false otherwise
func Contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// SplitList splits a separated list setting into its trimmed, non-empty elements.
func SplitList(value string, separator string) []string {
	var elements []string
	for _, element := range strings.Split(value, separator) {
		element = strings.TrimSpace(element)
		if element != "" {
			elements = append(elements, element)
		}
	}
	return elements
}

// NameOfFunction returns the unqualified name of the function containing the program counter,
// e.g. "Level" for the method (*EnvConfig).Level.
func NameOfFunction(pc uintptr) string {
	f := runtime.FuncForPC(pc)
	if f == nil {
		return ""
	}
	name := f.Name()
	return name[strings.LastIndex(name, ".")+1:]
}

// ApplyWithBackoff tries to apply the specified function using an exponential backoff algorithm.
// If the function eventually succeed nil is returned, otherwise the error returned by f.
// Errors wrapped with Permanent stop the retries immediately.
func ApplyWithBackoff(f func() error) error {
	exponentialBackOff := backoff.NewExponentialBackOff()
	exponentialBackOff.MaxElapsedTime = timeout
	exponentialBackOff.Reset()
	return backoff.Retry(f, exponentialBackOff)
}

// Permanent marks err as not worth retrying by ApplyWithBackoff.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
