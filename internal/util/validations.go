package util

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// IsNotEmpty checks if value stored at given key is empty.
// if it is empty it returns an error.
func IsNotEmpty(value interface{}, key string) error {
	s, ok := value.(string)
	if !ok {
		return errors.New(fmt.Sprintf("Value for %s needs to be a string.", key))
	}

	if len(s) == 0 {
		return errors.New(fmt.Sprintf("Value for %s cannot be empty.", key))
	}
	return nil

}

// IsInt checks if values stored at a given key is an int.
func IsInt(value interface{}, key string) error {
	_, err := strconv.Atoi(value.(string))
	if err != nil {
		return errors.New(fmt.Sprintf("Value for %s needs to be an integer.", key))
	}
	return nil
}

// IsOneOf returns a validation which checks that the value is one of the allowed values (case insensitive).
func IsOneOf(allowed ...string) func(interface{}, string) error {
	return func(value interface{}, key string) error {
		s, _ := value.(string)
		if Contains(allowed, strings.ToLower(s)) {
			return nil
		}
		return errors.New(fmt.Sprintf("Value for %s needs to be one of %s.", key, strings.Join(allowed, ", ")))
	}
}
