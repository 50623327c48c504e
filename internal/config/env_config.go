package config

import (
	"fmt"
	"net/url"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/logging"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/util"
	"github.com/magiconair/properties"
	"github.com/pkg/errors"
)

const redacted = "redacted"

var (
	settings = map[string]Setting{}
)

func init() {
	// Analysis
	settings["ClassDirs"] = Setting{"CLASS_DIRS", "class-dirs", "", []func(interface{}, string) error{util.IsNotEmpty}}
	settings["Includes"] = Setting{"INCLUDES", "includes", "", nil}
	settings["Excludes"] = Setting{"EXCLUDES", "excludes", "", nil}
	settings["Duplicates"] = Setting{"DUPLICATES", "duplicates", "warn", []func(interface{}, string) error{util.IsOneOf("warn", "fail")}}
	settings["AnalyzerCommand"] = Setting{"ANALYZER_COMMAND", "analyzer-command", "", []func(interface{}, string) error{util.IsNotEmpty}}
	settings["AnalysisWorkers"] = Setting{"ANALYSIS_WORKERS", "analysis-workers", "0", []func(interface{}, string) error{util.IsInt}}

	// Dumps and test lists
	settings["Dumps"] = Setting{"DUMPS", "dumps", "", nil}
	settings["TestDetails"] = Setting{"TEST_DETAILS", "test-details", "", nil}
	settings["TestExecutions"] = Setting{"TEST_EXECUTIONS", "test-executions", "", nil}

	// Report
	settings["Output"] = Setting{"OUTPUT", "output", "testwise-coverage.json", []func(interface{}, string) error{util.IsNotEmpty}}
	settings["SplitAfter"] = Setting{"SPLIT_AFTER", "split-after", "5000", []func(interface{}, string) error{util.IsInt}}
	settings["ReportMode"] = Setting{"REPORT_MODE", "report-mode", "streaming", []func(interface{}, string) error{util.IsOneOf("streaming", "batch")}}

	// Logging
	settings["Level"] = Setting{"LOG_LEVEL", "log-level", "info", []func(interface{}, string) error{util.IsNotEmpty}}
	settings["Format"] = Setting{"LOG_FORMAT", "log-format", "text", []func(interface{}, string) error{util.IsOneOf("text", "json")}}
}

// Setting is an element in the app configuration. It contains the environment variable and
// the property from which the setting is retrieved, its default value as well as a list
// of validations which the value of this setting needs to pass.
type Setting struct {
	key          string
	property     string
	defaultValue string
	validations  []func(interface{}, string) error
}

// Property returns the name of the setting in properties files and on the command line.
func (s Setting) Property() string {
	return s.property
}

// EnvConfig is a Configuration implementation which reads the configuration from explicit
// overrides, the process environment and an optional properties file, in this order.
type EnvConfig struct {
	overrides  map[string]string
	properties *properties.Properties
}

// NewConfiguration creates a configuration instance. propertiesFile may be empty. Overrides
// are keyed by property name, e.g. "class-dirs", and take precedence over all other sources.
func NewConfiguration(propertiesFile string, overrides map[string]string) (Configuration, error) {
	config := EnvConfig{overrides: overrides, properties: properties.NewProperties()}
	if propertiesFile != "" {
		p, err := properties.LoadFile(propertiesFile, properties.UTF8)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to load configuration file %s", propertiesFile)
		}
		config.properties = p
	}

	// Check if we have all we need.
	multiError := config.verify()
	if !multiError.Empty() {
		for _, err := range multiError.Errors {
			logging.AppLogger().Error(err)
		}
		return nil, errors.Wrap(multiError.ToError(), "one or more required configuration values are missing or invalid")
	}

	return &config, nil
}

// Properties returns the property names of all settings, sorted.
func Properties() []string {
	var names []string
	for _, setting := range settings {
		names = append(names, setting.property)
	}
	sort.Strings(names)
	return names
}

// EnvironmentVariable returns the environment variable of the setting with the given property name.
func EnvironmentVariable(property string) string {
	for _, setting := range settings {
		if setting.property == property {
			return setting.key
		}
	}
	return ""
}

// ClassDirs returns the directories, class files and archives to analyze.
func (c *EnvConfig) ClassDirs() []string {
	callPtr, _, _, _ := runtime.Caller(0)
	return util.SplitList(c.getConfigValue(util.NameOfFunction(callPtr)), ",")
}

// Includes returns the wildcard patterns of classes to analyze.
func (c *EnvConfig) Includes() []string {
	callPtr, _, _, _ := runtime.Caller(0)
	return util.SplitList(c.getConfigValue(util.NameOfFunction(callPtr)), ":")
}

// Excludes returns the wildcard patterns of classes to skip.
func (c *EnvConfig) Excludes() []string {
	callPtr, _, _, _ := runtime.Caller(0)
	return util.SplitList(c.getConfigValue(util.NameOfFunction(callPtr)), ":")
}

// Duplicates returns the policy for non-identical classes with the same name.
func (c *EnvConfig) Duplicates() string {
	callPtr, _, _, _ := runtime.Caller(0)
	return strings.ToLower(c.getConfigValue(util.NameOfFunction(callPtr)))
}

// AnalyzerCommand returns the command line of the external class analyzer.
func (c *EnvConfig) AnalyzerCommand() string {
	callPtr, _, _, _ := runtime.Caller(0)
	return c.getConfigValue(util.NameOfFunction(callPtr))
}

// AnalysisWorkers returns the number of inputs analyzed in parallel.
func (c *EnvConfig) AnalysisWorkers() int {
	callPtr, _, _, _ := runtime.Caller(0)
	return c.getIntConfigValue(util.NameOfFunction(callPtr))
}

// Dumps returns the files or URLs of the coverage dumps.
func (c *EnvConfig) Dumps() []string {
	callPtr, _, _, _ := runtime.Caller(0)
	return util.SplitList(c.getConfigValue(util.NameOfFunction(callPtr)), ",")
}

// TestDetails returns the file or URL of the declared tests.
func (c *EnvConfig) TestDetails() string {
	callPtr, _, _, _ := runtime.Caller(0)
	return c.getConfigValue(util.NameOfFunction(callPtr))
}

// TestExecutions returns the file or URL of the test execution outcomes.
func (c *EnvConfig) TestExecutions() string {
	callPtr, _, _, _ := runtime.Caller(0)
	return c.getConfigValue(util.NameOfFunction(callPtr))
}

// Output returns the base path of the report documents.
func (c *EnvConfig) Output() string {
	callPtr, _, _, _ := runtime.Caller(0)
	return c.getConfigValue(util.NameOfFunction(callPtr))
}

// SplitAfter returns the maximum number of tests per report document.
func (c *EnvConfig) SplitAfter() int {
	callPtr, _, _, _ := runtime.Caller(0)
	return c.getIntConfigValue(util.NameOfFunction(callPtr))
}

// ReportMode returns "streaming" or "batch".
func (c *EnvConfig) ReportMode() string {
	callPtr, _, _, _ := runtime.Caller(0)
	return strings.ToLower(c.getConfigValue(util.NameOfFunction(callPtr)))
}

// Level returns the logging level.
func (c *EnvConfig) Level() string {
	callPtr, _, _, _ := runtime.Caller(0)
	return c.getConfigValue(util.NameOfFunction(callPtr))
}

// Format returns the log format.
func (c *EnvConfig) Format() string {
	callPtr, _, _, _ := runtime.Caller(0)
	return strings.ToLower(c.getConfigValue(util.NameOfFunction(callPtr)))
}

// String returns a string representation of the configuration.
func (c *EnvConfig) String() string {
	config := map[string]interface{}{}
	for key := range settings {
		config[key] = redactURLs(c.getConfigValue(key))
	}
	return fmt.Sprintf("%v", config)
}

// redactURLs hides user info and query parameters of the URLs in a comma separated value.
// Dump and test list URLs are often signed or carry credentials.
func redactURLs(value string) string {
	elements := strings.Split(value, ",")
	for i, element := range elements {
		u, err := url.Parse(strings.TrimSpace(element))
		if err != nil || u.Host == "" {
			continue
		}
		if u.User != nil {
			u.User = url.User(redacted)
		}
		if u.RawQuery != "" {
			u.RawQuery = redacted
		}
		elements[i] = u.String()
	}
	return strings.Join(elements, ",")
}

// verify checks whether all needed config options are set.
func (c *EnvConfig) verify() util.MultiError {
	var errors util.MultiError
	for _, key := range sortedSettings() {
		setting := settings[key]
		value := c.getConfigValue(key)

		for _, validateFunc := range setting.validations {
			errors.Collect(validateFunc(value, setting.key))
		}
	}

	return errors
}

func (c *EnvConfig) getConfigValue(funcName string) string {
	setting := settings[funcName]

	if value, ok := c.overrides[setting.property]; ok {
		return value
	}
	if value, ok := os.LookupEnv(setting.key); ok {
		return value
	}
	if value, ok := c.properties.Get(setting.property); ok {
		return value
	}
	return setting.defaultValue
}

func (c *EnvConfig) getIntConfigValue(funcName string) int {
	// validated in NewConfiguration
	value, _ := strconv.Atoi(c.getConfigValue(funcName))
	return value
}

func sortedSettings() []string {
	keys := make([]string, 0, len(settings))
	for key := range settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
