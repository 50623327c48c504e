package logging

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	// AppName is the name under which all log entries of this app are reported.
	AppName = "jacoco-testwise"
)

var (
	appLogger *log.Entry
)

func init() {
	logger := log.StandardLogger()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	appLogger = logger.WithFields(log.Fields{"app": AppName})
}

// AppLogger returns the application logger.
func AppLogger() *log.Entry {
	return appLogger
}

// SetLevel sets the logging level of the application logger.
// Unknown levels leave the logger at info.
func SetLevel(level string) {
	logrusLevel, err := log.ParseLevel(level)
	if err != nil {
		appLogger.Warnf("unable to parse log level '%s', using 'info': %s", level, err)
		logrusLevel = log.InfoLevel
	}
	appLogger.Logger.SetLevel(logrusLevel)
}

// SetFormat switches between the 'text' and 'json' output format.
func SetFormat(format string) {
	switch strings.ToLower(format) {
	case "json":
		appLogger.Logger.SetFormatter(&log.JSONFormatter{})
	default:
		appLogger.Logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
