package main

import (
	"os"

	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/cmd/jacoco/app"
	"github.com/jenkins-x-apps/jx-app-jacoco-testwise/internal/logging"
	log "github.com/sirupsen/logrus"
)

var (
	logger = logging.AppLogger().WithFields(log.Fields{"component": "main"})
)

func main() {
	if err := app.NewRootCommand().Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
