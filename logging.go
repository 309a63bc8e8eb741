package main

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/infothings/auth/models"
)

func configureLogger(cfg models.Config) {
	logger.Out = os.Stderr
	if cfg.IsDebug {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetReportCaller(true)
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetReportCaller(false)
	}
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
	})
}
