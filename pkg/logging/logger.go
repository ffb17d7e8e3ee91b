package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logger *logrus.Logger

// InitLogging initializes logging
func InitLogging(mode string) {
	logger = logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if mode == "release" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}
}

// Infof logs info level messages
func Infof(format string, v ...interface{}) {
	if logger != nil {
		logger.Infof(format, v...)
	}
}

// Warnf logs warning level messages
func Warnf(format string, v ...interface{}) {
	if logger != nil {
		logger.Warnf(format, v...)
	}
}

// Errorf logs error level messages
func Errorf(format string, v ...interface{}) {
	if logger != nil {
		logger.Errorf(format, v...)
	}
}
