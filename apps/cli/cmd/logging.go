package cmd

import (
	"io"

	"github.com/sirupsen/logrus"
)

// newLogger logs to w at warn level, info with -v and debug with -vv.
func newLogger(w io.Writer, verbosity int) *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	switch {
	case verbosity >= 2:
		logger.SetLevel(logrus.DebugLevel)
	case verbosity == 1:
		logger.SetLevel(logrus.InfoLevel)
	default:
		logger.SetLevel(logrus.WarnLevel)
	}
	return logrus.NewEntry(logger)
}
