package util

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is shared by every netpec package. Commands log to stderr so that
// PEC output on stdout stays machine readable.
var Logger = logrus.New()

func init() {
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.InfoLevel)
	Logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
}

// SetLogLevel parses a logrus level name (debug, info, warn, ...)
func SetLogLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	Logger.SetLevel(lvl)
	return nil
}

// SetLogOutput redirects log output, mostly for tests.
func SetLogOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// SetJSONFormat switches to one JSON object per line.
func SetJSONFormat() {
	Logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyMsg: "message",
		},
	})
}

func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// WithRouter tags an entry with the hostname whose configuration is being
// parsed or analyzed.
func WithRouter(router string) *logrus.Entry {
	return Logger.WithField("router", router)
}

func WithPrefix(prefix string) *logrus.Entry {
	return Logger.WithField("prefix", prefix)
}

func WithOperation(operation string) *logrus.Entry {
	return Logger.WithField("operation", operation)
}

// WithAnalysis tags an entry with an operation and the analysis it concerns.
func WithAnalysis(operation, id string) *logrus.Entry {
	return Logger.WithFields(logrus.Fields{
		"operation": operation,
		"analysis":  id,
	})
}

func Warnf(format string, args ...interface{}) {
	Logger.Warnf(format, args...)
}
