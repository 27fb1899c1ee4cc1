package utils

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	base   = newBase()
	baseMu sync.Mutex
)

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	if os.Getenv("DEBUG") == "true" {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}

// ConfigureLogging sets the level and destination shared by every Logger.
// An unknown level leaves the current one in place and is reported.
func ConfigureLogging(level string, out io.Writer) error {
	baseMu.Lock()
	defer baseMu.Unlock()

	if out != nil {
		base.SetOutput(out)
	}
	if level == "" || os.Getenv("DEBUG") == "true" {
		return nil
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	base.SetLevel(parsed)
	return nil
}

// Logger is a named logger; every line carries a component field.
type Logger struct {
	name  string
	entry *logrus.Entry
}

func NewLogger(name string) *Logger {
	return &Logger{
		name:  name,
		entry: base.WithField("component", name),
	}
}

// With returns a child logger carrying an extra field.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{name: l.name, entry: l.entry.WithField(key, value)}
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}
