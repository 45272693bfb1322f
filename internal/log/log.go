// Package log is a small key/value logging facade over logrus.
package log

import (
	"io"
	"net/url"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger writes leveled, structured log lines.
type Logger struct {
	entry *logrus.Entry
}

var std = New(os.Stderr)

// New returns a logger writing text lines to w at info level.
func New(w io.Writer) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	return &Logger{entry: logrus.NewEntry(l)}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard)
}

// Default returns the process-wide logger.
func Default() *Logger { return std }

// SetVerbose switches the process-wide logger to debug level.
func SetVerbose(on bool) {
	if on {
		std.entry.Logger.SetLevel(logrus.DebugLevel)
		return
	}
	std.entry.Logger.SetLevel(logrus.InfoLevel)
}

// With returns a child logger that always carries the given pairs.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{entry: l.entry.WithFields(fields(kv))}
}

func (l *Logger) Debug(msg string, kv ...any) {
	l.entry.WithFields(fields(kv)).Debug(msg)
}

func (l *Logger) Info(msg string, kv ...any) {
	l.entry.WithFields(fields(kv)).Info(msg)
}

func (l *Logger) Warn(msg string, kv ...any) {
	l.entry.WithFields(fields(kv)).Warn(msg)
}

// Error logs msg with err attached under the "err" key.
func (l *Logger) Error(msg string, err error, kv ...any) {
	l.entry.WithFields(fields(kv)).WithError(err).Error(msg)
}

// fields turns key, value, key, value... into logrus fields.
// Non-string keys and a trailing odd value are ignored.
func fields(kv []any) logrus.Fields {
	f := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		f[key] = kv[i+1]
	}
	return f
}

// RedactURL trims a URL down to scheme and host so tokens in paths, query
// strings or userinfo never reach the logs.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
