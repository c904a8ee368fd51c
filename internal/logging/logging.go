package logging

import (
	"context"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type ctxKey int

const entryKey ctxKey = iota

var base = logrus.New()

// Setup configures the process-wide logger and returns it.
func Setup(level, format string) *logrus.Logger {
	base.SetOutput(os.Stdout)
	if strings.EqualFold(format, "text") {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)
	return base
}

func Logger() *logrus.Logger { return base }

// WithFields returns ctx carrying an entry extended with fields.
func WithFields(ctx context.Context, fields logrus.Fields) context.Context {
	return context.WithValue(ctx, entryKey, FromContext(ctx).WithFields(fields))
}

// FromContext returns the request-scoped entry, or a bare entry.
func FromContext(ctx context.Context) *logrus.Entry {
	if ctx != nil {
		if e, ok := ctx.Value(entryKey).(*logrus.Entry); ok {
			return e
		}
	}
	return logrus.NewEntry(base)
}
