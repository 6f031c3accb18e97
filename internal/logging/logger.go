package logging

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

var Log *logrus.Logger

func init() {
	Log = logrus.New()
	Log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})
	Log.SetOutput(os.Stdout)
	Log.SetLevel(logrus.InfoLevel)
}

// ForAccount returns a logger entry carrying the account name, so every
// line from one watcher is attributable in the combined stream.
func ForAccount(name string) *logrus.Entry {
	return Log.WithField("account", name)
}
