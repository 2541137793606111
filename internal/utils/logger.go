// Package utils holds small ambient helpers shared across packages:
// logger setup and pooled scratch buffers for hot parsing paths.
package utils

import (
	"github.com/sirupsen/logrus"
)

// LogConfig controls the process-wide logrus logger, matching the
// teacher's SetupLogger contract (level + format, falling back safely).
type LogConfig struct {
	Level  string // logrus level name; invalid values fall back to info
	Format string // "json" or "text"
}

// SetupLogger configures the global logrus logger the way the teacher's
// utils.SetupLogger does: parse the level with a safe fallback, pick a
// formatter, and otherwise leave logrus's default stderr output as the
// single sink (this core has
// no on-disk log file requirement, so the teacher's file-tee branch is not
// carried over).
func SetupLogger(cfg LogConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.Warn("Invalid log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
}
