// Package u2f holds the constants, sentinel errors, and logging setup
// shared by every u2fkeyd package.
package u2f

import (
	"os"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("")

var stderrFormat = logging.MustStringFormatter(
	`%{color}%{time:15:04:05.000} u2fkeyd ▶ %{level:.4s} %{message}%{color:reset}`,
)

var syslogFormat = logging.MustStringFormatter(
	`%{time:15:04:05.000} %{level:.4s} ▶ %{message}`,
)

// SetupLogging wires a leveled logging.Logger, preferring syslog (where the
// platform supports it) and falling back to a colorized stderr backend.
// The level can be overridden at runtime with U2F_LOG_LEVEL.
func SetupLogging(prefix string, defaultLevel logging.Level, trySyslog bool) *logging.Logger {
	var backend logging.Backend
	if trySyslog {
		backend = newSyslogBackend(prefix)
	}
	if backend == nil {
		backend = logging.NewLogBackend(os.Stderr, prefix, 0)
		logging.SetFormatter(stderrFormat)
	}

	leveled := logging.AddModuleLevel(backend)
	switch os.Getenv("U2F_LOG_LEVEL") {
	case "CRITICAL":
		leveled.SetLevel(logging.CRITICAL, prefix)
	case "ERROR":
		leveled.SetLevel(logging.ERROR, prefix)
	case "WARNING":
		leveled.SetLevel(logging.WARNING, prefix)
	case "NOTICE":
		leveled.SetLevel(logging.NOTICE, prefix)
	case "INFO":
		leveled.SetLevel(logging.INFO, prefix)
	case "DEBUG":
		leveled.SetLevel(logging.DEBUG, prefix)
	default:
		leveled.SetLevel(defaultLevel, prefix)
	}

	logging.SetBackend(leveled)
	return log
}
