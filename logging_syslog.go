// +build !windows

package u2f

import (
	stdlog "log"
	"log/syslog"

	"github.com/op/go-logging"
)

// newSyslogBackend directs panic output to syslog as well, the same trick
// the teacher's GetSyslogBackend uses so a crash after a recover() is not
// lost once stderr is no longer attended.
func newSyslogBackend(prefix string) logging.Backend {
	backend, err := logging.NewSyslogBackendPriority(prefix, syslog.LOG_NOTICE)
	if err != nil {
		return nil
	}
	logging.SetFormatter(syslogFormat)
	if syslogBackend, ok := backend.(*logging.SyslogBackend); ok {
		stdlog.SetOutput(syslogBackend.Writer)
	}
	return backend
}
