// +build windows

package u2f

import "github.com/op/go-logging"

// newSyslogBackend has no Windows equivalent; callers fall back to stderr.
func newSyslogBackend(prefix string) logging.Backend {
	return nil
}
