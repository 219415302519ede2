package u2f

import (
	"fmt"
	"runtime/debug"

	"github.com/op/go-logging"
)

// RecoverToLog runs f, logging (rather than crashing the process on) any
// panic it raises, adapted from krd's RecoverToLog so the dispatcher's
// goroutine can never take the whole process down silently.
func RecoverToLog(f func(), log *logging.Logger) {
	defer func() {
		if x := recover(); x != nil {
			if log != nil {
				log.Error(fmt.Sprintf("run time panic: %v", x))
				log.Error(string(debug.Stack()))
			}
		}
	}()
	f()
}
