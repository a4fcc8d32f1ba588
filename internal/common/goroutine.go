// -----------------------------------------------------------------------
// Safe Goroutine - Panic-protected goroutine wrappers
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"os"
	"runtime"

	"github.com/ternarybob/arbor"
)

// SafeGo runs a function in a goroutine with panic recovery.
// Panics are logged but don't crash the service.
// Use this for async operations like event publishing where failure should not be fatal.
//
// Example:
//
//	common.SafeGo(logger, "publishEvent", func() {
//	    eventService.Publish(ctx, event)
//	})
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				// Get stack trace
				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				stackTrace := string(buf[:n])

				// Log the panic
				if logger != nil {
					logger.Error().
						Str("goroutine", name).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", stackTrace).
						Msg("Recovered from panic in goroutine - continuing service operation")
				} else {
					// Fallback to stderr if no logger
					fmt.Fprintf(os.Stderr, "PANIC in goroutine %s: %v\n%s\n", name, r, stackTrace)
				}

				// Don't exit - this is a non-fatal goroutine crash; the log
				// entry above is its only record
				writeCrashLog(name, r, stackTrace)
			}
		}()

		fn()
	}()
}

// writeCrashLog is the hook for non-fatal goroutine panics. It writes no
// file: unlike fatal crashes, these are recorded only by SafeGo's log entry.
func writeCrashLog(goroutineName string, panicVal interface{}, stackTrace string) {
	// For non-fatal panics, we just log - don't create a crash file
	// The logger should capture this adequately
	// If we wanted persistent crash logs, we could write here
}
