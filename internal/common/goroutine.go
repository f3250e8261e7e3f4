// -----------------------------------------------------------------------
// Safe Goroutine - Panic-protected goroutine wrappers
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/ternarybob/arbor"
)

// SafeGo runs a function in a goroutine with panic recovery, joined to the
// given WaitGroup. A panic is logged and the goroutine counts as done, so
// callers waiting on the group are never blocked by a crashed task.
//
// Example:
//
//	var wg sync.WaitGroup
//	common.SafeGo(&wg, logger, "fetchMarketData", func() {
//	    snapshot, snapErr = fetcher.Fetch(ctx, stockID)
//	})
//	wg.Wait()
func SafeGo(wg *sync.WaitGroup, logger arbor.ILogger, name string, fn func()) {
	wg.Add(1)

	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				stackTrace := string(buf[:n])

				if logger != nil {
					logger.Error().
						Str("goroutine", name).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", stackTrace).
						Msg("Recovered from panic in goroutine - continuing run")
				} else {
					// Fallback to stderr if no logger
					fmt.Fprintf(os.Stderr, "PANIC in goroutine %s: %v\n%s\n", name, r, stackTrace)
				}
			}
		}()

		fn()
	}()
}
