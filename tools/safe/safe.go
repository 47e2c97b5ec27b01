package safe

import (
	"LumeChat/logger"
)

// Go starts a goroutine that recovers from panics, so a single bad event
// handler cannot take down the whole process.
func Go(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe.Go] panic recovered: %v", r)
			}
		}()
		f()
	}()
}
