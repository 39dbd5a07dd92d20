package walletadapter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultDetectionInterval    = time.Second
	DefaultDetectionMaxAttempts = 600
)

// PollDetection runs detect once immediately and then once per interval until it
// returns true, maxAttempts checks have been made (0 means no limit), ctx is
// cancelled or stop is called. stop blocks until the polling goroutine has exited.
func PollDetection(ctx context.Context, interval time.Duration, maxAttempts int, detect func() bool) (stop func()) {
	if interval <= 0 {
		interval = DefaultDetectionInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		limiter := rate.NewLimiter(rate.Every(interval), 1)
		for attempt := 0; maxAttempts <= 0 || attempt < maxAttempts; attempt++ {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			if detect() {
				return
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
