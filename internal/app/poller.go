package app

import (
	"context"
	"time"

	"github.com/five82/slayergit/internal/logging"
	"github.com/five82/slayergit/internal/refresh"
	"github.com/five82/slayergit/internal/state"
)

// maxBackoff caps the wait between polls while cycles keep failing.
const maxBackoff = 30 * time.Second

// Refresher runs one synchronous refresh cycle.
type Refresher interface {
	Refresh(ctx context.Context, kinds state.KindSet) (refresh.Outcome, error)
}

// StartPoller launches a background goroutine that refreshes every kind at a
// fixed cadence, backing off while cycles report failures. It returns
// immediately; interval <= 0 disables polling.
func StartPoller(ctx context.Context, r Refresher, interval time.Duration) {
	if interval <= 0 {
		return
	}
	logger := logging.NewLogger("poller")
	go func() {
		failures := 0
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			out, err := r.Refresh(ctx, state.All)
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return
				}
				failures++
				logger.WithError(err).Warn("poll refresh failed")
			case !out.OK():
				failures++
				logger.WithField("failed", out.Failed.Strings()).Debug("poll refresh had failures")
			default:
				failures = 0
			}
			timer.Reset(calculateBackoff(failures, interval))
		}
	}()
}

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff. It never returns less than base.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	ceiling := maxBackoff
	if base > ceiling {
		ceiling = base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= ceiling {
			return ceiling
		}
	}
	return d
}
