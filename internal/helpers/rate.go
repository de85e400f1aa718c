package helpers

import (
	"time"

	"golang.org/x/time/rate"
)

// Throttle returns a limiter that runs its function at most once per interval. The first call always runs.
func Throttle(interval time.Duration) *rate.Sometimes {
	return &rate.Sometimes{First: 1, Interval: interval}
}
