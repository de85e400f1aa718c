package helpers_test

import (
	"testing"
	"time"

	"github.com/isometry/bridge-sync/internal/helpers"
	"github.com/stretchr/testify/assert"
)

func TestThrottle(t *testing.T) {
	s := helpers.Throttle(time.Hour)
	calls := 0
	for range 3 {
		s.Do(func() { calls++ })
	}
	assert.Equal(t, 1, calls)
}
