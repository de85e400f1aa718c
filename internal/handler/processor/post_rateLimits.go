package processor

import (
	"context"
	"log/slog"
	"time"

	gh "github.com/google/go-github/v84/github"
	"github.com/isometry/bridge-sync/internal/helpers"
	"github.com/isometry/bridge-sync/internal/models"
	"golang.org/x/time/rate"
)

// RateLimitFetcher reads the GitHub API rate limits.
type RateLimitFetcher interface {
	RateLimits(ctx context.Context) (*gh.RateLimits, error)
}

type rateLimitsPostProcessor struct {
	logger   *slog.Logger
	fetcher  RateLimitFetcher
	throttle *rate.Sometimes
}

// NewRateLimitsPostProcessor logs the GitHub rate limits at most once per interval.
func NewRateLimitsPostProcessor(fetcher RateLimitFetcher, interval time.Duration, opts ...Option) Processor {
	_inst := &rateLimitsPostProcessor{logger: helpers.NewNoopLogger(), fetcher: fetcher, throttle: helpers.Throttle(interval)}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *rateLimitsPostProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("post-processor:rate-limits")
}

func (p *rateLimitsPostProcessor) Process(ctx context.Context, _ *models.Bus) (err error) {
	p.throttle.Do(func() {
		limits, rErr := p.fetcher.RateLimits(ctx)
		if rErr != nil {
			p.logger.Warn("failed to fetch rate limits", slog.Any("error", rErr))
			err = rErr
			return
		}
		core := limits.GetCore()
		if core == nil {
			p.logger.Debug("no core rate limit reported")
			return
		}
		p.logger.Info("rate limits fetched",
			slog.Int("limit", core.Limit), slog.Int("remaining", core.Remaining), slog.Time("reset", core.Reset.Time))
	})
	return err
}
