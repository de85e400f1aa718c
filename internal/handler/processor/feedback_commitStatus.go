package processor

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/isometry/bridge-sync/internal/controllers/github"
	"github.com/isometry/bridge-sync/internal/helpers"
	"github.com/isometry/bridge-sync/internal/metrics"
	"github.com/isometry/bridge-sync/internal/models"
	"github.com/isometry/bridge-sync/internal/syncer"
)

// StatusSender creates commit statuses.
type StatusSender interface {
	SendCommitStatus(ctx context.Context, req github.StatusRequest) error
}

// CommitStatusTarget identifies the commit the feedback is attached to.
type CommitStatusTarget struct {
	Repository string
	SHA        string
	// Context supports the {variant} placeholder.
	Context   string
	TargetURL string
}

type commitStatusFeedbackProcessor struct {
	logger  *slog.Logger
	metrics metrics.Sink
	sender  StatusSender
	target  CommitStatusTarget
}

// NewCommitStatusFeedbackProcessor reports the outcome of every attempted synchronisation as a commit status.
func NewCommitStatusFeedbackProcessor(sender StatusSender, target CommitStatusTarget, sink metrics.Sink, opts ...Option) Processor {
	if sink == nil {
		sink = metrics.NewNoopSink()
	}
	_inst := &commitStatusFeedbackProcessor{logger: helpers.NewNoopLogger(), metrics: sink, sender: sender, target: target}
	applyOpts(_inst, opts...)
	return _inst
}

func (p *commitStatusFeedbackProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("feedback-processor:commit-status")
}

func (p *commitStatusFeedbackProcessor) Process(ctx context.Context, bus *models.Bus) error {
	if !bus.Attempted {
		p.logger.Debug("synchronisation not attempted. skipping...")
		return nil
	}

	state, description := CommitStatusFor(bus.Error)
	err := p.sender.SendCommitStatus(ctx, github.StatusRequest{
		Repository:  p.target.Repository,
		SHA:         p.target.SHA,
		State:       state,
		Context:     strings.ReplaceAll(p.target.Context, "{variant}", bus.Variant),
		Description: description,
		TargetURL:   p.target.TargetURL,
	})
	p.metrics.FeedbackSent(err)
	if err != nil {
		p.logger.Error("failed to send feedback commit-status", slog.Any("error", err))
		return err
	}
	return nil
}

// CommitStatusFor maps a synchronisation error to a commit status and its description. Calls rejected by an
// upstream are failures; anything that never got an upstream response is an error.
func CommitStatusFor(err error) (github.CommitStatus, string) {
	if err == nil {
		return github.CommitStatusSuccess, "workflows synchronised"
	}
	var e *syncer.Error
	if errors.As(err, &e) && e.StatusCode != 0 {
		return github.CommitStatusFailure, err.Error()
	}
	return github.CommitStatusError, err.Error()
}
