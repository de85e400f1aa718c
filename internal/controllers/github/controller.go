// Package github provides a Controller for the GitHub feedback sent after a synchronisation.
package github

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/google/go-github/v84/github"
	"github.com/isometry/bridge-sync/internal/helpers"
	"github.com/isometry/bridge-sync/internal/syncer"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// CommitStatus is a type to represent the commit status.
type CommitStatus string

const (
	// CommitStatusSuccess marks a successful synchronisation.
	CommitStatusSuccess CommitStatus = "success"
	// CommitStatusFailure marks a synchronisation rejected by an upstream.
	CommitStatusFailure CommitStatus = "failure"
	// CommitStatusError marks a synchronisation that could not be attempted or reach its upstreams.
	CommitStatusError CommitStatus = "error"
	// CommitStatusPending marks a synchronisation in progress.
	CommitStatusPending CommitStatus = "pending"
)

// maxDescriptionLength is the GitHub limit on commit status descriptions.
const maxDescriptionLength = 140

// StatusRequest describes a commit status to create.
type StatusRequest struct {
	Repository  string
	SHA         string
	State       CommitStatus
	Context     string
	Description string
	TargetURL   string
}

// Controller wraps an authenticated, rate-limit aware GitHub client.
type Controller struct {
	logger    *slog.Logger
	token     string
	baseURL   string
	transport http.RoundTripper
	client    *github.Client
}

// GHOption is a functional option used to configure or modify the properties of a Controller instance.
type GHOption func(*Controller)

// NewController creates the GitHub client. A token is required.
func NewController(ctx context.Context, opts ...GHOption) (*Controller, error) {
	_inst := new(Controller)
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	_inst.logger = _inst.logger.With("controller", "github")
	if _inst.token == "" {
		return nil, errors.New("missing GitHub token")
	}
	if _inst.transport == nil {
		_inst.transport = http.DefaultTransport
	}

	authenticated := &oauth2.Transport{
		Source: oauth2.ReuseTokenSource(nil, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: _inst.token})),
		Base:   syncer.NewLoggingTransport(_inst.transport, _inst.logger),
	}
	_inst.client = github.NewClient(github_ratelimit.NewClient(authenticated))
	if _inst.baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(_inst.baseURL, "/") + "/")
		if err != nil {
			return nil, errors.Wrap(err, "invalid GitHub API URL")
		}
		_inst.client.BaseURL = u
	}
	_inst.logger.Debug("created GitHub client", slog.String("baseUrl", _inst.client.BaseURL.String()))
	return _inst, nil
}

// SendCommitStatus creates a commit status on req.Repository at req.SHA.
func (g *Controller) SendCommitStatus(ctx context.Context, req StatusRequest) error {
	owner, repo, err := SplitRepository(req.Repository)
	if err != nil {
		return err
	}
	if req.SHA == "" {
		return errors.New("missing commit sha")
	}

	status := github.RepoStatus{
		State:       github.Ptr(string(req.State)),
		Context:     github.Ptr(req.Context),
		Description: github.Ptr(helpers.Truncate(req.Description, maxDescriptionLength)),
	}
	if req.TargetURL != "" {
		status.TargetURL = github.Ptr(req.TargetURL)
	}

	logger := g.logger.With(slog.String("repository", req.Repository), slog.String("sha", req.SHA))
	logger.Debug("sending commit status", slog.String("state", string(req.State)), slog.String("context", req.Context))
	_, resp, err := g.client.Repositories.CreateStatus(ctx, owner, repo, req.SHA, status)
	if err != nil {
		var body []byte
		if resp != nil && resp.Body != nil {
			body, _ = io.ReadAll(resp.Body)
		}
		logger.Error("failed to send commit status", slog.Any("error", err), slog.String("body", string(body)))
		return errors.Wrapf(err, "failed to create commit status. state: %s", req.State)
	}
	logger.Debug("successfully sent commit status")
	return nil
}

// RateLimits fetches the current API rate limits of the token.
func (g *Controller) RateLimits(ctx context.Context) (*github.RateLimits, error) {
	limits, _, err := g.client.RateLimit.Get(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch rate limits")
	}
	return limits, nil
}

// SplitRepository splits an owner/name slug.
func SplitRepository(slug string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(strings.TrimSpace(slug), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", errors.Errorf("invalid repository %q: expected owner/name", slug)
	}
	return owner, repo, nil
}
