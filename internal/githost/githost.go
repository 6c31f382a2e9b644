// Package githost talks to the source-control API. The pipeline depends on
// the Fetcher contract only; the GitHub client and the in-process mock are
// interchangeable behind it.
package githost

import (
	"context"
	"errors"

	"github.com/juparave/commitcast/internal/domain"
)

// The closed set of failures a Fetcher may report. The orchestrator
// translates these into the response taxonomy; raw upstream detail stays
// server-side.
var (
	ErrUnauthorized        = errors.New("source host rejected the credential")
	ErrNotFound            = errors.New("commit or repository not found")
	ErrUpstreamRateLimited = errors.New("source host rate limit exceeded")
	ErrUpstreamUnavailable = errors.New("source host unavailable")
)

// Fetcher retrieves commit diffs and repository listings from the source
// host on behalf of the service.
type Fetcher interface {
	// FetchDiff returns the unified diff of one commit. The context bounds
	// the upstream call and carries request cancellation.
	FetchDiff(ctx context.Context, owner, repo, commitSha string) (*domain.DiffDocument, error)

	// ListRepositories returns the repositories visible to the configured
	// credential.
	ListRepositories(ctx context.Context) ([]domain.Repository, error)
}
