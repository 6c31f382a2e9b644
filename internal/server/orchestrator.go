package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/juparave/commitcast/internal/apperr"
	"github.com/juparave/commitcast/internal/auth"
	"github.com/juparave/commitcast/internal/domain"
	"github.com/juparave/commitcast/internal/generate"
	"github.com/juparave/commitcast/internal/githost"
	"github.com/juparave/commitcast/internal/logging"
	"github.com/juparave/commitcast/internal/ratelimit"
	"github.com/juparave/commitcast/internal/validate"
)

// State names the stages of the generation pipeline. Each request walks
// them in order and stops at the first failure.
type State string

const (
	StateReceived      State = "received"
	StateAuthenticated State = "authenticated"
	StateRateChecked   State = "rate_checked"
	StateValidated     State = "validated"
	StateDiffFetched   State = "diff_fetched"
	StateGenerated     State = "generated"
	StateResponded     State = "responded"
	StateFailed        State = "failed"
)

// Pipeline sequences one generation request through authentication, rate
// limiting, validation, diff retrieval and content generation. The check
// order is fixed: a missing credential fails before any budget is consumed,
// and a missing provider key fails before any network call.
type Pipeline struct {
	authn     auth.Authenticator
	store     ratelimit.Store
	fetcher   githost.Fetcher
	generator *generate.Generator // nil when no provider key is configured

	fetchTimeout    time.Duration
	generateTimeout time.Duration
}

// result carries everything the handler needs to build the response
type result struct {
	state    State
	decision *ratelimit.Decision
	drafts   []domain.ContentDraft
	err      error
}

func (p *Pipeline) fail(state State, res result, err error) result {
	res.state = StateFailed
	res.err = err
	logging.Debugf("pipeline failed at %s: %v", state, err)
	return res
}

// run executes the full pipeline for one POST /generate request
func (p *Pipeline) run(r *http.Request, req domain.GenerateRequest, decodeErr error) result {
	res := result{state: StateReceived}

	// Authenticate before touching any rate-limit bucket
	principal, ok := p.authn.Authenticate(r)
	if !ok {
		return p.fail(StateReceived, res, apperr.Authentication())
	}
	res.state = StateAuthenticated

	d := p.store.Consume(r.Context(), clientKey(principal, r))
	res.decision = &d
	if !d.Allowed {
		return p.fail(StateAuthenticated, res, apperr.RateLimited(d.RetryAfter(time.Now())))
	}
	res.state = StateRateChecked

	if decodeErr != nil {
		return p.fail(StateRateChecked, res, apperr.Validation([]apperr.FieldError{{
			Field:   "body",
			Rule:    "json",
			Message: "request body must be a JSON object",
		}}))
	}
	validated, err := validate.GenerateRequest(req)
	if err != nil {
		return p.fail(StateRateChecked, res, err)
	}
	res.state = StateValidated

	// The provider key check sits between validation and the first network
	// call so a misconfigured service never bothers the source host.
	if p.generator == nil {
		return p.fail(StateValidated, res, apperr.Configuration("generation provider API key is not set"))
	}

	diff, err := p.fetchDiff(r.Context(), validated)
	if err != nil {
		return p.fail(StateValidated, res, err)
	}
	res.state = StateDiffFetched

	genCtx, cancel := context.WithTimeout(r.Context(), p.generateTimeout)
	defer cancel()
	drafts, err := p.generator.Generate(genCtx, diff, commitContext(validated, diff))
	if err != nil {
		return p.fail(StateDiffFetched, res, err)
	}
	res.state = StateGenerated
	res.drafts = drafts

	return res
}

// fetchDiff bounds the upstream call and translates fetcher failures into
// the response taxonomy.
func (p *Pipeline) fetchDiff(ctx context.Context, req domain.GenerateRequest) (*domain.DiffDocument, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()

	diff, err := p.fetcher.FetchDiff(fetchCtx, req.Owner, req.RepoName, req.CommitSha)
	if err != nil {
		switch {
		case errors.Is(err, githost.ErrNotFound):
			return nil, apperr.NotFound("commit")
		case errors.Is(err, context.Canceled):
			return nil, err
		default:
			// Unauthorized, throttled and unavailable all mean the upstream
			// call failed through no fault of the caller.
			return nil, apperr.External("source-host", "fetchDiff", err)
		}
	}
	return diff, nil
}

// commitContext is the human-readable description handed to the generator
func commitContext(req domain.GenerateRequest, diff *domain.DiffDocument) string {
	return fmt.Sprintf("Repository %s/%s, commit %s: %d file(s) changed, +%d/-%d lines.",
		req.Owner, req.RepoName, req.CommitSha[:8],
		len(diff.Files), diff.AddedLines(), diff.DeletedLines())
}

// clientKey picks the rate-limit key: the authenticated principal, falling
// back to the client address when a principal has no identifier.
func clientKey(principal auth.Principal, r *http.Request) string {
	if principal.ID != "" {
		return principal.ID
	}
	return r.RemoteAddr
}
