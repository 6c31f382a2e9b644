package githost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/juparave/commitcast/internal/domain"
	"github.com/juparave/commitcast/internal/logging"
)

const defaultBaseURL = "https://api.github.com"

// Client fetches diffs from the GitHub REST API using direct HTTP calls
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a GitHub client. baseURL falls back to the public API
// when empty (set it for GitHub Enterprise).
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// GitHub API response structures
type githubCommitResponse struct {
	Sha    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
	} `json:"commit"`
	Files []struct {
		Filename         string `json:"filename"`
		PreviousFilename string `json:"previous_filename"`
		Status           string `json:"status"`
		Patch            string `json:"patch"`
	} `json:"files"`
}

type githubRepoResponse struct {
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Owner    struct {
		Login string `json:"login"`
	} `json:"owner"`
	Description   string `json:"description"`
	DefaultBranch string `json:"default_branch"`
	Private       bool   `json:"private"`
}

// FetchDiff retrieves one commit with per-file patches and parses it into a
// DiffDocument.
func (c *Client) FetchDiff(ctx context.Context, owner, repo, commitSha string) (*domain.DiffDocument, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/commits/%s", c.baseURL, owner, repo, commitSha)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var commit githubCommitResponse
	if err := json.Unmarshal(body, &commit); err != nil {
		return nil, fmt.Errorf("parsing commit response: %w", ErrUpstreamUnavailable)
	}

	doc := &domain.DiffDocument{
		Owner:     owner,
		RepoName:  repo,
		CommitSha: commitSha,
		Message:   commit.Commit.Message,
	}

	for _, f := range commit.Files {
		if f.Patch == "" {
			// Binary or oversized files come back without a patch
			continue
		}
		fd := ParsePatch(f.Filename, f.Patch)
		fd.IsNew = f.Status == "added"
		fd.IsDeleted = f.Status == "removed"
		if f.Status == "renamed" {
			fd.IsRenamed = true
			fd.OldPath = f.PreviousFilename
		}
		doc.Files = append(doc.Files, fd)
	}

	return doc, nil
}

// ListRepositories returns the repositories visible to the configured token
func (c *Client) ListRepositories(ctx context.Context) ([]domain.Repository, error) {
	url := fmt.Sprintf("%s/user/repos?per_page=100&sort=updated", c.baseURL)
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var raw []githubRepoResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing repositories response: %w", ErrUpstreamUnavailable)
	}

	repos := make([]domain.Repository, 0, len(raw))
	for _, r := range raw {
		repos = append(repos, domain.Repository{
			Name:          r.Name,
			FullName:      r.FullName,
			Owner:         r.Owner.Login,
			Description:   r.Description,
			DefaultBranch: r.DefaultBranch,
			Private:       r.Private,
		})
	}
	return repos, nil
}

// get makes an authenticated request and maps failure statuses onto the
// Fetcher sentinel errors.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "commitcast")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, ErrNotFound
	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusTooManyRequests:
		// 403 with a zeroed ratelimit header is GitHub's throttle response
		if resp.StatusCode == http.StatusTooManyRequests || resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return nil, ErrUpstreamRateLimited
		}
		return nil, ErrUnauthorized
	default:
		body, _ := io.ReadAll(resp.Body)
		logging.Warnf("github: unexpected status %d from %s: %s", resp.StatusCode, url, truncate(string(body), 200))
		return nil, ErrUpstreamUnavailable
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUpstreamUnavailable, err)
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
