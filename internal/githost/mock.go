package githost

import (
	"context"
	"sync/atomic"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/juparave/commitcast/internal/domain"
)

// MockFetcher serves a synthesized diff without touching the network. Used
// for local development (--mock-backends) and in tests; the call counter
// lets tests assert that short-circuited pipelines never reached the host.
type MockFetcher struct {
	calls atomic.Int64

	// Err, when set, is returned from every call instead of data
	Err error
}

// NewMockFetcher creates a fetcher serving canned data
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{}
}

// Calls reports how many fetch or list operations were attempted
func (m *MockFetcher) Calls() int {
	return int(m.calls.Load())
}

const (
	mockFileBefore = `package greet

import "fmt"

func Greet(name string) string {
	return fmt.Sprintf("hello %s", name)
}
`
	mockFileAfter = `package greet

import (
	"fmt"
	"strings"
)

func Greet(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "world"
	}
	return fmt.Sprintf("hello %s", name)
}
`
)

// FetchDiff synthesizes a unified diff for the requested commit and runs it
// through the same parser the real client uses.
func (m *MockFetcher) FetchDiff(_ context.Context, owner, repo, commitSha string) (*domain.DiffDocument, error) {
	m.calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}

	patch, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:       difflib.SplitLines(mockFileBefore),
		B:       difflib.SplitLines(mockFileAfter),
		Context: 3,
	})
	if err != nil {
		return nil, ErrUpstreamUnavailable
	}

	return &domain.DiffDocument{
		Owner:     owner,
		RepoName:  repo,
		CommitSha: commitSha,
		Message:   "greet: handle blank names",
		Files:     []domain.FileDiff{ParsePatch("greet/greet.go", patch)},
	}, nil
}

// ListRepositories returns a fixed listing
func (m *MockFetcher) ListRepositories(_ context.Context) ([]domain.Repository, error) {
	m.calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	return []domain.Repository{
		{Name: "demo", FullName: "acme/demo", Owner: "acme", DefaultBranch: "main"},
		{Name: "greet", FullName: "acme/greet", Owner: "acme", DefaultBranch: "main", Private: true},
	}, nil
}
