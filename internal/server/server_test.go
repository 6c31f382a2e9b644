package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juparave/commitcast/internal/auth"
	"github.com/juparave/commitcast/internal/domain"
	"github.com/juparave/commitcast/internal/generate"
	"github.com/juparave/commitcast/internal/githost"
	"github.com/juparave/commitcast/internal/ratelimit"
)

const testToken = "secret-token"

type fixture struct {
	server  *Server
	store   *ratelimit.MemoryStore
	fetcher *githost.MockFetcher
	llm     *generate.MockLLM
}

func newFixture(opts Options) *fixture {
	f := &fixture{
		store:   ratelimit.NewMemoryStore(ratelimit.Config{Limit: 10, Window: time.Minute, MaxTrackedKeys: 100}),
		fetcher: githost.NewMockFetcher(),
		llm:     &generate.MockLLM{},
	}

	if opts.Authenticator == nil {
		opts.Authenticator = auth.NewStaticTokenAuthenticator(map[string]string{testToken: "alice"})
	}
	if opts.RateLimit == nil {
		opts.RateLimit = f.store
	}
	if opts.Fetcher == nil {
		opts.Fetcher = f.fetcher
	}

	f.server = New(opts)
	return f
}

func defaultFixture() *fixture {
	f := newFixture(Options{})
	f.server.pipeline.generator = generate.NewGenerator(f.llm, 0)
	return f
}

func validBody() []byte {
	b, _ := json.Marshal(domain.GenerateRequest{
		Owner:     "acme",
		RepoName:  "demo",
		CommitSha: strings.Repeat("a", 40),
	})
	return b
}

func doGenerate(f *fixture, body []byte, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/generate", bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.server.Routes().ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGenerateSuccess(t *testing.T) {
	f := defaultFixture()

	rec := doGenerate(f, validBody(), testToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Drafts, 3)
	for _, d := range resp.Drafts {
		assert.NotEmpty(t, d.Content)
		assert.True(t, domain.IsKnownDraftType(d.Type))
	}

	assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
}

func TestGenerateWithoutCredential(t *testing.T) {
	f := defaultFixture()

	rec := doGenerate(f, validBody(), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	body := errorBody(t, rec)
	assert.Equal(t, "AUTHENTICATION_ERROR", body["code"])
	assert.Equal(t, "authentication required", body["error"])

	// the denial happens before any bucket mutation or upstream call
	_, tracked := f.store.Peek("alice")
	assert.False(t, tracked)
	assert.Zero(t, f.fetcher.Calls())
}

func TestGenerateWithWrongCredential(t *testing.T) {
	f := defaultFixture()
	rec := doGenerate(f, validBody(), "not-the-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTHENTICATION_ERROR", errorBody(t, rec)["code"])
}

func TestGenerateWithoutProviderKey(t *testing.T) {
	f := newFixture(Options{}) // generator stays nil

	rec := doGenerate(f, validBody(), testToken)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "CONFIGURATION_ERROR", errorBody(t, rec)["code"])

	// config is checked before any network call
	assert.Zero(t, f.fetcher.Calls())
}

func TestGenerateValidationFailure(t *testing.T) {
	f := defaultFixture()

	body, _ := json.Marshal(domain.GenerateRequest{Owner: "acme", RepoName: "demo", CommitSha: "short"})
	rec := doGenerate(f, body, testToken)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := errorBody(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp["code"])
	details, _ := json.Marshal(resp["details"])
	assert.Contains(t, string(details), "commitSha")
	assert.Zero(t, f.fetcher.Calls())
}

func TestGenerateMalformedBody(t *testing.T) {
	f := defaultFixture()
	rec := doGenerate(f, []byte("{not json"), testToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorBody(t, rec)["code"])
}

func TestGenerateRateLimited(t *testing.T) {
	f := newFixture(Options{
		RateLimit: ratelimit.NewMemoryStore(ratelimit.Config{Limit: 1, Window: time.Minute}),
	})
	f.server.pipeline.generator = generate.NewGenerator(f.llm, 0)

	require.Equal(t, http.StatusOK, doGenerate(f, validBody(), testToken).Code)

	rec := doGenerate(f, validBody(), testToken)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errorBody(t, rec)["code"])
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	// the denied request never reached the backends
	assert.Equal(t, 1, f.fetcher.Calls())
}

func TestGenerateCommitNotFound(t *testing.T) {
	f := defaultFixture()
	f.fetcher.Err = githost.ErrNotFound

	rec := doGenerate(f, validBody(), testToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorBody(t, rec)["code"])
}

func TestGenerateUpstreamFailureIsGeneric(t *testing.T) {
	f := defaultFixture()
	f.fetcher.Err = githost.ErrUpstreamUnavailable

	rec := doGenerate(f, validBody(), testToken)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	body := errorBody(t, rec)
	assert.Equal(t, "EXTERNAL_API_ERROR", body["code"])
	assert.NotContains(t, body, "cause", "production responses carry no upstream detail")
}

func TestGenerateBadModelOutput(t *testing.T) {
	f := defaultFixture()
	f.llm.Response = "I am sorry, here is some prose instead of JSON"

	rec := doGenerate(f, validBody(), testToken)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "EXTERNAL_API_ERROR", errorBody(t, rec)["code"])
}

func TestDevelopmentModeIncludesCause(t *testing.T) {
	f := newFixture(Options{Development: true})
	f.server.pipeline.generator = generate.NewGenerator(f.llm, 0)
	f.fetcher.Err = githost.ErrUpstreamUnavailable

	rec := doGenerate(f, validBody(), testToken)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, errorBody(t, rec), "cause")
}

func TestRepositories(t *testing.T) {
	f := defaultFixture()

	req := httptest.NewRequest(http.MethodGet, "/repositories", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()
	f.server.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var repos []domain.Repository
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &repos))
	assert.NotEmpty(t, repos)
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))
}

func TestRepositoriesRequiresAuth(t *testing.T) {
	f := defaultFixture()

	req := httptest.NewRequest(http.MethodGet, "/repositories", nil)
	rec := httptest.NewRecorder()
	f.server.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealth(t *testing.T) {
	f := defaultFixture()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	f.server.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
