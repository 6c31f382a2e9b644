// Package auth is the boundary to the identity collaborator. The pipeline
// only needs to turn a bearer credential into a principal; where those
// credentials actually live (static config, an upstream identity provider)
// is an Authenticator implementation detail.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Principal identifies an authenticated caller. The ID doubles as the
// rate-limit key for the request.
type Principal struct {
	ID string
}

// Authenticator resolves a request credential into a Principal.
type Authenticator interface {
	// Name returns a human-readable name for logging.
	Name() string

	// Authenticate returns the principal for the request's credential, or
	// ok=false when the credential is missing or invalid. Implementations
	// must not distinguish the two cases in anything visible to the caller.
	Authenticate(r *http.Request) (Principal, bool)
}

// BearerToken extracts the bearer credential from an Authorization header,
// or "" when absent.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// StaticTokenAuthenticator validates bearer tokens against a configured
// allow list. This is the fallback authenticator for deployments without an
// external identity provider.
type StaticTokenAuthenticator struct {
	tokens map[string]string // token -> principal ID
}

// NewStaticTokenAuthenticator builds an authenticator from a map of
// token -> principal ID.
func NewStaticTokenAuthenticator(tokens map[string]string) *StaticTokenAuthenticator {
	cp := make(map[string]string, len(tokens))
	for tok, id := range tokens {
		cp[tok] = id
	}
	return &StaticTokenAuthenticator{tokens: cp}
}

func (a *StaticTokenAuthenticator) Name() string { return "static-tokens" }

// Authenticate compares the presented token against the allow list in
// constant time per entry.
func (a *StaticTokenAuthenticator) Authenticate(r *http.Request) (Principal, bool) {
	presented := BearerToken(r)
	if presented == "" {
		return Principal{}, false
	}
	for tok, id := range a.tokens {
		if subtle.ConstantTimeCompare([]byte(tok), []byte(presented)) == 1 {
			return Principal{ID: id}, true
		}
	}
	return Principal{}, false
}
