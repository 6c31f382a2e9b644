// Package validate schema-checks generation request payloads. Validation is
// a pure function over the payload: every failing field is collected and
// reported in a single taxonomy error so callers can fix all of them at once.
package validate

import (
	"regexp"

	"github.com/juparave/commitcast/internal/apperr"
	"github.com/juparave/commitcast/internal/domain"
)

var (
	// GitHub login rules: alphanumeric with interior single hyphens
	ownerPattern = regexp.MustCompile(`^[a-zA-Z0-9](?:-?[a-zA-Z0-9]){0,38}$`)
	repoPattern  = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,100}$`)
	shaPattern   = regexp.MustCompile(`^[0-9a-f]{40}$`)
)

// GenerateRequest checks all fields of the payload and returns it unchanged
// when valid. On failure it returns a ValidationError whose details list
// every rejected field.
func GenerateRequest(req domain.GenerateRequest) (domain.GenerateRequest, error) {
	var fields []apperr.FieldError

	if req.Owner == "" {
		fields = append(fields, apperr.FieldError{
			Field:   "owner",
			Rule:    "required",
			Message: "owner must not be empty",
		})
	} else if !ownerPattern.MatchString(req.Owner) {
		fields = append(fields, apperr.FieldError{
			Field:   "owner",
			Rule:    "format",
			Message: "owner must be a valid source-host account name",
		})
	}

	if req.RepoName == "" {
		fields = append(fields, apperr.FieldError{
			Field:   "repoName",
			Rule:    "required",
			Message: "repoName must not be empty",
		})
	} else if !repoPattern.MatchString(req.RepoName) {
		fields = append(fields, apperr.FieldError{
			Field:   "repoName",
			Rule:    "format",
			Message: "repoName must be a valid repository name",
		})
	}

	if !shaPattern.MatchString(req.CommitSha) {
		fields = append(fields, apperr.FieldError{
			Field:   "commitSha",
			Rule:    "format",
			Message: "commitSha must be 40 lowercase hex characters",
		})
	}

	if len(fields) > 0 {
		return domain.GenerateRequest{}, apperr.Validation(fields)
	}
	return req, nil
}
