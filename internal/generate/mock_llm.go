package generate

import (
	"context"
	"encoding/json"
)

// MockLLM returns a canned three-draft response without calling any model.
// Useful for local development and pipeline tests.
type MockLLM struct {
	// Response overrides the canned output when non-empty
	Response string
	// Err, when set, is returned from every call
	Err error
}

func (m *MockLLM) Complete(_ context.Context, _ string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if m.Response != "" {
		return m.Response, nil
	}
	out, _ := json.Marshal([]draftPayload{
		{ID: "1", Type: "twitter", Tone: "casual", Content: "We just shipped a fix that makes greetings friendlier. Small diff, big smile."},
		{ID: "2", Type: "linkedin", Tone: "professional", Content: "Today we improved input handling in our greeting service. Blank names now fall back to a sensible default, removing a whole class of confusing output."},
		{ID: "3", Type: "blog", Tone: "educational", Content: "# Handling blank input gracefully\n\n## The problem\n\n## The fix\n\n## Lessons learned"},
	})
	return string(out), nil
}
