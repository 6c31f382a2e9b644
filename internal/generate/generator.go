// Package generate builds the generation prompt, invokes the language
// model and parses its structured output into content drafts.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/juparave/commitcast/internal/apperr"
	"github.com/juparave/commitcast/internal/domain"
	"github.com/juparave/commitcast/internal/logging"
)

const (
	defaultMaxRetries = 2
	initialBackoff    = 500 * time.Millisecond
)

// Generator produces the three content drafts for a commit diff
type Generator struct {
	llm        LLMClient
	maxRetries int
	backoff    time.Duration
}

// NewGenerator creates a generator over the given model client.
// maxRetries bounds the extra attempts made on transient upstream failures;
// negative values fall back to the default.
func NewGenerator(llm LLMClient, maxRetries int) *Generator {
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	return &Generator{llm: llm, maxRetries: maxRetries, backoff: initialBackoff}
}

// Generate returns exactly one draft per declared type, in declaration
// order. Output is not deterministic across calls; callers must not assume
// idempotence. Every failure surfaces as an ExternalAPIError.
func (g *Generator) Generate(ctx context.Context, diff *domain.DiffDocument, commitContext string) ([]domain.ContentDraft, error) {
	prompt := buildPrompt(diff, commitContext)

	raw, err := g.complete(ctx, prompt)
	if err != nil {
		return nil, apperr.External("generation-provider", "generateContent", err)
	}

	drafts, err := parseDrafts(raw)
	if err != nil {
		logging.Errorf("generation response rejected: %v", err)
		return nil, apperr.External("generation-provider", "generateContent", err)
	}
	return drafts, nil
}

// complete calls the model, retrying transient failures with exponential
// backoff. Permanent failures (rejected prompt, exhausted quota) fail fast.
func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	backoff := g.backoff
	var lastErr error

	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			logging.Warnf("generation attempt %d/%d failed, retrying in %s: %v",
				attempt, g.maxRetries, backoff, lastErr)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			backoff *= 2
		}

		raw, err := g.llm.Complete(ctx, prompt)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if ctx.Err() != nil || !isTransient(err) {
			return "", err
		}
	}

	return "", lastErr
}

// isTransient reports whether an upstream failure is worth retrying
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"timeout", "temporarily", "unavailable", "connection re", "502", "503", "504"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// draftPayload mirrors the JSON shape the model is instructed to return
type draftPayload struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Tone    string `json:"tone"`
	Content string `json:"content"`
}

// parseDrafts validates the raw model output: a JSON array with exactly one
// draft per declared type, each with non-empty content. Code fences are
// stripped defensively since models add them despite instructions.
func parseDrafts(raw string) ([]domain.ContentDraft, error) {
	text := stripFences(raw)

	var payload []draftPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("response is not a JSON array: %w", err)
	}

	if len(payload) != len(domain.DraftTypes) {
		return nil, fmt.Errorf("expected %d drafts, got %d", len(domain.DraftTypes), len(payload))
	}

	byType := make(map[domain.DraftType]draftPayload, len(payload))
	seenIDs := make(map[string]bool, len(payload))
	for _, p := range payload {
		t := domain.DraftType(p.Type)
		if !domain.IsKnownDraftType(t) {
			return nil, fmt.Errorf("unknown draft type %q", p.Type)
		}
		if _, dup := byType[t]; dup {
			return nil, fmt.Errorf("duplicate draft type %q", p.Type)
		}
		if strings.TrimSpace(p.Content) == "" {
			return nil, fmt.Errorf("draft %q has empty content", p.Type)
		}
		byType[t] = p
	}

	drafts := make([]domain.ContentDraft, 0, len(domain.DraftTypes))
	for _, t := range domain.DraftTypes {
		p := byType[t]
		id := p.ID
		if id == "" || seenIDs[id] {
			id = uuid.NewString()
		}
		seenIDs[id] = true
		drafts = append(drafts, domain.ContentDraft{
			ID:      id,
			Type:    t,
			Tone:    p.Tone,
			Content: p.Content,
		})
	}
	return drafts, nil
}

// stripFences removes surrounding markdown code fences from model output
func stripFences(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx != -1 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx != -1 {
			text = text[:idx]
		}
	}

	return strings.TrimSpace(text)
}
