package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	oai "github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/openai/openai-go/option"
)

// LLMClient abstracts the language-model call so the generator can be
// exercised without network access.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Settings configures the generation provider
type Settings struct {
	Model   string
	APIKey  string
	BaseURL string
}

// GenkitLLM calls an OpenAI-compatible provider through Genkit
type GenkitLLM struct {
	genkit  *genkit.Genkit
	modelID string
}

// NewGenkitLLM initializes the Genkit runtime with the OpenAI-compatible
// plugin. The API key must already be verified by the caller; this
// constructor does not reach the network.
func NewGenkitLLM(ctx context.Context, cfg Settings) (*GenkitLLM, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("generation provider API key is required")
	}

	var opts []option.RequestOption
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	plugin := &oai.OpenAI{
		APIKey: cfg.APIKey,
		Opts:   opts,
	}

	modelID := cfg.Model
	if modelID == "" {
		modelID = "gpt-4o-mini"
	}
	// Prefix with openai/ for Genkit
	if !strings.Contains(modelID, "/") {
		modelID = "openai/" + modelID
	}

	g := genkit.Init(ctx,
		genkit.WithDefaultModel(modelID),
		genkit.WithPlugins(plugin),
	)

	return &GenkitLLM{genkit: g, modelID: modelID}, nil
}

// Complete sends the prompt and returns the raw model text
func (l *GenkitLLM) Complete(ctx context.Context, prompt string) (string, error) {
	return genkit.GenerateText(ctx, l.genkit,
		ai.WithModelName(l.modelID),
		ai.WithPrompt(prompt),
	)
}
