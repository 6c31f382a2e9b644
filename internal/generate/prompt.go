package generate

import (
	"fmt"
	"strings"

	"github.com/juparave/commitcast/internal/domain"
)

func buildPrompt(diff *domain.DiffDocument, context string) string {
	var sb strings.Builder

	sb.WriteString(systemPrompt)
	sb.WriteString("\n\n")

	if context != "" {
		sb.WriteString("## Context\n\n")
		sb.WriteString(context)
		sb.WriteString("\n\n")
	}

	sb.WriteString(fmt.Sprintf("## Commit %s/%s@%s\n\n", diff.Owner, diff.RepoName, shortSha(diff.CommitSha)))
	if diff.Message != "" {
		sb.WriteString(fmt.Sprintf("Commit message: %s\n\n", diff.Message))
	}

	for _, f := range diff.Files {
		sb.WriteString(fmt.Sprintf("### File: %s\n", f.FilePath))
		sb.WriteString("```diff\n")
		for _, line := range f.Lines {
			switch line.Type {
			case domain.LineAdded:
				sb.WriteString("+")
			case domain.LineDeleted:
				sb.WriteString("-")
			default:
				sb.WriteString(" ")
			}
			sb.WriteString(line.Content)
			sb.WriteString("\n")
		}
		if f.Truncated {
			sb.WriteString("... [truncated]\n")
		}
		sb.WriteString("```\n\n")
	}

	sb.WriteString(outputInstructions)

	return sb.String()
}

func shortSha(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

const systemPrompt = `You are a developer-advocate content writer. A developer just shipped the code change below and wants to share it with their audience. Your job is to turn the diff into compelling, accurate marketing content.

## Your Writing Principles

1. **Accuracy first** – Only describe what the diff actually does. Never invent features.
2. **Audience-aware** – Each variant targets a different channel with its own voice.
3. **Show the why** – Lead with the problem the change solves, not the mechanics.
4. **No hype inflation** – Enthusiastic but honest; skip buzzwords that the code can't back up.`

const outputInstructions = `
## Required Output Format

Produce exactly three content variants:

1. type "twitter" – a casual short-form post, under 280 characters, energetic tone
2. type "linkedin" – a professional long-form post for a developer audience
3. type "blog" – an educational blog-post outline with section headings

Respond with a JSON array in this exact shape:

[
  {"id": "1", "type": "twitter", "tone": "casual", "content": "..."},
  {"id": "2", "type": "linkedin", "tone": "professional", "content": "..."},
  {"id": "3", "type": "blog", "tone": "educational", "content": "..."}
]

Respond ONLY with the JSON array. No markdown fencing, no additional text.`
