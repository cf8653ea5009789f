// Package generate turns resume text into an ordered list of claim/query pairs.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/skilldiff/internal/llm"
	"github.com/ppiankov/skilldiff/internal/logging"
	"github.com/ppiankov/skilldiff/internal/model"
)

const systemPrompt = `You extract verifiable claims from resumes so they can be checked against the public web.`

const instructions = `Given the following resume, generate an ordered list of high-signal claims, most important first.
For each claim produce:
- "claim": a question in the form "Did {Full name} from {school} do {claim}?"
- "query": a short keyword search query (names, project titles, organizations, years) that would find evidence for the claim on the web. Do not phrase it as a question.
Only include claims that could plausibly be confirmed or contradicted by public sources (awards, publications, hackathons, open source work, companies founded, notable roles).
Also return the candidate's full name and their most recent school or company.`

var outputSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "fullName": {"type": "string"},
    "school": {"type": "string"},
    "claims": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "claim": {"type": "string"},
          "query": {"type": "string"}
        },
        "required": ["claim", "query"],
        "additionalProperties": false
      }
    }
  },
  "required": ["fullName", "school", "claims"],
  "additionalProperties": false
}`)

type generatorOutput struct {
	FullName string `json:"fullName"`
	School   string `json:"school"`
	Claims   []struct {
		Claim string `json:"claim"`
		Query string `json:"query"`
	} `json:"claims"`
}

// Generator produces claims from resume text using an LLM
type Generator struct {
	provider llm.Provider
	model    string
}

// NewGenerator creates a generator. modelName may be empty to use the provider default.
func NewGenerator(provider llm.Provider, modelName string) *Generator {
	return &Generator{provider: provider, model: modelName}
}

// Generate returns the claims for a resume in generation order.
// Claims missing their text or query are dropped before any cap is applied,
// so the survivors keep their relative order. Failures are returned as *model.GenerationError.
func (g *Generator) Generate(ctx context.Context, resumeText string) (*model.Generation, error) {
	if strings.TrimSpace(resumeText) == "" {
		return nil, &model.GenerationError{Err: errors.New("resume text is empty")}
	}

	req := llm.CompletionRequest{
		System: systemPrompt,
		Prompt: fmt.Sprintf("%s\n\nResume:\n%s", instructions, resumeText),
		Model:  g.model,
		Schema: &llm.Schema{Name: "resume_claims", Schema: outputSchema},
	}

	var out generatorOutput
	resp, err := llm.CompleteJSON(ctx, g.provider, req, &out)
	if err != nil {
		return nil, &model.GenerationError{Err: err}
	}

	gen := &model.Generation{
		FullName: strings.TrimSpace(out.FullName),
		School:   strings.TrimSpace(out.School),
		Claims:   make([]model.Claim, 0, len(out.Claims)),
	}
	for i, c := range out.Claims {
		claim := model.Claim{
			Text:        strings.TrimSpace(c.Claim),
			SearchQuery: strings.TrimSpace(c.Query),
		}
		if claim.Text == "" || claim.SearchQuery == "" {
			logging.From(ctx).Warn("dropping incomplete claim", "index", i, "claim", claim.Text, "query", claim.SearchQuery)
			continue
		}
		gen.Claims = append(gen.Claims, claim)
	}

	logging.From(ctx).Debug("generated claims",
		"count", len(gen.Claims),
		"model", resp.Model,
		"tokens", resp.TokensUsed)

	return gen, nil
}
