// Package judge classifies one claim against its evidence into a closed verdict.
package judge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ppiankov/skilldiff/internal/llm"
	"github.com/ppiankov/skilldiff/internal/model"
)

const systemPrompt = `You are checking resume claims against web search results.

Decide exactly one verdict:
- "Verified": the search answer offers ANY plausible support for the claim. Prefer this whenever support is plausible, even if partial or indirect.
- "Unsure": the search answer says nothing relevant to the claim. It neither supports nor contradicts it.
- "Bullshit": the search answer actively contradicts the claim.

Respond with JSON only.`

var verdictSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "verdict": {"type": "string", "enum": ["Verified", "Unsure", "Bullshit"]}
  },
  "required": ["verdict"],
  "additionalProperties": false
}`)

type judgeOutput struct {
	Verdict string `json:"verdict"`
}

// Judge classifies claims using an LLM constrained to the verdict enum
type Judge struct {
	provider llm.Provider
	model    string
}

// NewJudge creates a judge. modelName may be empty to use the provider default.
func NewJudge(provider llm.Provider, modelName string) *Judge {
	return &Judge{provider: provider, model: modelName}
}

// Judge returns the verdict for claim given its evidence.
// Out-of-enum output is a *model.JudgmentError, never coerced.
func (j *Judge) Judge(ctx context.Context, claim model.Claim, evidence *model.Evidence) (model.Verdict, error) {
	req := llm.CompletionRequest{
		System:    systemPrompt,
		Prompt:    BuildPrompt(claim, evidence),
		Model:     j.model,
		MaxTokens: 50,
		Schema:    &llm.Schema{Name: "claim_verdict", Schema: verdictSchema},
	}

	var out judgeOutput
	if _, err := llm.CompleteJSON(ctx, j.provider, req, &out); err != nil {
		return "", &model.JudgmentError{Claim: claim.Text, Err: err}
	}

	verdict, err := model.ParseVerdict(out.Verdict)
	if err != nil {
		return "", &model.JudgmentError{Claim: claim.Text, Err: err}
	}
	return verdict, nil
}

// BuildPrompt renders the judge input: claim text and synthesized answer only.
// Source URLs and scores stay out of the prompt.
func BuildPrompt(claim model.Claim, evidence *model.Evidence) string {
	answer := "(the search returned no answer)"
	if evidence.HasAnswer() {
		answer = evidence.SyntheticAnswer
	}
	return fmt.Sprintf("Claim:\n%s\n\nSearch answer:\n%s", claim.Text, answer)
}
