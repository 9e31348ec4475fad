package judge

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"doclookup/internal/port"
)

const promptTemplate = "system role: Given the user question: %s, is the following text relevant and can be useful to " +
	"answer to the question?\n\n%s\n\nAnswer 'yes' or 'no'."

// LLMJudge asks a text-generation model whether a document is relevant.
// The model's answer is free text; only a bare "yes" counts as relevant.
type LLMJudge struct {
	llm     port.LLM
	limiter *rate.Limiter
}

// NewLLMJudge creates a judge. requestsPerSecond paces calls to the model;
// zero or less means no pacing.
func NewLLMJudge(llm port.LLM, requestsPerSecond float64) *LLMJudge {
	j := &LLMJudge{llm: llm}
	if requestsPerSecond > 0 {
		j.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return j
}

func (j *LLMJudge) Judge(query string, content []byte) (bool, error) {
	if j.limiter != nil {
		if err := j.limiter.Wait(context.Background()); err != nil {
			return false, fmt.Errorf("judge rate limit: %w", err)
		}
	}

	resp, err := j.llm.Generate(BuildPrompt(query, content))
	if err != nil {
		return false, fmt.Errorf("judge %s: %w", j.llm.ModelName(), err)
	}
	return ParseVerdict(resp), nil
}

// BuildPrompt renders the relevance question for one document.
func BuildPrompt(query string, content []byte) string {
	return fmt.Sprintf(promptTemplate, query, content)
}

// ParseVerdict reports whether resp, trimmed and lowercased, is exactly "yes".
func ParseVerdict(resp string) bool {
	return strings.ToLower(strings.TrimSpace(resp)) == "yes"
}

// AcceptAll is a judge that accepts every document. It lets the pipeline
// run without a generative model.
type AcceptAll struct{}

func (AcceptAll) Judge(string, []byte) (bool, error) {
	return true, nil
}
