package port

// LLM represents a language model for text generation.
type LLM interface {
	// Generate generates text based on the prompt.
	Generate(prompt string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}

// RelevanceJudge decides whether a document can help answer a query.
type RelevanceJudge interface {
	Judge(query string, content []byte) (bool, error)
}
