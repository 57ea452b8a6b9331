package types

// CompletionRequest is the body accepted by POST /completions.
type CompletionRequest struct {
	// Optional model identifier. If empty, the server default is used.
	// example: yiyanghkust/finbert-tone
	Model string `json:"model,omitempty" example:"yiyanghkust/finbert-tone"`
	// Prompt text handed to the model's inference function.
	// example: Growth is strong and we have plenty of liquidity.
	Prompt string `json:"prompt" example:"Growth is strong and we have plenty of liquidity."`
	// Maximum number of new tokens. Only local GGUF models honor it.
	// example: 128
	MaxTokens int `json:"max_tokens,omitempty" example:"128"`
	// Sampling temperature. Only local GGUF models honor it.
	// example: 0.7
	Temperature float64 `json:"temperature,omitempty" example:"0.7"`
	// Nucleus sampling cutoff. Only local GGUF models honor it.
	// example: 0.9
	TopP float64 `json:"top_p,omitempty" example:"0.9"`
	// Top-k sampling cutoff. Only local GGUF models honor it.
	// example: 40
	TopK int `json:"top_k,omitempty" example:"40"`
	// Sampling seed; 0 leaves it to the backend. Only local GGUF models honor it.
	Seed int `json:"seed,omitempty"`
	// Stop sequences. Only local GGUF models honor them.
	Stop []string `json:"stop,omitempty"`
	// Accepted for client compatibility; responses are never streamed.
	Stream bool `json:"stream,omitempty"`
}

// Choice is one completion alternative.
type Choice struct {
	// Stringified inference result.
	// example: [{'label': 'Positive', 'score': 0.9999}]
	Text string `json:"text" example:"[{'label': 'Positive', 'score': 0.9999}]"`
}

// CompletionResponse is returned by POST /completions. Exactly one of Choices
// or Error is set.
type CompletionResponse struct {
	Choices []Choice `json:"choices,omitempty"`
	// example: Could not find model gpt-5.
	Error string `json:"error,omitempty" example:"Could not find model gpt-5."`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// Registered models.
	Models []Model `json:"models"`
	// Model used when a request omits one.
	// example: yiyanghkust/finbert-tone
	Default string `json:"default,omitempty" example:"yiyanghkust/finbert-tone"`
}

// ErrorResponse is a consistent JSON error payload for non-200 replies.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
