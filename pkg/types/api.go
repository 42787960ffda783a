package types

// LoadRequest is the body of POST /model/load.
type LoadRequest struct {
	// Model ID from GET /models or a path to a GGUF file.
	// example: tinyllama.Q4_K_M.gguf
	Model string `json:"model" example:"tinyllama.Q4_K_M.gguf"`
	// Context window in tokens; 0 uses the server default.
	// example: 2048
	ContextSize int `json:"context_size,omitempty" example:"2048"`
	// Inference threads; 0 uses the server default.
	// example: 4
	Threads int `json:"threads,omitempty" example:"4"`
}

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	// Required prompt text to generate a completion for.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt" example:"Write a haiku about the ocean."`
	// If true, stream results as NDJSON tokens.
	// example: true
	Stream bool `json:"stream,omitempty" example:"true"`
	// Maximum number of new tokens to generate.
	// example: 100
	MaxTokens int `json:"max_tokens,omitempty" example:"100"`
	// Sampling temperature (higher = more random).
	// example: 0.8
	Temperature float64 `json:"temperature,omitempty" example:"0.8"`
	// Nucleus sampling probability.
	// example: 0.95
	TopP float64 `json:"top_p,omitempty" example:"0.95"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	// User message.
	// example: How are you?
	Input string `json:"input" example:"How are you?"`
	// Optional system prompt rendered before the history.
	// example: You are a helpful assistant.
	System string `json:"system,omitempty" example:"You are a helpful assistant."`
	// If true, stream results as NDJSON tokens.
	Stream bool `json:"stream,omitempty"`
}

// TextResponse carries generated text.
type TextResponse struct {
	// example: The ocean hums softly.
	Text string `json:"text" example:"The ocean hums softly."`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// List of available models.
	Models []Model `json:"models"`
}

// ModelStatus is returned by GET /model/status and the load/unload endpoints.
type ModelStatus struct {
	// Whether a model is loaded.
	// example: true
	Loaded bool `json:"loaded" example:"true"`
	// Session state: unloaded, loading or loaded.
	// example: loaded
	State string `json:"state" example:"loaded"`
	// Path of the loaded model.
	Path string `json:"path,omitempty"`
	// Model description, or "No model loaded".
	Info string `json:"info"`
	// Most recent session error. It is not cleared by later successes.
	LastError string `json:"last_error,omitempty"`
	// Number of turns in the chat history.
	// example: 4
	HistoryTurns int `json:"history_turns" example:"4"`
	// Whether the binary was built with llama support.
	LlamaBuilt bool `json:"llama_built"`
}

// ChatTurn is one entry of the chat history.
type ChatTurn struct {
	// example: User
	Role string `json:"role" example:"User"`
	// example: Hi
	Text string `json:"text" example:"Hi"`
}

// HistoryResponse is returned by GET /chat/history.
type HistoryResponse struct {
	Turns []ChatTurn `json:"turns"`
}

// ResourceResponse is returned by GET /resources/{name}.
type ResourceResponse struct {
	// example: hello.txt
	Name string `json:"name" example:"hello.txt"`
	// Completion style used for the read: sync, callback or promise.
	// example: promise
	Mode string `json:"mode" example:"promise"`
	// example: Hello, world!
	Text string `json:"text" example:"Hello, world!"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}
