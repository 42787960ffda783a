package session

import "context"

// Engine loads models. Implementations: the go-llama.cpp engine (build tag
// 'llama') and a stub that reports ErrDependencyUnavailable.
type Engine interface {
	Load(path string, opts LoadOptions) (Handle, error)
}

// Handle is one loaded model. The session is its only owner and never calls
// Generate concurrently.
type Handle interface {
	// Generate runs a completion for prompt. Implementations stop early when
	// ctx is done or opts.OnToken returns an error.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)
	Describe() HandleInfo
	Close() error
}

// LoadOptions are passed to Engine.Load. Zero fields take defaults.
type LoadOptions struct {
	ContextSize int
	Threads     int
}

// GenerateOptions control one generation. Zero fields take defaults.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float32
	TopP        float32
	// OnToken, if set, receives each token as it is produced.
	OnToken func(string) error
}

// HandleInfo describes a loaded model.
type HandleInfo struct {
	Path        string
	ContextSize int
	Threads     int
	// VocabSize is zero when the engine does not report it.
	VocabSize int
}

const (
	DefaultContextSize = 2048
	DefaultThreads     = 4

	DefaultMaxTokens   = 100
	DefaultTemperature = float32(0.8)
	DefaultTopP        = float32(0.95)

	ChatMaxTokens   = 150
	ChatTemperature = float32(0.8)
	ChatTopP        = float32(0.95)

	DefaultHistoryWindow = 20
)

func (o LoadOptions) withDefaults() LoadOptions {
	o.ContextSize = zn(o.ContextSize, DefaultContextSize)
	o.Threads = zn(o.Threads, DefaultThreads)
	return o
}

func (o GenerateOptions) withDefaults() GenerateOptions {
	o.MaxTokens = zn(o.MaxTokens, DefaultMaxTokens)
	o.Temperature = zf(o.Temperature, DefaultTemperature)
	o.TopP = zf(o.TopP, DefaultTopP)
	return o
}

func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func zf(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}
