//go:build llama

package session

import (
	"context"
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
	"github.com/rs/zerolog"
)

// llamaBuilt indicates this binary was compiled with real llama support.
const llamaBuilt = true

type llamaEngine struct{ log zerolog.Logger }

// NewLlamaEngine returns the in-process go-llama.cpp engine.
func NewLlamaEngine(log zerolog.Logger) Engine { return llamaEngine{log: log} }

func (e llamaEngine) Load(path string, opts LoadOptions) (Handle, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("model path is empty")
	}
	opts = opts.withDefaults()
	m, err := llama.New(path, llama.SetContext(opts.ContextSize))
	if err != nil {
		return nil, err
	}
	e.log.Debug().Str("path", path).Int("ctx", opts.ContextSize).Int("threads", opts.Threads).Msg("llama model ready")
	return &llamaHandle{model: m, info: HandleInfo{Path: path, ContextSize: opts.ContextSize, Threads: opts.Threads}}, nil
}

type llamaHandle struct {
	model *llama.LLama
	info  HandleInfo
}

func (h *llamaHandle) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	if h.model == nil {
		return "", errors.New("llama model not initialized")
	}
	opts = opts.withDefaults()
	h.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		if opts.OnToken != nil {
			if err := opts.OnToken(tok); err != nil {
				return false
			}
		}
		return true
	})
	text, err := h.model.Predict(prompt,
		llama.SetTokens(opts.MaxTokens),
		llama.SetThreads(h.info.Threads),
		llama.SetTemperature(opts.Temperature),
		llama.SetTopP(opts.TopP),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return text, nil
}

func (h *llamaHandle) Describe() HandleInfo { return h.info }

func (h *llamaHandle) Close() error {
	if h.model != nil {
		h.model.Free()
		h.model = nil
	}
	return nil
}
