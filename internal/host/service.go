package host

import (
	"context"
	"fmt"

	"llamabridge/internal/registry"
	"llamabridge/internal/session"
	"llamabridge/pkg/types"
)

// Service adapts Exports to the HTTP API.
type Service struct {
	x        *Exports
	defaults session.LoadOptions
}

// NewService returns a Service over x. defaults fill zero fields of load requests.
func NewService(x *Exports, defaults session.LoadOptions) *Service {
	return &Service{x: x, defaults: defaults}
}

func (s *Service) ListModels() ([]types.Model, error) { return s.x.ListModels() }

func (s *Service) Ready() bool { return s.x.Ready() }

func (s *Service) Status() types.ModelStatus {
	st := s.x.Session().Status()
	return types.ModelStatus{
		Loaded:       st.State == session.StateLoaded,
		State:        st.State.String(),
		Path:         st.Path,
		Info:         st.Info,
		LastError:    st.LastError,
		HistoryTurns: st.History,
		LlamaBuilt:   session.LlamaBuilt(),
	}
}

// Load resolves req.Model against the models directory, falling back to the
// reference as a path, and loads it.
func (s *Service) Load(ctx context.Context, req types.LoadRequest) error {
	// An unreadable models dir still allows loading by path.
	models, _ := s.x.ListModels()
	path, err := registry.Resolve(models, req.Model)
	if err != nil {
		path = req.Model
	}
	opts := session.LoadOptions{ContextSize: req.ContextSize, Threads: req.Threads}
	if opts.ContextSize == 0 {
		opts.ContextSize = s.defaults.ContextSize
	}
	if opts.Threads == 0 {
		opts.Threads = s.defaults.Threads
	}
	return s.x.Session().Load(ctx, path, opts)
}

func (s *Service) Unload() error { return s.x.Session().Unload() }

func (s *Service) Generate(ctx context.Context, req types.GenerateRequest, onToken func(string) error) (string, error) {
	return s.x.Session().Generate(ctx, req.Prompt, session.GenerateOptions{
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		TopP:        float32(req.TopP),
		OnToken:     onToken,
	})
}

func (s *Service) Chat(ctx context.Context, req types.ChatRequest, onToken func(string) error) (string, error) {
	return s.x.Session().ChatStream(ctx, req.Input, req.System, onToken)
}

func (s *Service) History() []types.ChatTurn {
	turns := s.x.Session().History()
	out := make([]types.ChatTurn, 0, len(turns))
	for _, t := range turns {
		out = append(out, types.ChatTurn{Role: string(t.Role), Text: t.Text})
	}
	return out
}

func (s *Service) ClearHistory() { s.x.ClearChatHistory() }

// ReadResource reads name from the default manager with the given completion style.
func (s *Service) ReadResource(ctx context.Context, name, mode string) (string, error) {
	type result struct {
		text string
		err  error
	}
	switch mode {
	case "sync":
		var r result
		s.x.SyncCallbackRead(name, nil, func(text string, err error) { r = result{text, err} })
		return r.text, r.err
	case "callback":
		ch := make(chan result, 1)
		if err := s.x.AsyncCallbackRead(name, nil, func(text string, err error) { ch <- result{text, err} }); err != nil {
			return "", err
		}
		select {
		case r := <-ch:
			return r.text, r.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	case "promise":
		return s.x.AsyncPromiseRead(name, nil).Await(ctx)
	}
	return "", fmt.Errorf("read mode %q: unsupported", mode)
}
