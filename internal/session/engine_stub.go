//go:build !llama

package session

import "github.com/rs/zerolog"

// llamaBuilt indicates this binary was compiled with real llama support.
const llamaBuilt = false

type llamaEngine struct{ log zerolog.Logger }

// NewLlamaEngine returns an engine that refuses every load in builds without
// the 'llama' tag.
func NewLlamaEngine(log zerolog.Logger) Engine { return llamaEngine{log: log} }

func (e llamaEngine) Load(path string, _ LoadOptions) (Handle, error) {
	e.log.Debug().Str("path", path).Msg("llama support not built")
	return nil, ErrDependencyUnavailable
}
