package session

import (
	"context"
	"strings"
)

// Role labels a chat turn.
type Role string

const (
	RoleUser      Role = "User"
	RoleAssistant Role = "Assistant"
)

// Turn is one entry of the chat history.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

func (t Turn) String() string { return string(t.Role) + ": " + t.Text }

// Chat answers input in the context of the chat history and, on success,
// appends the user and assistant turns together. On failure the history is
// unchanged and "" is returned with the error.
func (s *Session) Chat(ctx context.Context, input, system string) (string, error) {
	return s.ChatStream(ctx, input, system, nil)
}

// ChatStream is Chat with per-token delivery to onToken.
func (s *Session) ChatStream(ctx context.Context, input, system string, onToken func(string) error) (string, error) {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()

	prompt := BuildPrompt(s.recentTurns(), input, system)
	text, err := s.generate(ctx, "chat", prompt, GenerateOptions{
		MaxTokens:   ChatMaxTokens,
		Temperature: ChatTemperature,
		TopP:        ChatTopP,
		OnToken:     onToken,
	})
	if err != nil {
		return "", err
	}
	s.histMu.Lock()
	s.history = append(s.history, Turn{Role: RoleUser, Text: input}, Turn{Role: RoleAssistant, Text: text})
	s.histMu.Unlock()
	return text, nil
}

// ClearHistory empties the chat history. It does not wait for a running chat
// and leaves the load state and LastError alone.
func (s *Session) ClearHistory() {
	s.histMu.Lock()
	n := len(s.history)
	s.history = nil
	s.histMu.Unlock()
	s.pub.Publish(Event{Name: "history_cleared", Model: s.Path(), Fields: map[string]any{"turns": n}})
}

// History returns a copy of the chat history.
func (s *Session) History() []Turn {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	out := make([]Turn, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) recentTurns() []Turn {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	h := s.history
	if len(h) > s.window {
		h = h[len(h)-s.window:]
	}
	out := make([]Turn, len(h))
	copy(out, h)
	return out
}

// BuildPrompt renders a chat prompt:
//
//	System: <system>\n\n        (when system is set)
//	<Role>: <text>\n            (one line per turn)
//	User: <input>\nAssistant:
func BuildPrompt(turns []Turn, input, system string) string {
	var b strings.Builder
	if system != "" {
		b.WriteString("System: ")
		b.WriteString(system)
		b.WriteString("\n\n")
	}
	for _, t := range turns {
		b.WriteString(t.String())
		b.WriteByte('\n')
	}
	b.WriteString("User: ")
	b.WriteString(input)
	b.WriteString("\nAssistant: ")
	return b.String()
}
