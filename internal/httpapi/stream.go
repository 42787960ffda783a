package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
)

// tokenLine is one NDJSON line of a streamed generation.
type tokenLine struct {
	Token string `json:"token,omitempty"`
	Done  bool   `json:"done,omitempty"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// streamWriter writes NDJSON lines, setting headers on the first write.
type streamWriter struct {
	w       http.ResponseWriter
	enc     *json.Encoder
	flush   func()
	started bool
}

func newStreamWriter(w http.ResponseWriter, debug bool) *streamWriter {
	out := io.Writer(w)
	if debug {
		out = io.MultiWriter(w, &loggingLineWriter{})
	}
	sw := &streamWriter{w: w, enc: json.NewEncoder(out), flush: func() {}}
	if f, ok := w.(http.Flusher); ok {
		sw.flush = f.Flush
	}
	return sw
}

func (s *streamWriter) start() {
	if s.started {
		return
	}
	s.started = true
	s.w.Header().Set("Content-Type", "application/x-ndjson")
	s.w.WriteHeader(http.StatusOK)
}

func (s *streamWriter) write(l tokenLine) error {
	s.start()
	if err := s.enc.Encode(l); err != nil {
		return err
	}
	s.flush()
	return nil
}

func (s *streamWriter) token(tok string) error { return s.write(tokenLine{Token: tok}) }

func (s *streamWriter) done(text string) { _ = s.write(tokenLine{Done: true, Text: text}) }

func (s *streamWriter) fail(err error) { _ = s.write(tokenLine{Done: true, Error: err.Error()}) }
