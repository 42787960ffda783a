// Package httpapi exposes the llamabridge host over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"llamabridge/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() ([]types.Model, error)
	Status() types.ModelStatus
	Load(ctx context.Context, req types.LoadRequest) error
	Unload() error
	// Generate and Chat call onToken for each produced token when it is non-nil.
	Generate(ctx context.Context, req types.GenerateRequest, onToken func(string) error) (string, error)
	Chat(ctx context.Context, req types.ChatRequest, onToken func(string) error) (string, error)
	History() []types.ChatTurn
	ClearHistory()
	// ReadResource reads name using mode: sync, callback or promise.
	ReadResource(ctx context.Context, name, mode string) (string, error)
	Ready() bool
}

// ErrUnknownMode is returned for an unsupported resource read mode.
var ErrUnknownMode = errors.New("unknown read mode")

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: orDefault(corsAllowedOrigins, []string{"*"}),
			AllowedMethods: orDefault(corsAllowedMethods, []string{"GET", "POST", "DELETE", "OPTIONS"}),
			AllowedHeaders: orDefault(corsAllowedHeaders, []string{"Content-Type", "X-Log-Level"}),
			MaxAge:         300,
		}))
	}
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	h := &handlers{svc: svc}
	r.Group(func(r chi.Router) {
		r.Use(inflightMiddleware)
		r.Get("/models", h.models)
		r.Post("/model/load", h.load)
		r.Post("/model/unload", h.unload)
		r.Get("/model/status", h.status)
		r.Post("/generate", h.generate)
		r.Post("/chat", h.chat)
		r.Get("/chat/history", h.history)
		r.Delete("/chat/history", h.clearHistory)
		r.Get("/resources/*", h.resource)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no model loaded"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

type handlers struct{ svc Service }

// models godoc
// @Summary      List models
// @Description  Lists *.gguf files found in the models directory.
// @Tags         models
// @Produce      json
// @Success      200  {object}  types.ModelsResponse
// @Failure      500  {object}  types.ErrorResponse
// @Router       /models [get]
func (h *handlers) models(w http.ResponseWriter, r *http.Request) {
	models, err := h.svc.ListModels()
	if err != nil {
		writeError(w, err)
		return
	}
	if models == nil {
		models = []types.Model{}
	}
	writeJSON(w, types.ModelsResponse{Models: models})
}

// load godoc
// @Summary      Load a model
// @Tags         model
// @Accept       json
// @Produce      json
// @Param        body  body      types.LoadRequest  true  "Model to load"
// @Success      200   {object}  types.ModelStatus
// @Failure      409   {object}  types.ErrorResponse  "A model is already loaded"
// @Failure      422   {object}  types.ErrorResponse  "The engine could not load the file"
// @Failure      503   {object}  types.ErrorResponse  "Built without llama support"
// @Router       /model/load [post]
func (h *handlers) load(w http.ResponseWriter, r *http.Request) {
	var req types.LoadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Model) == "" {
		writeJSONError(w, http.StatusBadRequest, "model is required")
		return
	}
	lvl := requestLogLevel(r)
	start := time.Now()
	logStart(r, lvl, "load")
	if err := h.svc.Load(r.Context(), req); err != nil {
		logEnd(r, lvl, "load", writeError(w, err), start, err)
		return
	}
	logEnd(r, lvl, "load", http.StatusOK, start, nil)
	writeJSON(w, h.svc.Status())
}

// unload godoc
// @Summary      Unload the model
// @Description  Idempotent; succeeds when no model is loaded.
// @Tags         model
// @Produce      json
// @Success      200  {object}  types.ModelStatus
// @Router       /model/unload [post]
func (h *handlers) unload(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Unload(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, h.svc.Status())
}

// status godoc
// @Summary      Model status
// @Tags         model
// @Produce      json
// @Success      200  {object}  types.ModelStatus
// @Router       /model/status [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.svc.Status())
}

// generate godoc
// @Summary      Generate text
// @Description  With stream=true the response is NDJSON: one {"token":...} line per token, then {"done":true,"text":...}.
// @Tags         generate
// @Accept       json
// @Produce      json
// @Produce      application/x-ndjson
// @Param        body  body      types.GenerateRequest  true  "Prompt and sampling options"
// @Success      200   {object}  types.TextResponse
// @Failure      409   {object}  types.ErrorResponse  "No model loaded"
// @Failure      429   {object}  types.ErrorResponse  "Generation slot busy"
// @Router       /generate [post]
func (h *handlers) generate(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSONError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	h.run(w, r, "generate", req.Stream, func(ctx context.Context, onToken func(string) error) (string, error) {
		return h.svc.Generate(ctx, req, onToken)
	})
}

// chat godoc
// @Summary      Chat completion
// @Description  Answers input using the chat history; on success the user and assistant turns are appended.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        body  body      types.ChatRequest  true  "User input and optional system prompt"
// @Success      200   {object}  types.TextResponse
// @Failure      409   {object}  types.ErrorResponse  "No model loaded"
// @Failure      429   {object}  types.ErrorResponse  "Generation slot busy"
// @Router       /chat [post]
func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeJSONError(w, http.StatusBadRequest, "input is required")
		return
	}
	h.run(w, r, "chat", req.Stream, func(ctx context.Context, onToken func(string) error) (string, error) {
		return h.svc.Chat(ctx, req, onToken)
	})
}

// history godoc
// @Summary      Chat history
// @Tags         chat
// @Produce      json
// @Success      200  {object}  types.HistoryResponse
// @Router       /chat/history [get]
func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	turns := h.svc.History()
	if turns == nil {
		turns = []types.ChatTurn{}
	}
	writeJSON(w, types.HistoryResponse{Turns: turns})
}

// clearHistory godoc
// @Summary      Clear chat history
// @Tags         chat
// @Success      204
// @Router       /chat/history [delete]
func (h *handlers) clearHistory(w http.ResponseWriter, r *http.Request) {
	h.svc.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}

// resource godoc
// @Summary      Read a bundled resource
// @Tags         resources
// @Produce      json
// @Param        name  path      string  true   "Resource name"
// @Param        mode  query     string  false  "sync, callback or promise (default)"
// @Success      200   {object}  types.ResourceResponse
// @Failure      404   {object}  types.ErrorResponse
// @Failure      503   {object}  types.ErrorResponse  "No resource manager configured"
// @Router       /resources/{name} [get]
func (h *handlers) resource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "resource name is required")
		return
	}
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "promise"
	}
	switch mode {
	case "sync", "callback", "promise":
	default:
		writeJSONError(w, http.StatusBadRequest, ErrUnknownMode.Error()+": "+mode)
		return
	}
	text, err := h.svc.ReadResource(r.Context(), name, mode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, types.ResourceResponse{Name: name, Mode: mode, Text: text})
}

// run executes a generation, either buffered into a TextResponse or streamed as NDJSON.
func (h *handlers) run(w http.ResponseWriter, r *http.Request, what string, stream bool, fn func(context.Context, func(string) error) (string, error)) {
	lvl := requestLogLevel(r)
	start := time.Now()
	logStart(r, lvl, what)

	// Join server base context with request context so shutdown cancels work too.
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	if generateTimeout > 0 {
		var tcancel context.CancelFunc
		ctx, tcancel = context.WithTimeout(ctx, time.Duration(generateTimeout)*time.Second)
		defer tcancel()
	}

	if !stream {
		text, err := fn(ctx, nil)
		if err != nil {
			// Client went away; nothing to write.
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			logEnd(r, lvl, what, writeError(w, err), start, err)
			return
		}
		writeJSON(w, types.TextResponse{Text: text})
		logEnd(r, lvl, what, http.StatusOK, start, nil)
		return
	}

	sw := newStreamWriter(w, lvl >= LevelDebug)
	text, err := fn(ctx, sw.token)
	if err != nil {
		if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
			return
		}
		if !sw.started {
			logEnd(r, lvl, what, writeError(w, err), start, err)
			return
		}
		sw.fail(err)
		logEnd(r, lvl, what, http.StatusOK, start, err)
		return
	}
	sw.done(text)
	logEnd(r, lvl, what, http.StatusOK, start, nil)
}

// decodeJSON enforces the content type and body limit and decodes into v.
// It writes the error response and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}
