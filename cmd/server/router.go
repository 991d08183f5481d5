package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"fioso/internal/ai"
	"fioso/internal/config"
	"fioso/internal/logging"
	"fioso/internal/modules"
	"fioso/internal/provider"
)

type modulesResponse struct {
	Version string         `json:"version"`
	Modules []modules.Info `json:"modules"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type aiBody struct {
	Model  string          `json:"model"`
	Prompt json.RawMessage `json:"prompt"`
}

type server struct {
	ns  *modules.Namespace
	cfg config.Config
}

func newRouter(ns *modules.Namespace, cfg config.Config, logger *log.Logger) http.Handler {
	s := &server{ns: ns, cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(withLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(withJSONHeaders)
	r.Use(limitBody)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/modules", s.handleListModules)
		r.Post("/modules/{name}", s.handleCallModule)
		r.Get("/store/{domain}/{provider}", s.handleStore)
		r.Post("/ai/{type}", s.handleAI)
		r.Get("/report", s.handleReport)
	})
	return r
}

func (s *server) handleListModules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, modulesResponse{Version: modules.Version, Modules: s.ns.List()})
}

func (s *server) handleStore(w http.ResponseWriter, r *http.Request) {
	res, err := s.ns.Call(r.Context(), modules.Store, modules.Request{
		Domain:   chi.URLParam(r, "domain"),
		Provider: chi.URLParam(r, "provider"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	out := res.(provider.Outcome)
	writeJSON(w, outcomeStatus(out.Status), out)
}

func (s *server) handleAI(w http.ResponseWriter, r *http.Request) {
	var b aiBody
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	req := modules.Request{
		AIType:     chi.URLParam(r, "type"),
		Model:      b.Model,
		Cloudflare: s.cfg.CloudflareCredentials(),
		Gemini:     s.cfg.GeminiCredentials(),
	}
	// A JSON string is a plain prompt; anything else is a pre-built body.
	var text string
	if err := json.Unmarshal(b.Prompt, &text); err == nil {
		req.Prompt = text
	} else if len(b.Prompt) > 0 && string(b.Prompt) != "null" {
		req.Prompt = b.Prompt
	}

	res, err := s.ns.Call(r.Context(), modules.AI, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleReport(w http.ResponseWriter, r *http.Request) {
	res, err := s.ns.Call(r.Context(), modules.Report, modules.Request{
		Cloudflare: s.cfg.CloudflareCredentials(),
		Gemini:     s.cfg.GeminiCredentials(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleCallModule(w http.ResponseWriter, r *http.Request) {
	var req modules.Request
	if r.ContentLength != 0 {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
			return
		}
	}
	if req.Cloudflare == nil {
		req.Cloudflare = s.cfg.CloudflareCredentials()
	}
	if req.Gemini == nil {
		req.Gemini = s.cfg.GeminiCredentials()
	}

	res, err := s.ns.Call(r.Context(), chi.URLParam(r, "name"), req)
	if err != nil {
		writeError(w, err)
		return
	}
	if out, ok := res.(provider.Outcome); ok {
		writeJSON(w, outcomeStatus(out.Status), out)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// outcomeStatus maps a dispatch status onto the HTTP status of the response.
func outcomeStatus(s provider.Status) int {
	switch s {
	case provider.StatusSuccess:
		return http.StatusOK
	case provider.StatusInvalid:
		return http.StatusNotFound
	case provider.StatusTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, modules.ErrUnknownModule):
		status = http.StatusNotFound
	case errors.Is(err, modules.ErrBadRequest), errors.Is(err, ai.ErrUnsupportedType):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// withLogger attaches the request-scoped logger and logs each request.
func withLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger.With("request_id", middleware.GetReqID(r.Context()))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(logging.WithLogger(r.Context(), l)))
			l.Info("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "took", time.Since(start).Round(time.Millisecond))
		})
	}
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		// Basic CORS for browser usage; adjust as needed.
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limitBody caps request body size to avoid memory abuse.
func limitBody(next http.Handler) http.Handler {
	const maxBody = 1 << 20 // 1MB
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		}
		next.ServeHTTP(w, r)
	})
}
