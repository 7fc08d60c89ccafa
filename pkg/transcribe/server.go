package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxRequestBodySize = 1 << 20 // 1 MB
const maxUploadSize = 512 << 20    // 512 MB

// Provider abstracts the speech-to-text backend so the server can be tested
// without network access.
type Provider interface {
	SubmitURL(ctx context.Context, audioURL, webhookURL string, metadata map[string]any) (*Job, error)
	SubmitFile(ctx context.Context, audio io.Reader, webhookURL string, metadata map[string]any) (*Job, error)
	Get(ctx context.Context, id string) (*Job, error)
}

// Server exposes the transcription gateway over HTTP.
type Server struct {
	provider      Provider
	webhookSecret string
	publicBaseURL string
	logger        zerolog.Logger

	mu        sync.RWMutex
	completed map[string]*WebhookPayload
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithWebhookSecret enables HMAC verification of incoming webhooks.
func WithWebhookSecret(secret string) ServerOption {
	return func(s *Server) { s.webhookSecret = secret }
}

// WithPublicBaseURL sets the externally reachable base URL used to build the
// webhook callback address passed to the provider.
func WithPublicBaseURL(base string) ServerOption {
	return func(s *Server) { s.publicBaseURL = base }
}

// WithServerLogger sets the server's logger.
func WithServerLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates the gateway around a provider.
func NewServer(provider Provider, opts ...ServerOption) *Server {
	s := &Server{
		provider:  provider,
		completed: make(map[string]*WebhookPayload),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the gateway's HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Post("/transcribe/url", s.handleSubmitURL)
	r.Post("/transcribe/file", s.handleSubmitFile)
	r.Get("/transcripts/{id}", s.handleGetTranscript)
	r.Post("/webhook", s.handleWebhook)

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		next.ServeHTTP(w, r)
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSubmitURL(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[SubmitURLRequest](w, r)
	if !ok {
		return
	}
	if req.AudioURL == "" {
		writeError(w, http.StatusBadRequest, "audio_url is required")
		return
	}

	metadata := req.Metadata
	if len(req.Emails) > 0 {
		if metadata == nil {
			metadata = make(map[string]any)
		}
		metadata["emails"] = req.Emails
	}

	job, err := s.provider.SubmitURL(r.Context(), req.AudioURL, s.webhookCallbackURL(), metadata)
	if err != nil {
		s.writeProviderError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, SubmitResponse{ID: job.ID, Status: job.Status, AudioURL: req.AudioURL})
}

func (s *Server) handleSubmitFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		writeError(w, http.StatusRequestEntityTooLarge, "audio file too large")
		return
	}

	var metadata map[string]any
	if raw := r.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			writeError(w, http.StatusBadRequest, "invalid metadata")
			return
		}
	}

	job, err := s.provider.SubmitFile(r.Context(), file, s.webhookCallbackURL(), metadata)
	if err != nil {
		s.writeProviderError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, SubmitResponse{ID: job.ID, Status: job.Status})
}

func (s *Server) handleGetTranscript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.RLock()
	payload, found := s.completed[id]
	s.mu.RUnlock()
	if found {
		writeJSON(w, http.StatusOK, StatusResponse{ID: payload.ID, Status: payload.Status, Text: payload.Text})
		return
	}

	job, err := s.provider.Get(r.Context(), id)
	if err != nil {
		s.writeProviderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{ID: job.ID, Status: job.Status, Text: job.Text})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable request body")
		return
	}

	if err := VerifySignature(body, s.webhookSecret, r.Header.Get(SignatureHeader)); err != nil {
		s.logger.Warn().Err(err).Msg("webhook rejected")
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}
	if payload.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	s.mu.Lock()
	s.completed[payload.ID] = &payload
	s.mu.Unlock()

	s.logger.Info().Str("id", payload.ID).Str("status", payload.Status).Msg("webhook received")
	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

func (s *Server) webhookCallbackURL() string {
	if s.publicBaseURL == "" {
		return ""
	}
	return s.publicBaseURL + "/webhook"
}

func (s *Server) writeProviderError(w http.ResponseWriter, err error) {
	var perr *ProviderError
	if errors.As(err, &perr) && perr.Status == http.StatusNotFound {
		writeError(w, http.StatusNotFound, "transcript not found")
		return
	}
	s.logger.Error().Err(err).Msg("provider request failed")
	writeError(w, http.StatusBadGateway, "transcription provider unavailable")
}

type errorResponse struct {
	Error string `json:"error"`
}

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		if err.Error() == "http: request body too large" {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
