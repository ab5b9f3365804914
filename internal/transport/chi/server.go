package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/capstruct/structai/internal/domain"
	chatuc "github.com/capstruct/structai/internal/usecase/chat"
	healthuc "github.com/capstruct/structai/internal/usecase/health"
)

const maxQuestionBytes = 8 << 10

// ErrorResponse is the JSON error body every endpoint returns on failure.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	CodeBadRequest              = "bad_request"
	CodeValidationFailed        = "validation_failed"
	CodeConversationNotFound    = "conversation_not_found"
	CodeRetrievalUnavailable    = "retrieval_unavailable"
	CodeGenerationFailure       = "generation_failure"
	CodeCompletionProviderError = "completion_provider_error"
	CodeInternalError           = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the conversation pipeline over HTTP.
type Server struct {
	chat          *chatuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(chat *chatuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		chat:   chat,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrConversationNotFound, http.StatusNotFound, CodeConversationNotFound),
		sentinelHandler(domain.ErrRetrievalUnavailable, http.StatusBadGateway, CodeRetrievalUnavailable),
		sentinelHandler(domain.ErrGenerationFailure, http.StatusBadGateway, CodeGenerationFailure),
		sentinelHandler(domain.ErrCompletionProviderError, http.StatusBadGateway, CodeCompletionProviderError),
	}
	return s
}

// Routes registers all endpoints on the router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/conversations", s.CreateConversation)
	r.Post("/conversations/{id}/messages", s.SendMessage)
	r.Post("/conversations/{id}/reset", s.ResetConversation)
	r.Get("/conversations/{id}/history", s.GetHistory)
	r.Get("/conversations/{id}/export", s.ExportConversation)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// CreateConversation handles POST /conversations.
func (s *Server) CreateConversation(w http.ResponseWriter, r *http.Request) {
	id := s.chat.NewConversation()
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type sendMessageRequest struct {
	Question string `json:"question"`
}

type documentResponse struct {
	Path string `json:"path"`
	URL  string `json:"url,omitempty"`
}

type sendMessageResponse struct {
	Answer    string             `json:"answer"`
	Documents []documentResponse `json:"documents"`
}

// SendMessage handles POST /conversations/{id}/messages.
func (s *Server) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQuestionBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Question == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "question is required")
		return
	}

	answer, err := s.chat.Ask(r.Context(), chi.URLParam(r, "id"), req.Question)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	docs := make([]documentResponse, len(answer.Documents))
	for i, d := range answer.Documents {
		docs[i] = documentResponse{Path: d.Path, URL: d.URL}
	}
	writeJSON(w, http.StatusOK, sendMessageResponse{Answer: answer.Text, Documents: docs})
}

// ResetConversation handles POST /conversations/{id}/reset.
func (s *Server) ResetConversation(w http.ResponseWriter, r *http.Request) {
	if err := s.chat.Reset(chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type historyMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GetHistory handles GET /conversations/{id}/history.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	messages, err := s.chat.History(chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]historyMessage, len(messages))
	for i, m := range messages {
		items[i] = historyMessage{Role: string(m.Role), Content: m.Content}
	}
	writeJSON(w, http.StatusOK, map[string][]historyMessage{"messages": items})
}

// ExportConversation handles GET /conversations/{id}/export.
func (s *Server) ExportConversation(w http.ResponseWriter, r *http.Request) {
	transcript, err := s.chat.Export(chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="chat_history.txt"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(transcript))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrConversationNotFound,
		domain.ErrRetrievalUnavailable,
		domain.ErrGenerationFailure,
		domain.ErrCompletionProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
