package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fjod/go_cart/chat-service/internal/domain"
	"github.com/fjod/go_cart/chat-service/internal/service"
	"github.com/google/uuid"
)

const (
	maxMessageLength   = 500
	maxRequestBodySize = 1 << 20 // 1MB
)

// Chat is the part of the chat service the HTTP layer drives.
type Chat interface {
	CreateSession(ctx context.Context) (*domain.Session, error)
	Heartbeat(ctx context.Context, sessionID string) error
	ProcessMessage(ctx context.Context, sessionID, message, baseURL string) (*domain.Reply, error)
	PaymentSummary(ctx context.Context, sessionID string) (*domain.CartView, error)
	Timeout() time.Duration
}

type ChatHandler struct {
	chat          Chat
	timeout       time.Duration
	publicBaseURL string
}

// NewChatHandler wires the chat endpoints. publicBaseURL prefixes payment
// links; when empty the request's own scheme and host are used.
func NewChatHandler(chat Chat, timeout time.Duration, publicBaseURL string) *ChatHandler {
	return &ChatHandler{
		chat:          chat,
		timeout:       timeout,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

type HeartbeatRequestDTO struct {
	SessionID string `json:"session_id"`
}

type MessageRequestDTO struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type SessionResponseDTO struct {
	SessionID      string `json:"session_id"`
	TimeoutMinutes int    `json:"timeout_minutes"`
	Message        string `json:"message"`
}

type HeartbeatResponseDTO struct {
	OK bool `json:"ok"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	session, err := h.chat.CreateSession(ctx)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, SessionResponseDTO{
		SessionID:      session.ID,
		TimeoutMinutes: int(h.chat.Timeout() / time.Minute),
		Message:        service.IntroMessage,
	})
}

func (h *ChatHandler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req HeartbeatRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	fields := map[string]string{}
	sessionID := validateSessionID(fields, req.SessionID)
	if len(fields) > 0 {
		respondValidationError(w, fields)
		return
	}

	if err := h.chat.Heartbeat(ctx, sessionID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, HeartbeatResponseDTO{OK: true})
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req MessageRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	message := strings.TrimSpace(req.Message)
	fields := map[string]string{}
	sessionID := validateSessionID(fields, req.SessionID)
	switch {
	case message == "":
		fields["message"] = "this field may not be blank"
	case utf8.RuneCountInString(message) > maxMessageLength:
		fields["message"] = "must be at most 500 characters"
	}
	if len(fields) > 0 {
		respondValidationError(w, fields)
		return
	}

	reply, err := h.chat.ProcessMessage(ctx, sessionID, message, h.baseURL(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, reply)
}

func (h *ChatHandler) baseURL(r *http.Request) string {
	if h.publicBaseURL != "" {
		return h.publicBaseURL
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// validateSessionID returns the canonical lower-case form of id, or records
// a field error and returns "".
func validateSessionID(fields map[string]string, id string) string {
	if id == "" {
		fields["session_id"] = "this field is required"
		return ""
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		fields["session_id"] = "must be a valid UUID"
		return ""
	}
	return parsed.String()
}

// decodeJSON reads exactly one JSON object, rejecting unknown fields. It writes
// the 400 itself and reports whether the handler may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body", err.Error())
		return false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body", "unexpected data after JSON object")
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", slog.Any("err", err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message, details string) {
	respondJSON(w, status, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

func respondValidationError(w http.ResponseWriter, fields map[string]string) {
	respondJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:  "invalid request",
		Code:   "invalid_request",
		Fields: fields,
	})
}

// handleServiceError maps chat service errors to HTTP statuses.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "session_not_found", "Session not found", "")
	case errors.Is(err, service.ErrSessionExpired):
		respondError(w, http.StatusGone, "session_expired", "Session expired", "")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out", "")
	default:
		slog.ErrorContext(r.Context(), "chat request failed",
			slog.String("path", r.URL.Path),
			slog.String("request_id", getRequestID(r.Context())),
			slog.Any("err", err),
		)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error", "")
	}
}
