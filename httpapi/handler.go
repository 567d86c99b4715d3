package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"domain-storefront/models"

	"github.com/go-chi/chi/v5"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"
)

// Handler serves the session API
type Handler struct {
	sessions SessionClient
	logger   *zap.Logger
}

// NewHandler returns a handler backed by sessions
func NewHandler(sessions SessionClient, logger *zap.Logger) *Handler {
	return &Handler{sessions: sessions, logger: logger}
}

type startRequest struct {
	ClientID string `json:"client_id"`
}

type startResponse struct {
	SessionID string `json:"session_id"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// StartSession handles POST /api/v1/sessions
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	req.ClientID = strings.TrimSpace(req.ClientID)
	if req.ClientID == "" {
		respondError(w, http.StatusBadRequest, "invalid_client_id", "client_id is required")
		return
	}

	sessionID, err := h.sessions.Start(r.Context(), req.ClientID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.logger.Info("Session started", zap.String("session_id", sessionID), zap.String("client_id", req.ClientID))
	respondJSON(w, http.StatusCreated, startResponse{SessionID: sessionID})
}

// GetSession handles GET /api/v1/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	state, err := h.sessions.State(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// ApplyEvent handles POST /api/v1/sessions/{id}/events
func (h *Handler) ApplyEvent(w http.ResponseWriter, r *http.Request) {
	var event models.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	state, err := h.sessions.Apply(r.Context(), chi.URLParam(r, "id"), event)
	if err != nil {
		h.handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// handleError maps session errors to HTTP statuses. Rejected events
// surface as application errors and become 409s.
func (h *Handler) handleError(w http.ResponseWriter, err error) {
	var appErr *temporal.ApplicationError
	switch {
	case errors.Is(err, ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "not_found", "session not found")
	case errors.As(err, &appErr):
		respondError(w, http.StatusConflict, appErr.Type(), appErr.Message())
	default:
		h.logger.Error("Session request failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: code, Message: message})
}
