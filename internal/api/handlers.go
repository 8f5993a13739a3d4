// Package api exposes HTTP handlers for the gym membership service.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"example.com/gym/internal/domain"
	"example.com/gym/internal/schema"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	log     zerolog.Logger
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, log zerolog.Logger) *Handler {
	return &Handler{service: service, log: log.With().Str("component", "api").Logger()}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/member", h.members)
	mux.HandleFunc("/member/", h.memberByID)
	mux.HandleFunc("/workout_session/", h.sessionByID)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) members(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listMembers(w, r)
	case http.MethodPost:
		h.createMember(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) memberByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "/member/")
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodPut:
		h.updateMember(w, r, id)
	case http.MethodDelete:
		h.deleteMember(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

// sessionByID dispatches /workout_session/{id}. The id names a member for
// list and create, and a session for update and delete.
func (h *Handler) sessionByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "/workout_session/")
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.listSessions(w, r, id)
	case http.MethodPost:
		h.createSession(w, r, id)
	case http.MethodPut:
		h.updateSession(w, r, id)
	case http.MethodDelete:
		h.deleteSession(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListMembers(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	views := make([]MemberView, 0, len(members))
	for _, m := range members {
		views = append(views, toMemberView(m))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) createMember(w http.ResponseWriter, r *http.Request) {
	input, ok := h.validateMemberBody(w, r)
	if !ok {
		return
	}

	member, err := h.service.CreateMember(r.Context(), input.Name, input.Age)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, memberResponse{
		Message: "New member added successfully",
		Member:  toMemberView(*member),
	})
}

func (h *Handler) updateMember(w http.ResponseWriter, r *http.Request, memberID int64) {
	input, ok := h.validateMemberBody(w, r)
	if !ok {
		return
	}

	member, err := h.service.UpdateMember(r.Context(), memberID, input.Name, input.Age)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "member not found")
			return
		}
		h.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, memberResponse{
		Message: "Member details updated successfully",
		Member:  toMemberView(*member),
	})
}

func (h *Handler) deleteMember(w http.ResponseWriter, r *http.Request, memberID int64) {
	if err := h.service.DeleteMember(r.Context(), memberID); err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "member not found")
			return
		}
		h.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Member removed successfully"})
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request, memberID int64) {
	sessions, err := h.service.ListSessionsForMember(r.Context(), memberID)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "member not found")
			return
		}
		h.serverError(w, r, err)
		return
	}

	views := make([]SessionView, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, toSessionView(s))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request, memberID int64) {
	input, ok := h.validateSessionBody(w, r)
	if !ok {
		return
	}

	session, err := h.service.CreateSession(r.Context(), memberID, input.Date, input.DurationMinutes, input.CaloriesBurned)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "member not found")
			return
		}
		h.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		Message: "New session added successfully",
		Session: toSessionView(*session),
	})
}

func (h *Handler) updateSession(w http.ResponseWriter, r *http.Request, sessionID int64) {
	input, ok := h.validateSessionBody(w, r)
	if !ok {
		return
	}

	session, err := h.service.UpdateSession(r.Context(), sessionID, input.Date, input.DurationMinutes, input.CaloriesBurned)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "workout session not found")
			return
		}
		h.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Message: "Session details updated successfully",
		Session: toSessionView(*session),
	})
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request, sessionID int64) {
	if err := h.service.DeleteSession(r.Context(), sessionID); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "workout session not found")
			return
		}
		h.serverError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Session removed successfully"})
}

// validateMemberBody runs body validation before any store lookup; shape
// failures always win over not-found.
func (h *Handler) validateMemberBody(w http.ResponseWriter, r *http.Request) (schema.Member, bool) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to read body")
		return schema.Member{}, false
	}

	input, fieldErrs := schema.ValidateMember(raw)
	if fieldErrs != nil {
		writeValidationError(w, fieldErrs)
		return schema.Member{}, false
	}
	return input, true
}

func (h *Handler) validateSessionBody(w http.ResponseWriter, r *http.Request) (schema.Session, bool) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to read body")
		return schema.Session{}, false
	}

	input, fieldErrs := schema.ValidateSession(raw)
	if fieldErrs != nil {
		writeValidationError(w, fieldErrs)
		return schema.Session{}, false
	}
	return input, true
}

// serverError logs the underlying failure and reports an opaque 500. Store
// detail never reaches clients.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "server_error", "internal error")
}

func pathID(w http.ResponseWriter, r *http.Request, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(r.URL.Path, prefix)
	if raw == "" || strings.Contains(raw, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing id")
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "id must be an integer")
		return 0, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, map[string]string{
		"type":   code,
		"detail": detail,
	})
}

func writeValidationError(w http.ResponseWriter, errs schema.FieldErrors) {
	writeJSON(w, http.StatusBadRequest, validationResponse{
		Type:   "validation_failed",
		Errors: errs,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
