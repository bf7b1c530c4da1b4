package invites

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/studyforge/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	code, err := h.service.Create(userID)
	if err != nil {
		if errors.Is(err, models.ErrLimitReached) {
			writeJSON(w, http.StatusTooManyRequests, models.ErrorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to create invite code"})
		return
	}

	writeJSON(w, http.StatusCreated, code)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	codes, err := h.service.List(userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to list invite codes"})
		return
	}

	writeJSON(w, http.StatusOK, models.InviteListResponse{Codes: codes})
}

// Validate classifies a code without consuming it, for pre-flight checks in
// the signup flow.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var req models.ValidateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	verdict, err := h.service.Validate(strings.TrimSpace(req.Code), time.Now())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Validation failed"})
		return
	}

	writeJSON(w, http.StatusOK, models.ValidateInviteResponse{
		Valid:   verdict == models.InviteValid,
		Verdict: verdict,
	})
}

func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.RedeemInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.Redeem(r.Context(), userID, strings.TrimSpace(req.Code))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Invite code not found"})
		case errors.Is(err, models.ErrLimitReached):
			writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: err.Error()})
		case errors.Is(err, models.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Redemption failed"})
		}
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
