package billing

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

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

func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	resp, err := h.service.CreateCheckout(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		case errors.Is(err, models.ErrUpstreamFailure):
			writeJSON(w, http.StatusBadGateway, models.ErrorResponse{Error: "Payment provider unavailable"})
		default:
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Checkout failed"})
		}
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	resp, err := h.service.Subscriptions(userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load subscriptions"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Webhook is the processor's callback. It is unauthenticated by design; the
// HMAC signature is the trust boundary.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Unreadable payload"})
		return
	}

	err = h.service.HandleWebhook(payload, r.Header.Get("X-Signature"))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrForbidden):
			writeJSON(w, http.StatusForbidden, models.ErrorResponse{Error: "Invalid signature"})
		case errors.Is(err, models.ErrInvalidInput):
			writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Webhook processing failed"})
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
