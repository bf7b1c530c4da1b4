package documents

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
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

// ── Subjects ────────────────────────────────────────────

func (h *Handler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.CreateSubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	subject, err := h.service.CreateSubject(userID, req.Name)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, subject)
}

func (h *Handler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	subjects, err := h.service.ListSubjects(userID)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, subjects)
}

func (h *Handler) DeleteSubject(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	subjectID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid subject ID"})
		return
	}

	if err := h.service.DeleteSubject(userID, subjectID); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ── Documents ───────────────────────────────────────────

// Upload accepts a multipart form with a "file" part and a "title" field.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	subjectID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid subject ID"})
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid multipart form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "A 'file' part is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Failed to read upload"})
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	doc, err := h.service.Upload(r.Context(), userID, subjectID, title, data)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	subjectID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid subject ID"})
		return
	}

	resp, err := h.service.ListDocuments(userID, subjectID)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	documentID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid document ID"})
		return
	}

	doc, err := h.service.GetDocument(userID, documentID)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	documentID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid document ID"})
		return
	}

	if err := h.service.DeleteDocument(userID, documentID); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetStatus is the polling endpoint used while processing runs.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	documentID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid document ID"})
		return
	}

	status, err := h.service.Status(userID, documentID)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func pathID(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[key], 10, 64)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Not found"})
	case errors.Is(err, models.ErrForbidden):
		writeJSON(w, http.StatusForbidden, models.ErrorResponse{Error: "Forbidden"})
	case errors.Is(err, models.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrLimitReached):
		writeJSON(w, http.StatusTooManyRequests, models.ErrorResponse{Error: "Monthly page limit reached"})
	default:
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
