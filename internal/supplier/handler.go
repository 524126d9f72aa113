package supplier

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	repo *Repository
}

func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

type supplierInput struct {
	Name         string `json:"name"`
	Contact      string `json:"contact"`
	CreatedBy    string `json:"created_by"`
	UpdatedBy    string `json:"updated_by"`
	UpdateReason string `json:"update_reason"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 3)
	offset := queryInt(r, "offset", 0)

	page, err := h.repo.List(r.Context(), limit, offset)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Failed to list suppliers")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := parseInput(w, r)
	if !ok {
		return
	}
	if input.CreatedBy == "" {
		input.CreatedBy = "Admin"
	}

	if err := h.repo.Create(r.Context(), input.Name, input.Contact, input.CreatedBy); err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Failed to create supplier")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Supplier created successfully"})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	input, ok := parseInput(w, r)
	if !ok {
		return
	}
	if input.UpdatedBy == "" {
		input.UpdatedBy = "Admin"
	}

	if err := h.repo.Update(r.Context(), id, input.Name, input.Contact, input.UpdatedBy, input.UpdateReason); err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Failed to update supplier")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Supplier updated successfully"})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Failed to delete supplier")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseInput(w http.ResponseWriter, r *http.Request) (supplierInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var input supplierInput
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return supplierInput{}, false
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Contact = strings.TrimSpace(input.Contact)
	if input.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return supplierInput{}, false
	}
	if len(input.Name) > 100 || len(input.Contact) > 100 {
		writeError(w, http.StatusBadRequest, "Name or contact is too long")
		return supplierInput{}, false
	}

	return input, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid supplier id")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	errorType := "ValidationError"
	if status >= http.StatusInternalServerError {
		errorType = "UpstreamError"
	}
	writeJSON(w, status, map[string]string{
		"status":     "error",
		"message":    message,
		"error_type": errorType,
	})
}
