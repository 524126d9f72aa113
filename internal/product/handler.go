package product

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 5)
	offset := queryInt(r, "offset", 0)

	page, err := h.repo.List(r.Context(), limit, offset)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "Search query is required")
		return
	}

	products, err := h.repo.Search(r.Context(), query)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Search operation failed")
		return
	}

	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := parseInput(w, r)
	if !ok {
		return
	}
	if input.CreatedBy == "" {
		input.CreatedBy = "Admin"
	}

	if err := h.repo.Create(r.Context(), input); err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Failed to create product in database")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Product created successfully"})
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

	if err := h.repo.Update(r.Context(), id, input); err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Product updated successfully"})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "Could not delete product")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseInput(w http.ResponseWriter, r *http.Request) (ProductInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	var input ProductInput
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return ProductInput{}, false
	}

	input.Name = strings.TrimSpace(input.Name)
	input.ProductImage = strings.TrimSpace(input.ProductImage)

	if input.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return ProductInput{}, false
	}
	if !utf8.ValidString(input.Name) || len(input.Name) > 150 {
		writeError(w, http.StatusBadRequest, "Name is invalid")
		return ProductInput{}, false
	}
	if input.Price < 0 {
		writeError(w, http.StatusBadRequest, "Price must be >= 0")
		return ProductInput{}, false
	}
	if input.Quantity < 0 {
		writeError(w, http.StatusBadRequest, "Quantity must be >= 0")
		return ProductInput{}, false
	}
	if input.SupplierID <= 0 || input.CategoryID <= 0 {
		writeError(w, http.StatusBadRequest, "supplier_id and category_id are required")
		return ProductInput{}, false
	}
	if len(input.ProductImage) > 500 {
		writeError(w, http.StatusBadRequest, "product_image is too long")
		return ProductInput{}, false
	}

	return input, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid product id")
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
