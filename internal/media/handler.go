package media

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"

	"inventory-backend/internal/observability"
)

const maxUploadBytes = 10 << 20

// ImageUploader stores an image given as a data URI and returns its public
// URL. Implemented by Cloudinary.
type ImageUploader interface {
	UploadImage(ctx context.Context, imageSource string) (string, error)
}

type Handler struct {
	uploader ImageUploader
	logger   *observability.Logger
}

func NewHandler(uploader ImageUploader, logger *observability.Logger) *Handler {
	return &Handler{uploader: uploader, logger: logger}
}

// Upload accepts a multipart image under the "file" field and responds with
// the stored secure URL, ready to use as a product image.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	imageSource, problem := readImageDataURI(r)
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem, "ValidationError")
		return
	}

	secureURL, err := h.uploader.UploadImage(r.Context(), imageSource)
	if err != nil {
		sentry.CaptureException(err)
		h.logger.Error("image_upload_failed", map[string]any{"error": err.Error()})
		writeError(w, http.StatusBadGateway, "Failed to upload image", "UpstreamError")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"secure_url": secureURL})
}

// readImageDataURI pulls the uploaded file out of the multipart form and
// re-encodes it as a data URI. The second return value is a client-facing
// problem description, empty on success.
func readImageDataURI(r *http.Request) (string, string) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", "Invalid multipart form"
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", "File is required"
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", "Failed to read file"
	}
	if len(data) == 0 {
		return "", "File is empty"
	}

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return "", "File must be an image"
	}

	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)), ""
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, errorType string) {
	writeJSON(w, status, map[string]string{
		"status":     "error",
		"message":    message,
		"error_type": errorType,
	})
}
