package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"

	"inventory-backend/internal/observability"
)

const maxJSONBodyBytes = 1 << 20

type Handler struct {
	service *Service
	repo    *Repository
	logger  *observability.Logger
}

func NewHandler(service *Service, repo *Repository, logger *observability.Logger) *Handler {
	return &Handler{service: service, repo: repo, logger: logger}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type sendOTPRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	body.Username = strings.TrimSpace(body.Username)
	body.Email = strings.TrimSpace(body.Email)
	if body.Username == "" || body.Email == "" || body.Password == "" {
		writeFailure(w, validationFailure("Username, email and password are required"))
		return
	}

	res, err := h.service.Register(r.Context(), body.Username, body.Email, body.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if res.Code >= http.StatusBadRequest {
		writeFailure(w, passthroughFailure(res))
		return
	}

	writeJSON(w, res.Code, map[string]string{"message": res.Message})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	body.Username = strings.TrimSpace(body.Username)
	if body.Username == "" || body.Password == "" {
		writeFailure(w, validationFailure("Username and password are required"))
		return
	}

	result, err := h.service.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var body refreshRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	access, err := h.service.RefreshToken(strings.TrimSpace(body.Refresh))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var body sendOTPRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	body.Email = strings.TrimSpace(body.Email)
	if body.Email == "" {
		writeFailure(w, validationFailure("Email is required"))
		return
	}

	message, err := h.service.SendOTP(r.Context(), body.Email)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var body resetPasswordRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	body.Email = strings.TrimSpace(body.Email)
	body.OTP = strings.TrimSpace(body.OTP)
	if body.Email == "" || body.OTP == "" || body.NewPassword == "" {
		writeFailure(w, validationFailure("Email, otp and new_password are required"))
		return
	}

	message, err := h.service.ResetPassword(r.Context(), body.Email, body.OTP, body.NewPassword)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

// ListUsers is the admin convenience listing; it sits behind the gate.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.ListUsers(r.Context())
	if err != nil {
		sentry.CaptureException(err)
		writeFailure(w, upstreamFailure("Failed to list users", err))
		return
	}

	writeJSON(w, http.StatusOK, users)
}

// writeServiceError maps a *Failure to its response and reports anything
// unexpected. Upstream causes are logged with detail but the client only
// sees the generic message.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var fail *Failure
	if errors.As(err, &fail) {
		if fail.Kind == KindUpstream {
			sentry.CaptureException(err)
			h.logger.Error("auth_upstream_failure", map[string]any{"error": err.Error()})
		}
		writeFailure(w, fail)
		return
	}

	sentry.CaptureException(err)
	h.logger.Error("auth_unexpected_failure", map[string]any{"error": err.Error()})
	writeFailure(w, upstreamFailure("This is an unexpected error. Please contact support.", err))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeFailure(w, validationFailure("Invalid JSON body"))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeFailure(w http.ResponseWriter, fail *Failure) {
	body := map[string]any{
		"status":     "error",
		"message":    fail.Message,
		"error_type": fail.TypeName(),
	}
	if fail.IsLocked || fail.SecondsLeft > 0 {
		body["is_locked"] = fail.IsLocked
		body["seconds_left"] = fail.SecondsLeft
	}

	writeJSON(w, fail.StatusCode(), body)
}
