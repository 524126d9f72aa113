package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"inventory-backend/internal/observability"
)

// Mailer dispatches the OTP email. Implemented by internal/email.
type Mailer interface {
	Send(to, subject, body string) error
}

// Service composes hashing, tokens, the lockout state machine, and the OTP
// flow into the five auth use cases. All failures come back as *Failure;
// stored-procedure result codes pass through verbatim.
type Service struct {
	store  Store
	tokens *TokenService
	mailer Mailer
	logger *observability.Logger
}

func NewService(store Store, tokens *TokenService, mailer Mailer, logger *observability.Logger) *Service {
	return &Service{store: store, tokens: tokens, mailer: mailer, logger: logger}
}

// Register policy-checks and hashes the password, then delegates to the
// register procedure. Its result code (e.g. "username taken") is returned
// untouched.
func (s *Service) Register(ctx context.Context, username, email, password string) (ProcResult, error) {
	if fail := ValidatePassword(password); fail != nil {
		return ProcResult{}, fail
	}

	hash, err := HashPassword(password)
	if err != nil {
		return ProcResult{}, upstreamFailure("Failed to register user", err)
	}

	res, err := s.store.Register(ctx, username, email, hash)
	if err != nil {
		return ProcResult{}, upstreamFailure("Failed to register user", err)
	}

	return res, nil
}

// Login implements the lockout state machine. Order matters: a locked
// account short-circuits before any password comparison, and the attempt is
// recorded exactly once through the atomic UPDATE_ATTEMPT procedure.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	status, err := s.store.GetLoginStatus(ctx, username)
	if err != nil {
		return LoginResult{}, upstreamFailure("Failed to login", err)
	}

	if !status.Found {
		// Externally indistinguishable from a wrong password.
		s.logger.Info("login_rejected", map[string]any{"username": username, "reason": "no_account"})
		return LoginResult{}, authFailure("Invalid username or password")
	}

	if status.Code == http.StatusForbidden {
		secondsLeft := status.SecondsLeft
		if secondsLeft < 1 {
			secondsLeft = 1
		}
		return LoginResult{}, lockedFailure("Account locked", secondsLeft)
	}

	if status.HashedPassword == "" {
		return LoginResult{}, authFailure("Invalid credentials")
	}

	matched := VerifyPassword(password, status.HashedPassword)

	attempt, err := s.store.RecordAttempt(ctx, username, matched)
	if err != nil {
		return LoginResult{}, upstreamFailure("Failed to login", err)
	}

	if !matched {
		s.logger.Info("login_rejected", map[string]any{"username": username, "reason": "wrong_password"})
		message := attempt.Message
		if message == "" {
			message = "Invalid username or password"
		}
		fail := &Failure{
			Kind:        KindAuth,
			Status:      attempt.Code,
			Message:     message,
			IsLocked:    attempt.Locked,
			SecondsLeft: attempt.SecondsLeft,
		}
		if attempt.Locked {
			fail.Kind = KindLocked
		}
		return LoginResult{}, fail
	}

	role := strings.ToLower(attempt.Role)
	if role == "" {
		role = "user"
	}
	canonical := attempt.Username
	if canonical == "" {
		canonical = username
	}

	access, refresh, err := s.tokens.Issue(attempt.UserID, role)
	if err != nil {
		return LoginResult{}, upstreamFailure("Failed to login", err)
	}

	s.logger.Debug("tokens_issued", map[string]any{"user_id": attempt.UserID, "role": role})

	return LoginResult{
		Access:   access,
		Refresh:  refresh,
		Username: canonical,
		Role:     role,
	}, nil
}

// RefreshToken mints a new access token from a valid refresh token. Every
// verification problem surfaces as the same generic 401.
func (s *Service) RefreshToken(refreshToken string) (string, error) {
	access, err := s.tokens.Refresh(refreshToken)
	if err != nil {
		return "", authFailure("Invalid refresh token")
	}
	return access, nil
}

// SendOTP stores a fresh code for the account and emails it. When the
// account lookup fails the procedure's code and message pass through and no
// email is sent.
func (s *Service) SendOTP(ctx context.Context, email string) (string, error) {
	code, err := GenerateOTP()
	if err != nil {
		return "", upstreamFailure("Failed to send OTP", err)
	}

	res, err := s.store.SetOTP(ctx, email, code)
	if err != nil {
		return "", upstreamFailure("Failed to send OTP", err)
	}
	if res.Code != http.StatusOK {
		return "", passthroughFailure(res)
	}

	if err := s.mailer.Send(email, "Reset OTP", fmt.Sprintf("Your OTP is %s", code)); err != nil {
		return "", &Failure{Kind: KindUpstream, Status: http.StatusBadGateway, Message: "Failed to send OTP email", Err: err}
	}

	return "OTP sent successfully", nil
}

// ResetPassword validates the new password, hashes it, and lets the
// VERIFY_RESET procedure check the OTP and swap the hash in one atomic step.
// There is no separate "check OTP" call to race against.
func (s *Service) ResetPassword(ctx context.Context, email, otpInput, newPassword string) (string, error) {
	if fail := ValidatePassword(newPassword); fail != nil {
		return "", fail
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return "", upstreamFailure("Failed to reset password", err)
	}

	res, err := s.store.VerifyResetOTP(ctx, email, otpInput, hash)
	if err != nil {
		return "", upstreamFailure("Failed to reset password", err)
	}
	if res.Code != http.StatusOK {
		return "", passthroughFailure(res)
	}

	return res.Message, nil
}

// passthroughFailure turns a stored-procedure error result into a Failure
// without rewriting its code or message.
func passthroughFailure(res ProcResult) *Failure {
	kind := KindUpstream
	switch res.Code {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict:
		kind = KindValidation
	case http.StatusUnauthorized:
		kind = KindAuth
	case http.StatusForbidden:
		kind = KindLocked
	}
	return &Failure{Kind: kind, Status: res.Code, Message: res.Message}
}
