package auth

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"inventory-backend/internal/observability"
)

func newTestService(store *memStore, mailer *fakeMailer) *Service {
	return NewService(
		store,
		newTestTokenService(),
		mailer,
		observability.NewLogger(observability.LevelError),
	)
}

func TestRegisterRejectsWeakPasswordBeforeStore(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := newTestService(store, &fakeMailer{})

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "weak")
	require.Error(t, err)

	var fail *Failure
	require.ErrorAs(t, err, &fail)
	require.Equal(t, KindValidation, fail.Kind)
	require.Equal(t, 0, store.registerCalls)
}

func TestRegisterPassesThroughConflict(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.seed("alice", "alice@example.com", "Str0ng!Pass", "user")
	svc := newTestService(store, &fakeMailer{})

	res, err := svc.Register(context.Background(), "alice", "other@example.com", "Str0ng!Pass")
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, res.Code)
	require.Equal(t, "Username already taken", res.Message)
}

func TestRegisterSuccess(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	svc := newTestService(store, &fakeMailer{})

	res, err := svc.Register(context.Background(), "bob", "bob@example.com", "Str0ng!Pass")
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, res.Code)
	require.Equal(t, "User registered successfully", res.Message)

	// The stored hash verifies against the original password.
	result, err := svc.Login(context.Background(), "bob", "Str0ng!Pass")
	require.NoError(t, err)
	require.Equal(t, "bob", result.Username)
}

func TestLoginSuccessIssuesTokens(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.seed("alice", "alice@example.com", "Str0ng!Pass", "Admin")
	svc := newTestService(store, &fakeMailer{})

	result, err := svc.Login(context.Background(), "alice", "Str0ng!Pass")
	require.NoError(t, err)
	require.Equal(t, "alice", result.Username)
	require.Equal(t, "admin", result.Role, "role is normalized to lowercase")
	require.NotEmpty(t, result.Access)
	require.NotEmpty(t, result.Refresh)

	claims, err := newTestTokenService().VerifyAccess(result.Access)
	require.NoError(t, err)
	require.Equal(t, int64(1), claims.UserID)
	require.Equal(t, "admin", claims.Role)
}

func TestLoginUnknownUserMatchesWrongPassword(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.seed("alice", "alice@example.com", "Str0ng!Pass", "user")
	svc := newTestService(store, &fakeMailer{})

	_, unknownErr := svc.Login(context.Background(), "nobody", "Str0ng!Pass")
	_, wrongErr := svc.Login(context.Background(), "alice", "Wr0ng!Pass")

	var unknown, wrong *Failure
	require.ErrorAs(t, unknownErr, &unknown)
	require.ErrorAs(t, wrongErr, &wrong)

	require.Equal(t, unknown.Message, wrong.Message)
	require.Equal(t, http.StatusUnauthorized, unknown.StatusCode())
	require.Equal(t, http.StatusUnauthorized, wrong.StatusCode())

	// No attempt is recorded for an account that does not exist.
	require.Equal(t, 1, store.attemptCalls)
}

func TestLoginLockout(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.seed("alice", "alice@example.com", "Str0ng!Pass", "user")

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	svc := newTestService(store, &fakeMailer{})
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := svc.Login(ctx, "alice", "Wr0ng!Pass")
		var fail *Failure
		require.ErrorAs(t, err, &fail)
		require.Equal(t, http.StatusUnauthorized, fail.StatusCode())
		require.False(t, fail.IsLocked)
	}

	// Fifth failure crosses the threshold and locks the account.
	_, err := svc.Login(ctx, "alice", "Wr0ng!Pass")
	var locked *Failure
	require.ErrorAs(t, err, &locked)
	require.Equal(t, http.StatusForbidden, locked.StatusCode())
	require.True(t, locked.IsLocked)
	require.Equal(t, int(store.lockDuration.Seconds()), locked.SecondsLeft)
	require.Equal(t, 5, store.attemptCalls)

	// While locked, even the correct password short-circuits before the
	// password check; no further attempt is recorded.
	_, err = svc.Login(ctx, "alice", "Str0ng!Pass")
	var stillLocked *Failure
	require.ErrorAs(t, err, &stillLocked)
	require.Equal(t, http.StatusForbidden, stillLocked.StatusCode())
	require.True(t, stillLocked.IsLocked)
	require.Greater(t, stillLocked.SecondsLeft, 0)
	require.Equal(t, 5, store.attemptCalls)

	// Once the window elapses the account unlocks by itself.
	current = current.Add(store.lockDuration + time.Second)
	result, err := svc.Login(ctx, "alice", "Str0ng!Pass")
	require.NoError(t, err)
	require.Equal(t, "alice", result.Username)
}

func TestLoginCounterResetsOnSuccess(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.seed("alice", "alice@example.com", "Str0ng!Pass", "user")
	svc := newTestService(store, &fakeMailer{})
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := svc.Login(ctx, "alice", "Wr0ng!Pass")
		require.Error(t, err)
	}

	_, err := svc.Login(ctx, "alice", "Str0ng!Pass")
	require.NoError(t, err)

	// The streak restarted: four more failures still do not lock.
	for i := 0; i < 4; i++ {
		_, err := svc.Login(ctx, "alice", "Wr0ng!Pass")
		var fail *Failure
		require.ErrorAs(t, err, &fail)
		require.False(t, fail.IsLocked)
	}
}

func TestRefreshTokenInvalid(t *testing.T) {
	t.Parallel()

	svc := newTestService(newMemStore(), &fakeMailer{})

	_, err := svc.RefreshToken("garbage")
	var fail *Failure
	require.ErrorAs(t, err, &fail)
	require.Equal(t, http.StatusUnauthorized, fail.StatusCode())
	require.Equal(t, "Invalid refresh token", fail.Message)
}

// extractOTP pulls the six-digit code out of the email body the service sent.
func extractOTP(t *testing.T, body string) string {
	t.Helper()

	const prefix = "Your OTP is "
	require.True(t, strings.HasPrefix(body, prefix))
	code := strings.TrimPrefix(body, prefix)
	require.Len(t, code, 6)
	return code
}

func TestPasswordResetFlow(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.seed("alice", "alice@example.com", "Str0ng!Pass", "user")
	mailer := &fakeMailer{}
	svc := newTestService(store, mailer)
	ctx := context.Background()

	message, err := svc.SendOTP(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, "OTP sent successfully", message)
	require.Len(t, mailer.sent, 1)
	require.Equal(t, "alice@example.com", mailer.sent[0].to)

	code := extractOTP(t, mailer.sent[0].body)

	message, err = svc.ResetPassword(ctx, "alice@example.com", code, "N3w!Passw0rd")
	require.NoError(t, err)
	require.Equal(t, "Password reset successful", message)

	// The old password no longer works; the new one does.
	_, err = svc.Login(ctx, "alice", "Str0ng!Pass")
	require.Error(t, err)
	result, err := svc.Login(ctx, "alice", "N3w!Passw0rd")
	require.NoError(t, err)
	require.Equal(t, "alice", result.Username)

	// A consumed code cannot be replayed.
	_, err = svc.ResetPassword(ctx, "alice@example.com", code, "An0ther!Pass")
	var fail *Failure
	require.ErrorAs(t, err, &fail)
	require.Equal(t, http.StatusBadRequest, fail.StatusCode())
	require.Equal(t, "Invalid OTP", fail.Message)
}

func TestResetPasswordExpiredOTP(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.seed("alice", "alice@example.com", "Str0ng!Pass", "user")

	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return current }

	mailer := &fakeMailer{}
	svc := newTestService(store, mailer)
	ctx := context.Background()

	_, err := svc.SendOTP(ctx, "alice@example.com")
	require.NoError(t, err)
	code := extractOTP(t, mailer.sent[0].body)

	current = current.Add(store.otpTTL + time.Minute)

	_, err = svc.ResetPassword(ctx, "alice@example.com", code, "N3w!Passw0rd")
	var fail *Failure
	require.ErrorAs(t, err, &fail)
	require.Equal(t, http.StatusBadRequest, fail.StatusCode())
	require.Equal(t, "OTP has expired", fail.Message)
}

func TestSendOTPUnknownEmail(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	mailer := &fakeMailer{}
	svc := newTestService(store, mailer)

	_, err := svc.SendOTP(context.Background(), "nobody@example.com")
	var fail *Failure
	require.ErrorAs(t, err, &fail)
	require.Equal(t, http.StatusNotFound, fail.StatusCode())
	require.Equal(t, "Email not found", fail.Message)
	require.Empty(t, mailer.sent, "no email goes out for an unknown address")
}

func TestSendOTPMailerFailure(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.seed("alice", "alice@example.com", "Str0ng!Pass", "user")
	mailer := &fakeMailer{err: errSMTPDown}
	svc := newTestService(store, mailer)

	_, err := svc.SendOTP(context.Background(), "alice@example.com")
	var fail *Failure
	require.ErrorAs(t, err, &fail)
	require.Equal(t, http.StatusBadGateway, fail.StatusCode())
}

func TestResetPasswordRejectsWeakPasswordBeforeStore(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	store.seed("alice", "alice@example.com", "Str0ng!Pass", "user")
	svc := newTestService(store, &fakeMailer{})

	_, err := svc.ResetPassword(context.Background(), "alice@example.com", "123456", "weak")
	var fail *Failure
	require.ErrorAs(t, err, &fail)
	require.Equal(t, KindValidation, fail.Kind)
	require.Equal(t, 0, store.resetCalls)
}
