package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Store is the persistence contract for the auth flows. Every call is one
// round trip to a stored procedure; the database owns all account state and
// performs the read-modify-write steps atomically. There is no app-side
// caching or locking on top of it.
type Store interface {
	Register(ctx context.Context, username, email, passwordHash string) (ProcResult, error)
	GetLoginStatus(ctx context.Context, username string) (LoginStatus, error)
	RecordAttempt(ctx context.Context, username string, matched bool) (AttemptResult, error)
	SetOTP(ctx context.Context, email, code string) (ProcResult, error)
	VerifyResetOTP(ctx context.Context, email, otpInput, newHash string) (ProcResult, error)
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Register(ctx context.Context, username, email, passwordHash string) (ProcResult, error) {
	var res ProcResult
	err := r.db.QueryRowContext(ctx, `
		SELECT res_code, res_message FROM sp_auth_register($1, $2, $3)
	`, username, email, passwordHash).Scan(&res.Code, &res.Message)
	if err != nil {
		return ProcResult{}, fmt.Errorf("call sp_auth_register: %w", err)
	}

	return res, nil
}

func (r *Repository) GetLoginStatus(ctx context.Context, username string) (LoginStatus, error) {
	var status LoginStatus
	var hashed sql.NullString
	var locked sql.NullBool
	var secondsLeft sql.NullInt64

	err := r.db.QueryRowContext(ctx, `
		SELECT res_code, hashed_password, is_locked, seconds_left
		FROM sp_user_access_manager($1, 'GET_STATUS', NULL, NULL, NULL)
	`, username).Scan(&status.Code, &hashed, &locked, &secondsLeft)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LoginStatus{Found: false}, nil
		}
		return LoginStatus{}, fmt.Errorf("call sp_user_access_manager GET_STATUS: %w", err)
	}

	status.Found = true
	status.HashedPassword = hashed.String
	status.Locked = locked.Bool
	status.SecondsLeft = int(secondsLeft.Int64)

	return status, nil
}

func (r *Repository) RecordAttempt(ctx context.Context, username string, matched bool) (AttemptResult, error) {
	var res AttemptResult
	var userID sql.NullInt64
	var role, canonical, message sql.NullString
	var locked sql.NullBool
	var secondsLeft sql.NullInt64

	err := r.db.QueryRowContext(ctx, `
		SELECT res_code, res_message, user_id, role, res_username, is_locked, seconds_left
		FROM sp_user_access_manager($1, 'UPDATE_ATTEMPT', $2, NULL, NULL)
	`, username, matched).Scan(&res.Code, &message, &userID, &role, &canonical, &locked, &secondsLeft)
	if err != nil {
		return AttemptResult{}, fmt.Errorf("call sp_user_access_manager UPDATE_ATTEMPT: %w", err)
	}

	res.Message = message.String
	res.UserID = userID.Int64
	res.Role = role.String
	res.Username = canonical.String
	res.Locked = locked.Bool
	res.SecondsLeft = int(secondsLeft.Int64)

	return res, nil
}

func (r *Repository) SetOTP(ctx context.Context, email, code string) (ProcResult, error) {
	var res ProcResult
	err := r.db.QueryRowContext(ctx, `
		SELECT res_code, res_message
		FROM sp_user_access_manager($1, 'SET_OTP', NULL, $2, NULL)
	`, email, code).Scan(&res.Code, &res.Message)
	if err != nil {
		return ProcResult{}, fmt.Errorf("call sp_user_access_manager SET_OTP: %w", err)
	}

	return res, nil
}

func (r *Repository) VerifyResetOTP(ctx context.Context, email, otpInput, newHash string) (ProcResult, error) {
	var res ProcResult
	err := r.db.QueryRowContext(ctx, `
		SELECT res_code, res_message
		FROM sp_user_access_manager($1, 'VERIFY_RESET', NULL, $2, $3)
	`, email, otpInput, newHash).Scan(&res.Code, &res.Message)
	if err != nil {
		return ProcResult{}, fmt.Errorf("call sp_user_access_manager VERIFY_RESET: %w", err)
	}

	return res, nil
}

// ApplySecuritySettings pushes the env-configured lockout and OTP knobs into
// the settings row the stored procedures read, so the operator's config and
// the database enforcement never drift apart.
func (r *Repository) ApplySecuritySettings(ctx context.Context, maxAttempts int, lockDuration, otpTTL time.Duration) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tbl_auth_settings (id, max_attempts, lock_seconds, otp_ttl_seconds)
		VALUES (TRUE, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			max_attempts = EXCLUDED.max_attempts,
			lock_seconds = EXCLUDED.lock_seconds,
			otp_ttl_seconds = EXCLUDED.otp_ttl_seconds
	`, maxAttempts, int(lockDuration.Seconds()), int(otpTTL.Seconds()))
	if err != nil {
		return fmt.Errorf("apply auth settings: %w", err)
	}

	return nil
}

// ListUsers backs the admin user listing.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, email FROM tbl_users ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}
