package auth

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sync"
	"time"
)

var errSMTPDown = errors.New("smtp connection refused")

// memStore mirrors the stored-procedure contracts in memory so the
// orchestrator and handlers can be exercised without a database. Its
// transitions follow the same rules the access-manager procedure enforces.
type memStore struct {
	mu           sync.Mutex
	users        map[string]*memUser
	nextID       int64
	maxAttempts  int
	lockDuration time.Duration
	otpTTL       time.Duration
	now          func() time.Time

	registerCalls int
	statusCalls   int
	attemptCalls  int
	setOTPCalls   int
	resetCalls    int
}

type memUser struct {
	id       int64
	username string
	email    string
	hash     string
	role     string
	failed   int
	lockTill time.Time
	otp      string
	otpExp   time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[string]*memUser),
		nextID:       1,
		maxAttempts:  5,
		lockDuration: 15 * time.Minute,
		otpTTL:       10 * time.Minute,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (m *memStore) seed(username, email, password, role string) *memUser {
	hash, err := HashPassword(password)
	if err != nil {
		panic(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	u := &memUser{
		id:       m.nextID,
		username: username,
		email:    email,
		hash:     hash,
		role:     role,
	}
	m.nextID++
	m.users[username] = u
	return u
}

func (m *memStore) byEmail(email string) *memUser {
	for _, u := range m.users {
		if u.email == email {
			return u
		}
	}
	return nil
}

func (m *memStore) Register(_ context.Context, username, email, passwordHash string) (ProcResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registerCalls++

	if _, exists := m.users[username]; exists {
		return ProcResult{Code: http.StatusConflict, Message: "Username already taken"}, nil
	}
	if m.byEmail(email) != nil {
		return ProcResult{Code: http.StatusConflict, Message: "Email already registered"}, nil
	}

	m.users[username] = &memUser{
		id:       m.nextID,
		username: username,
		email:    email,
		hash:     passwordHash,
		role:     "user",
	}
	m.nextID++

	return ProcResult{Code: http.StatusCreated, Message: "User registered successfully"}, nil
}

func (m *memStore) GetLoginStatus(_ context.Context, username string) (LoginStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusCalls++

	u, ok := m.users[username]
	if !ok {
		return LoginStatus{Found: false}, nil
	}

	now := m.now()
	if !u.lockTill.IsZero() && now.Before(u.lockTill) {
		return LoginStatus{
			Found:       true,
			Code:        http.StatusForbidden,
			Locked:      true,
			SecondsLeft: int(math.Ceil(u.lockTill.Sub(now).Seconds())),
		}, nil
	}
	if !u.lockTill.IsZero() {
		u.failed = 0
		u.lockTill = time.Time{}
	}

	return LoginStatus{Found: true, Code: http.StatusOK, HashedPassword: u.hash}, nil
}

func (m *memStore) RecordAttempt(_ context.Context, username string, matched bool) (AttemptResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attemptCalls++

	u, ok := m.users[username]
	if !ok {
		return AttemptResult{Code: http.StatusNotFound, Message: "User not found"}, nil
	}

	if matched {
		u.failed = 0
		u.lockTill = time.Time{}
		return AttemptResult{
			Code:     http.StatusOK,
			Message:  "Login successful",
			UserID:   u.id,
			Role:     u.role,
			Username: u.username,
		}, nil
	}

	if u.failed+1 >= m.maxAttempts {
		u.failed = 0
		u.lockTill = m.now().Add(m.lockDuration)
		return AttemptResult{
			Code:        http.StatusForbidden,
			Message:     "Account locked due to too many failed attempts",
			UserID:      u.id,
			Role:        u.role,
			Username:    u.username,
			Locked:      true,
			SecondsLeft: int(m.lockDuration.Seconds()),
		}, nil
	}

	u.failed++
	return AttemptResult{
		Code:     http.StatusUnauthorized,
		Message:  "Invalid username or password",
		UserID:   u.id,
		Role:     u.role,
		Username: u.username,
	}, nil
}

func (m *memStore) SetOTP(_ context.Context, email, code string) (ProcResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setOTPCalls++

	u := m.byEmail(email)
	if u == nil {
		return ProcResult{Code: http.StatusNotFound, Message: "Email not found"}, nil
	}

	u.otp = code
	u.otpExp = m.now().Add(m.otpTTL)

	return ProcResult{Code: http.StatusOK, Message: "OTP stored"}, nil
}

func (m *memStore) VerifyResetOTP(_ context.Context, email, otpInput, newHash string) (ProcResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetCalls++

	u := m.byEmail(email)
	if u == nil {
		return ProcResult{Code: http.StatusNotFound, Message: "Email not found"}, nil
	}

	if u.otp == "" || u.otp != otpInput {
		return ProcResult{Code: http.StatusBadRequest, Message: "Invalid OTP"}, nil
	}
	if u.otpExp.Before(m.now()) {
		return ProcResult{Code: http.StatusBadRequest, Message: "OTP has expired"}, nil
	}

	u.hash = newHash
	u.otp = ""
	u.otpExp = time.Time{}
	u.failed = 0
	u.lockTill = time.Time{}

	return ProcResult{Code: http.StatusOK, Message: "Password reset successful"}, nil
}

// fakeMailer records outgoing mail instead of dialing SMTP.
type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (f *fakeMailer) Send(to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}
