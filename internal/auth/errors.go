package auth

import (
	"fmt"
	"net/http"
)

// Kind classifies a failure so the transport layer can map it to a status
// code with a single lookup instead of scattered type checks.
type Kind int

const (
	KindValidation Kind = iota
	KindAuth
	KindLocked
	KindUpstream
)

var statusByKind = map[Kind]int{
	KindValidation: http.StatusBadRequest,
	KindAuth:       http.StatusUnauthorized,
	KindLocked:     http.StatusForbidden,
	KindUpstream:   http.StatusInternalServerError,
}

var nameByKind = map[Kind]string{
	KindValidation: "ValidationError",
	KindAuth:       "AuthError",
	KindLocked:     "LockedError",
	KindUpstream:   "UpstreamError",
}

// Failure is the only error type auth use cases return. Message is safe for
// clients; Err keeps the underlying cause for logging and Sentry.
type Failure struct {
	Kind        Kind
	Status      int // overrides the kind default when the stored procedure dictates a code
	Message     string
	IsLocked    bool
	SecondsLeft int
	Err         error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", nameByKind[f.Kind], f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", nameByKind[f.Kind], f.Message)
}

func (f *Failure) Unwrap() error { return f.Err }

func (f *Failure) StatusCode() int {
	if f.Status != 0 {
		return f.Status
	}
	return statusByKind[f.Kind]
}

func (f *Failure) TypeName() string { return nameByKind[f.Kind] }

func validationFailure(message string) *Failure {
	return &Failure{Kind: KindValidation, Message: message}
}

func authFailure(message string) *Failure {
	return &Failure{Kind: KindAuth, Message: message}
}

func lockedFailure(message string, secondsLeft int) *Failure {
	return &Failure{Kind: KindLocked, Message: message, IsLocked: true, SecondsLeft: secondsLeft}
}

func upstreamFailure(message string, err error) *Failure {
	return &Failure{Kind: KindUpstream, Message: message, Err: err}
}
