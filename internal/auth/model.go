package auth

// ProcResult is the common output shape of the auth stored procedures:
// a status code the orchestrator passes through verbatim, plus a message.
type ProcResult struct {
	Code    int
	Message string
}

// LoginStatus is the GET_STATUS view of an account before any password
// comparison happens. Found distinguishes "no such account" internally;
// externally both cases read as invalid credentials.
type LoginStatus struct {
	Found          bool
	Code           int
	HashedPassword string
	Locked         bool
	SecondsLeft    int
}

// AttemptResult is the atomic outcome of UPDATE_ATTEMPT. On a successful
// match the role, user id, and canonical username come from here, never
// from client input.
type AttemptResult struct {
	Code        int
	Message     string
	UserID      int64
	Role        string
	Username    string
	Locked      bool
	SecondsLeft int
}

// LoginResult is what a successful login hands back to the transport layer.
type LoginResult struct {
	Access   string `json:"access"`
	Refresh  string `json:"refresh"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// User is the admin listing row.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}
