package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultAccessTTL  = 24 * time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
)

var (
	// ErrTokenExpired means the token was well formed and correctly signed
	// but its expiry is in the past. Clients can remediate with a refresh.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenInvalid covers every structural problem: wrong algorithm,
	// bad signature, missing claims. Clients must log in again.
	ErrTokenInvalid = errors.New("token is invalid")
)

type TokenConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Claims is the identity a verified token carries. Role and user id always
// come from the persisted record at issuance time, never from client input.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies stateless HS256 tokens. Refresh tokens
// are never rotated or revoked server side; a leaked refresh token stays
// valid until its own expiry. Accepted limitation of the stateless design.
type TokenService struct {
	cfg TokenConfig
}

func NewTokenService(cfg TokenConfig) *TokenService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	return &TokenService{cfg: cfg}
}

// Issue mints the access/refresh pair for a user.
func (t *TokenService) Issue(userID int64, role string) (access string, refresh string, err error) {
	access, err = t.sign(userID, role, t.cfg.AccessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = t.sign(userID, role, t.cfg.RefreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// VerifyAccess validates signature and expiry, distinguishing expired from
// structurally invalid tokens because callers surface different messages.
func (t *TokenService) VerifyAccess(token string) (Claims, error) {
	return t.verify(token)
}

// Refresh verifies a refresh token and mints a fresh access token carrying
// the same identity.
func (t *TokenService) Refresh(refreshToken string) (string, error) {
	claims, err := t.verify(refreshToken)
	if err != nil {
		return "", err
	}

	role := claims.Role
	if role == "" {
		role = "user"
	}
	return t.sign(claims.UserID, role, t.cfg.AccessTTL)
}

func (t *TokenService) sign(userID int64, role string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.cfg.Secret)
}

func (t *TokenService) verify(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(token *jwt.Token) (any, error) {
		return t.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if !parsed.Valid {
		return Claims{}, ErrTokenInvalid
	}

	return claims, nil
}
