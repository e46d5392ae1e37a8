// Package auth checks the admin credential and issues the signed session
// tokens that guard the admin API.
//
// Nothing is kept in memory: every call loads the configuration again, so a
// rotated secret or password takes effect on the next request.
package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maruel/wcstore/internal/models"
	"github.com/maruel/wcstore/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

// TokenType is the token_type reported to clients.
const TokenType = "bearer"

// TokenService validates credentials and issues and verifies tokens.
type TokenService struct {
	config storage.ConfigSource
	now    func() time.Time
}

// NewTokenService returns a TokenService reading its configuration from src.
func NewTokenService(src storage.ConfigSource) *TokenService {
	return &TokenService{config: src, now: time.Now}
}

// Login checks username and password against the configured admin and
// returns a token for the admin with the configured lifetime.
func (s *TokenService) Login(username, password string) (string, error) {
	cfg, err := s.config.Load()
	if err != nil {
		return "", err
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Admin.Username)) == 1
	passOK := checkPassword(cfg.Admin.Password, password)
	if !userOK || !passOK {
		return "", fmt.Errorf("%w: incorrect username or password", models.ErrUnauthorized)
	}
	return sign(cfg, cfg.Admin.Username, cfg.JWT.Expiry(), s.now())
}

// IssueToken returns a token for subject valid for ttl. A zero ttl uses the
// configured lifetime; a negative one produces an already expired token.
func (s *TokenService) IssueToken(subject string, ttl time.Duration) (string, error) {
	cfg, err := s.config.Load()
	if err != nil {
		return "", err
	}
	if ttl == 0 {
		ttl = cfg.JWT.Expiry()
	}
	return sign(cfg, subject, ttl, s.now())
}

// VerifyToken returns the subject of a valid token. Every failure matches
// models.ErrUnauthorized, except a configuration that cannot be loaded.
func (s *TokenService) VerifyToken(token string) (string, error) {
	cfg, err := s.config.Load()
	if err != nil {
		return "", err
	}
	var claims jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(cfg.JWT.SecretKey), nil
	},
		jwt.WithValidMethods([]string{cfg.JWT.SigningAlgorithm()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: invalid token", models.ErrUnauthorized)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", models.ErrUnauthorized)
	}
	return claims.Subject, nil
}

func sign(cfg *storage.Config, subject string, ttl time.Duration, now time.Time) (string, error) {
	method := jwt.GetSigningMethod(cfg.JWT.SigningAlgorithm())
	if method == nil {
		return "", fmt.Errorf("unsupported signing algorithm %q", cfg.JWT.SigningAlgorithm())
	}
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(cfg.JWT.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// checkPassword compares password with stored, which is either a bcrypt hash
// or plaintext.
func checkPassword(stored, password string) bool {
	if IsBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

// IsBcryptHash reports whether s looks like a bcrypt hash.
func IsBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// HashPassword returns the bcrypt hash to store in the configuration.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header
// value.
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: missing bearer token", models.ErrUnauthorized)
	}
	return strings.TrimSpace(token), nil
}
