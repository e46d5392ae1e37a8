package handlers

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/maruel/wcstore/internal/auth"
	apierrors "github.com/maruel/wcstore/internal/errors"
	"github.com/maruel/wcstore/internal/models"
	"github.com/maruel/wcstore/internal/server/ipgeo"
	"github.com/maruel/wcstore/internal/server/reqctx"
)

// AuthHandler handles admin authentication requests.
type AuthHandler struct {
	tokens *auth.TokenService
	geo    *ipgeo.Checker
}

// NewAuthHandler creates a new auth handler. geo may be nil.
func NewAuthHandler(tokens *auth.TokenService, geo *ipgeo.Checker) *AuthHandler {
	return &AuthHandler{tokens: tokens, geo: geo}
}

// LoginRequest is a request to log in.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate requires both fields.
func (r *LoginRequest) Validate() error {
	if strings.TrimSpace(r.Username) == "" || r.Password == "" {
		return apierrors.BadRequest("username and password are required")
	}
	return nil
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// VerifyRequest is a request with no parameters; the token is checked by the
// admin guard.
type VerifyRequest struct{}

// VerifyResponse confirms the token.
type VerifyResponse struct {
	Valid    bool   `json:"valid"`
	Username string `json:"username"`
}

// Login exchanges the admin credential for a token.
func (h *AuthHandler) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	ip := reqctx.ClientIP(ctx)
	country := h.geo.CountryCode(ip)
	token, err := h.tokens.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			slog.WarnContext(ctx, "Login failed", "ip", ip, "country", country, "ua", reqctx.UserAgent(ctx))
		}
		return nil, err
	}
	slog.InfoContext(ctx, "Login", "ip", ip, "country", country, "ua", reqctx.UserAgent(ctx))
	return &LoginResponse{AccessToken: token, TokenType: auth.TokenType}, nil
}

// Verify reports the subject of the token accepted by the admin guard.
func (h *AuthHandler) Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	sub := reqctx.Subject(ctx)
	if sub == "" {
		return nil, apierrors.Unauthorized()
	}
	return &VerifyResponse{Valid: true, Username: sub}, nil
}
