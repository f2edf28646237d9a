package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"serwer-dokumentow/internal/models"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims is the subset of identity-provider claims the tree needs:
// the subject and the active organization, if any.
type IdentityClaims struct {
	OrgID string `json:"org_id,omitempty"`
	jwt.RegisteredClaims
}

// JWKSVerifier checks identity-provider tokens against a remote key set.
// Keys are cached and refreshed by keyfunc.
type JWKSVerifier struct {
	jwks   keyfunc.Keyfunc
	parser *jwt.Parser
	logger *slog.Logger
}

func NewJWKSVerifier(ctx context.Context, jwksURL string, logger *slog.Logger) (*JWKSVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("weryfikator JWKS gotowy", "jwks_url", jwksURL)
	return newJWKSVerifier(jwks, logger), nil
}

func newJWKSVerifier(jwks keyfunc.Keyfunc, logger *slog.Logger) *JWKSVerifier {
	return &JWKSVerifier{
		jwks:   jwks,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"RS256", "ES256"}), jwt.WithExpirationRequired()),
		logger: logger,
	}
}

func (v *JWKSVerifier) Verify(tokenString string) (models.AuthContext, error) {
	token, err := v.parser.ParseWithClaims(tokenString, &IdentityClaims{}, v.jwks.Keyfunc)
	if err != nil {
		v.logger.Debug("odrzucono token dostawcy tożsamości", "error", err)
		return models.AuthContext{}, err
	}

	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid {
		return models.AuthContext{}, jwt.ErrTokenInvalidClaims
	}
	if claims.Subject == "" {
		return models.AuthContext{}, ErrMissingIdentity
	}

	return models.AuthContext{UserID: claims.Subject, OrganizationID: claims.OrgID}, nil
}
