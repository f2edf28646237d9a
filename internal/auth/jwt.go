package auth

import (
	"errors"
	"time"

	"serwer-dokumentow/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const Issuer = "serwer-dokumentow"

var ErrMissingIdentity = errors.New("token carries no user identity")

// Verifier turns a raw bearer token into the caller identity.
type Verifier interface {
	Verify(tokenString string) (models.AuthContext, error)
}

type AppClaims struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id,omitempty"`
	jwt.RegisteredClaims
}

func (c *AppClaims) AuthContext() models.AuthContext {
	userID := c.UserID
	if userID == "" {
		userID = c.Subject
	}
	return models.AuthContext{UserID: userID, OrganizationID: c.OrganizationID}
}

func GenerateJWT(caller models.AuthContext, secret string, ttl time.Duration) (string, error) {
	if !caller.Authenticated() {
		return "", ErrMissingIdentity
	}
	now := time.Now()

	claims := &AppClaims{
		UserID:         caller.UserID,
		OrganizationID: caller.OrganizationID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func VerifyJWT(tokenString, secret string) (*AppClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*AppClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrInvalidKey
}

// HMACVerifier accepts tokens minted by GenerateJWT.
type HMACVerifier struct {
	secret string
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: secret}
}

func (v *HMACVerifier) Verify(tokenString string) (models.AuthContext, error) {
	claims, err := VerifyJWT(tokenString, v.secret)
	if err != nil {
		return models.AuthContext{}, err
	}
	caller := claims.AuthContext()
	if !caller.Authenticated() {
		return models.AuthContext{}, ErrMissingIdentity
	}
	return caller, nil
}

// Chain tries each verifier in order and returns the first identity accepted.
type Chain []Verifier

func (c Chain) Verify(tokenString string) (models.AuthContext, error) {
	err := error(jwt.ErrTokenUnverifiable)
	for _, v := range c {
		var caller models.AuthContext
		caller, err = v.Verify(tokenString)
		if err == nil {
			return caller, nil
		}
	}
	return models.AuthContext{}, err
}
