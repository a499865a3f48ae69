package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/weave-server/internal/model"
)

// Claims represents identity assertion claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"user_id"`
	TokenType string `json:"typ"`
}

// JWT implements IdentityVerifier backed by symmetric HMAC.
type JWT struct {
	secretKey string
	ttl       time.Duration
}

var _ model.IdentityVerifier = (*JWT)(nil)

const (
	identityTTL  = 5 * time.Minute
	typeIdentity = "identity"
)

// NewJWT creates a new identity verifier with the provided secret key.
func NewJWT(secretKey string) *JWT {
	return &JWT{secretKey: secretKey, ttl: identityTTL}
}

// GenerateIdentityToken creates a short-lived assertion for identity.
func (j *JWT) GenerateIdentityToken(identity model.Identity) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
		UserID:    identity.UserID,
		TokenType: typeIdentity,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign identity token: %w", err)
	}

	return tokenString, nil
}

// ParseIdentityToken validates an assertion and returns the identity it carries.
func (j *JWT) ParseIdentityToken(tokenString string) (model.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to parse identity token: %w", err)
	}
	if !token.Valid {
		return model.Identity{}, fmt.Errorf("identity token is invalid")
	}
	if claims.TokenType != typeIdentity {
		return model.Identity{}, fmt.Errorf("token type mismatch: %s", claims.TokenType)
	}
	if claims.UserID <= 0 {
		return model.Identity{}, fmt.Errorf("identity token has no user id")
	}
	return model.Identity{UserID: claims.UserID, Username: claims.Subject}, nil
}
