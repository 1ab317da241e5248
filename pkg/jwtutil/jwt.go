package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/holi87/hardware-registry/pkg/config"
)

// Token types carried in the "type" claim. Refresh tokens are accepted only
// by the refresh endpoint.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// UserClaims represents the JWT claims for user authentication
type UserClaims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// UserID parses the token subject as the user identifier
func (c *UserClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

var cfg *config.JWTConfig

// Initialize sets the JWT configuration for the package
func Initialize(jwtConfig *config.JWTConfig) {
	cfg = jwtConfig
}

// GenerateAccessToken creates a short-lived access token for the user
func GenerateAccessToken(userID uuid.UUID, email, role string) (string, error) {
	if cfg == nil {
		return "", errors.New("JWT configuration not provided")
	}
	return generate(userID, email, role, TokenTypeAccess,
		time.Duration(cfg.AccessExpirationMins)*time.Minute)
}

// GenerateRefreshToken creates a long-lived refresh token for the user
func GenerateRefreshToken(userID uuid.UUID, email, role string) (string, error) {
	if cfg == nil {
		return "", errors.New("JWT configuration not provided")
	}
	return generate(userID, email, role, TokenTypeRefresh,
		time.Duration(cfg.RefreshExpirationDays)*24*time.Hour)
}

func generate(userID uuid.UUID, email, role, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := UserClaims{
		Email:     email,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.SigningKey))
}

// ValidateToken validates and parses the JWT token, requiring the expected
// token type
func ValidateToken(tokenString, expectedType string) (*UserClaims, error) {
	if cfg == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(cfg.SigningKey), nil
		},
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != expectedType {
		return nil, errors.New("invalid token type")
	}

	return claims, nil
}
