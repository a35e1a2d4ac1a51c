package services

import (
	"errors"
	"time"

	"carebook/config"
	"carebook/internal/logger"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

const DEFAULT_TOKEN_TTL = 24 * time.Hour

type Claims struct {
	jwt.RegisteredClaims
}

// AuthService issues and validates the HS256 bearer tokens used by both the
// HTTP middleware and the websocket handshake.
type AuthService struct {
	secret []byte
	log    logger.Logger
}

func NewAuthService(config config.Config) (*AuthService, error) {
	log := logger.New("AuthService")

	if config.JWTSecret == "" {
		return nil, log.ErrMsg("JWT secret is not configured")
	}

	return &AuthService{
		secret: []byte(config.JWTSecret),
		log:    log,
	}, nil
}

// GenerateToken creates a signed token whose subject is the user ID.
func (s *AuthService) GenerateToken(userID uuid.UUID, ttl time.Duration) (string, error) {
	log := s.log.Function("GenerateToken")

	if ttl == 0 {
		ttl = DEFAULT_TOKEN_TTL
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", log.Err("failed to sign token", err, "userID", userID)
	}

	return signed, nil
}

// ValidateToken parses and verifies a token, returning the subject user ID.
func (s *AuthService) ValidateToken(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return s.secret, nil
		},
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrExpiredToken
		}
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return userID, nil
}
