package service

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/TreasureHunt-org/backend/internal/domain"
	"github.com/TreasureHunt-org/backend/internal/infrastructure"
)

// IdentityService resolves the authenticated user from access tokens.
// Tokens are minted by the auth service; this service only verifies them.
type IdentityService struct {
	jwtConfig *infrastructure.JWTConfig
}

// NewIdentityService creates a new identity service
func NewIdentityService(jwtConfig *infrastructure.JWTConfig) *IdentityService {
	return &IdentityService{jwtConfig: jwtConfig}
}

// ValidateAccessToken validates an access token and returns the user ID
func (s *IdentityService) ValidateAccessToken(tokenString string) (uuid.UUID, error) {
	claims, err := s.validateToken(tokenString)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidToken
	}

	if tokenType, ok := claims["type"].(string); !ok || tokenType != "access" {
		return uuid.Nil, domain.ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, domain.ErrInvalidToken
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, domain.ErrInvalidToken
	}
	return userID, nil
}

// validateToken checks signature, expiry and issuer and returns the claims
func (s *IdentityService) validateToken(tokenString string) (jwt.MapClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.jwtConfig.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.jwtConfig.Issuer))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return []byte(s.jwtConfig.SecretKey), nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
