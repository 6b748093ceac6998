package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TreasureHunt-org/backend/internal/domain"
	"github.com/TreasureHunt-org/backend/internal/infrastructure"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestValidateAccessToken(t *testing.T) {
	svc := NewIdentityService(&infrastructure.JWTConfig{SecretKey: "secret", Issuer: "treasure-hunt"})
	userID := uuid.New()
	now := time.Now()

	valid := jwt.MapClaims{
		"sub":  userID.String(),
		"type": "access",
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
		"iss":  "treasure-hunt",
	}

	got, err := svc.ValidateAccessToken(signToken(t, "secret", valid))
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	tests := []struct {
		name   string
		secret string
		mutate func(jwt.MapClaims)
	}{
		{name: "wrong secret", secret: "other", mutate: func(jwt.MapClaims) {}},
		{name: "refresh token", secret: "secret", mutate: func(c jwt.MapClaims) { c["type"] = "refresh" }},
		{name: "expired", secret: "secret", mutate: func(c jwt.MapClaims) { c["exp"] = now.Add(-time.Minute).Unix() }},
		{name: "foreign issuer", secret: "secret", mutate: func(c jwt.MapClaims) { c["iss"] = "someone-else" }},
		{name: "subject not a uuid", secret: "secret", mutate: func(c jwt.MapClaims) { c["sub"] = "42" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := jwt.MapClaims{}
			for k, v := range valid {
				claims[k] = v
			}
			tt.mutate(claims)

			_, err := svc.ValidateAccessToken(signToken(t, tt.secret, claims))
			assert.ErrorIs(t, err, domain.ErrInvalidToken)
		})
	}
}
