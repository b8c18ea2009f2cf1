package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAccessToken_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)

	token, expiresAt, err := svc.GenerateAccessToken("emp-1", true)
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	parsed, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
	require.NoError(t, err)

	ctx := jwtauth.NewContext(context.Background(), parsed, nil)
	claims, err := ClaimsFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", claims.EmployeeID)
	assert.True(t, claims.IsAdmin)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	token, _, err := NewJWTService("secret-a", time.Hour).GenerateAccessToken("emp-1", false)
	require.NoError(t, err)

	_, err = jwtauth.VerifyToken(NewJWTService("secret-b", time.Hour).JWTAuth(), token)
	assert.Error(t, err)
}

func TestClaimsFromContext_Missing(t *testing.T) {
	_, err := ClaimsFromContext(context.Background())
	assert.ErrorIs(t, err, ErrInvalidToken)
}
