package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTValidator_RoundTrip(t *testing.T) {
	v, err := NewJWTValidator("secret", "nodalnet")
	require.NoError(t, err)

	token, err := v.IssueToken("editor", time.Minute)
	require.NoError(t, err)

	claims, err := v.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "editor", claims.UserID)

	ctx := WithClaims(context.Background(), claims)
	got, ok := ClaimsFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, claims, got)
}

func TestJWTValidator_Rejects(t *testing.T) {
	v, err := NewJWTValidator("secret", "nodalnet")
	require.NoError(t, err)
	other, err := NewJWTValidator("other", "nodalnet")
	require.NoError(t, err)
	wrongIssuer, err := NewJWTValidator("secret", "someone-else")
	require.NoError(t, err)

	expired, err := v.IssueToken("u", -time.Minute)
	require.NoError(t, err)
	_, err = v.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	foreign, err := other.IssueToken("u", time.Minute)
	require.NoError(t, err)
	_, err = v.ValidateToken(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)

	misissued, err := wrongIssuer.IssueToken("u", time.Minute)
	require.NoError(t, err)
	_, err = v.ValidateToken(misissued)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = NewJWTValidator("", "x")
	assert.Error(t, err)
}
