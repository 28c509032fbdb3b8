package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "jalanria", time.Minute, time.Hour)
	userID := uuid.New()

	token, err := m.GenerateAccessToken(userID, RoleCustomer)
	require.NoError(t, err)

	claims, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, RoleCustomer, claims.Role)
}

func TestJWTManager_RejectsWrongSecret(t *testing.T) {
	issuer := NewJWTManager("secret", "jalanria", time.Minute, time.Hour)
	verifier := NewJWTManager("other", "jalanria", time.Minute, time.Hour)

	token, err := issuer.GenerateAccessToken(uuid.New(), RoleAdmin)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RejectsExpired(t *testing.T) {
	m := NewJWTManager("secret", "jalanria", -time.Minute, time.Hour)

	token, err := m.GenerateAccessToken(uuid.New(), RoleDriver)
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManager_RejectsUnknownRole(t *testing.T) {
	m := NewJWTManager("secret", "jalanria", time.Minute, time.Hour)

	token, err := m.GenerateAccessToken(uuid.New(), Role("superuser"))
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
