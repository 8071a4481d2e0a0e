package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carevault/internal/model"
)

func TestTokenIssuer_SignVerify(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", 1)
	require.NoError(t, err)

	token, err := issuer.Sign("user-1", model.RolePatient)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, model.RolePatient, claims.Role)
}

func TestTokenIssuer_RejectsTampered(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", 1)
	require.NoError(t, err)

	token, err := issuer.Sign("user-1", model.RolePatient)
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	claims, err := issuer.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestTokenIssuer_RejectsWrongSecret(t *testing.T) {
	issuer, err := NewTokenIssuer("secret-a", 1)
	require.NoError(t, err)
	other, err := NewTokenIssuer("secret-b", 1)
	require.NoError(t, err)

	token, err := issuer.Sign("user-1", model.RoleClinician)
	require.NoError(t, err)

	claims, err := other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", 1)
	require.NoError(t, err)
	issuer.expiry = -time.Minute

	token, err := issuer.Sign("user-1", model.RolePatient)
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestNewTokenIssuer_RequiresSecret(t *testing.T) {
	_, err := NewTokenIssuer("", 1)
	assert.Error(t, err)
}
