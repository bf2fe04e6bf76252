package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quickmeds-api-server/internal/models"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("mat-khau-bi-mat")
	require.NoError(t, err)
	require.NotEqual(t, "mat-khau-bi-mat", hash)

	require.True(t, CheckPasswordHash("mat-khau-bi-mat", hash))
	require.False(t, CheckPasswordHash("sai-mat-khau", hash))
}

func TestGenerateAndParseJWT(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	token, err := svc.GenerateJWT("user-1", "rider@quickmeds.local", models.RoleDelivery, "DP-AAAA1111")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "rider@quickmeds.local", claims.Email)
	require.Equal(t, models.RoleDelivery, claims.Role)
	require.Equal(t, "DP-AAAA1111", claims.ActorID)
}

func TestParse_WrongSecret(t *testing.T) {
	svc := NewService("secret-a", time.Hour)
	token, err := svc.GenerateJWT("user-1", "a@b.c", models.RoleUser, "")
	require.NoError(t, err)

	other := NewService("secret-b", time.Hour)
	_, err = other.Parse(token)
	require.Error(t, err)
}

func TestParse_ExpiredToken(t *testing.T) {
	svc := &Service{Secret: []byte("test-secret"), Expiration: -time.Minute}
	token, err := svc.GenerateJWT("user-1", "a@b.c", models.RoleUser, "")
	require.NoError(t, err)

	_, err = svc.Parse(token)
	require.Error(t, err)
}

func TestNewService_DefaultExpiration(t *testing.T) {
	svc := NewService("s", 0)
	require.Equal(t, 24*time.Hour, svc.Expiration)
}
