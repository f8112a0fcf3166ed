package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/rtodesk/rto-records/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func clerkUser() *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		Username: "clerk.mysuru",
		Email:    "clerk.mysuru@rto.example",
		Role:     models.RoleClerk,
	}
}

func TestNewService_Defaults(t *testing.T) {
	service, err := NewService()
	require.NoError(t, err)
	assert.NotEmpty(t, service.secret)
	assert.Equal(t, 24*time.Hour, service.tokenTTL)
}

func TestNewService_ExpiryFromEnv(t *testing.T) {
	t.Setenv("JWT_EXPIRY", "2h")
	service, err := NewService()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, service.tokenTTL)
}

func TestService_PasswordHashing(t *testing.T) {
	service, _ := NewService()

	hash, err := service.HashPassword("counter2025")
	require.NoError(t, err)
	assert.NotEqual(t, "counter2025", hash)

	assert.True(t, service.CheckPassword("counter2025", hash))
	assert.False(t, service.CheckPassword("counter2026", hash))
	assert.False(t, service.CheckPassword("counter2025", "not-a-hash"))
}

func TestService_TokenRoundTrip(t *testing.T) {
	service, _ := NewService()
	user := clerkUser()

	token, err := service.GenerateToken(user)
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, "clerk.mysuru", claims.Username)
	assert.Equal(t, models.RoleClerk, claims.Role)
	assert.Greater(t, claims.Exp, time.Now().Unix())

	// bearer prefix is tolerated
	claims, err = service.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
}

func TestService_ValidateToken_Expired(t *testing.T) {
	t.Setenv("JWT_EXPIRY", "-1h")
	service, _ := NewService()

	token, err := service.GenerateToken(clerkUser())
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestService_ValidateToken_Garbage(t *testing.T) {
	service, _ := NewService()

	for _, in := range []string{"", "not-a-token", "a.b.c"} {
		_, err := service.ValidateToken(in)
		assert.ErrorIs(t, err, ErrInvalidToken, "input %q", in)
	}
}

func TestService_ValidateToken_WrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "office-secret-1")
	service, _ := NewService()
	token, err := service.GenerateToken(clerkUser())
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "office-secret-2")
	other, _ := NewService()
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_ValidateToken_ForeignIssuer(t *testing.T) {
	t.Setenv("JWT_SECRET", "office-secret-1")
	service, _ := NewService()

	// same secret, but not a token this service issued
	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Username: "clerk.mysuru",
		Role:     models.RoleClerk,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   primitive.NewObjectID().Hex(),
			Issuer:    "some-other-system",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := foreign.SignedString([]byte("office-secret-1"))
	require.NoError(t, err)

	_, err = service.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_ValidateToken_UnknownRole(t *testing.T) {
	service, _ := NewService()
	user := clerkUser()
	user.Role = "superuser"

	token, err := service.GenerateToken(user)
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_GenerateRefreshToken(t *testing.T) {
	service, _ := NewService()

	first, err := service.GenerateRefreshToken()
	require.NoError(t, err)
	second, err := service.GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestService_ExtractTokenFromHeader(t *testing.T) {
	service, _ := NewService()

	token, err := service.ExtractTokenFromHeader("Bearer abc123")
	assert.NoError(t, err)
	assert.Equal(t, "abc123", token)

	for _, header := range []string{"", "abc123", "Bearer", "Bearer ", "Basic abc123"} {
		_, err := service.ExtractTokenFromHeader(header)
		assert.ErrorIs(t, err, ErrInvalidToken, "header %q", header)
	}
}

func TestService_ValidateUsername(t *testing.T) {
	service, _ := NewService()

	for _, valid := range []string{"clerk1", "clerk.mysuru", "rto-desk_03", "a1b"} {
		assert.NoError(t, service.ValidateUsername(valid), valid)
	}
	for _, invalid := range []string{"ab", "Clerk1", "clerk one", ".clerk", ""} {
		assert.Error(t, service.ValidateUsername(invalid), invalid)
	}
}

func TestService_ValidateEmail(t *testing.T) {
	service, _ := NewService()

	assert.NoError(t, service.ValidateEmail("clerk.mysuru@rto.example"))
	for _, invalid := range []string{"", "clerk", "clerk@rto", "clerk rto@x.y", "@rto.example"} {
		assert.Error(t, service.ValidateEmail(invalid), invalid)
	}
}

func TestService_ValidatePassword(t *testing.T) {
	service, _ := NewService()

	assert.NoError(t, service.ValidatePassword("counter2025"))
	// too short
	assert.Error(t, service.ValidatePassword("abc1"))
	// no digit
	assert.Error(t, service.ValidatePassword("counterpass"))
}
