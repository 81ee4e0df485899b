package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims *Claims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func testClaims(expiresIn time.Duration) *Claims {
	return &Claims{
		UserID:   7,
		Email:    "student@cupuri.edu",
		RoleType: "student",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "cupuri-portal",
		},
	}
}

func TestValidateToken(t *testing.T) {
	svc := NewJWTService(JWTConfig{SecretKey: testSecret, TokenIssuer: "cupuri-portal"})

	tokenString := signToken(t, testClaims(time.Hour), testSecret)

	claims, err := svc.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "student", claims.RoleType)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewJWTService(JWTConfig{SecretKey: testSecret})

	tokenString := signToken(t, testClaims(-time.Minute), testSecret)

	_, err := svc.ValidateToken(tokenString)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := NewJWTService(JWTConfig{SecretKey: testSecret})

	tokenString := signToken(t, testClaims(time.Hour), "other-secret")

	_, err := svc.ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestValidateTokenWrongIssuer(t *testing.T) {
	svc := NewJWTService(JWTConfig{SecretKey: testSecret, TokenIssuer: "cupuri-portal"})

	claims := testClaims(time.Hour)
	claims.Issuer = "someone-else"
	tokenString := signToken(t, claims, testSecret)

	_, err := svc.ValidateToken(tokenString)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenEmpty(t *testing.T) {
	svc := NewJWTService(JWTConfig{SecretKey: testSecret})

	_, err := svc.ValidateToken("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	token, err := ExtractBearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = ExtractBearerToken("")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = ExtractBearerToken("abc.def.ghi")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}
