package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken_And_Validate(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("u1", "Alice", []string{"user"}, time.Hour)
	req.NoError(err)

	claims, err := ValidateToken(token)
	req.NoError(err)
	req.Equal("u1", claims.UserID)
	req.Equal("Alice", claims.UserName)
	req.Equal([]string{"user"}, claims.Roles)
	req.Equal("roomsync", claims.Issuer)
}

func TestValidateToken_Expired(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("u1", "Alice", []string{"user"}, -time.Minute)
	req.NoError(err)

	_, err = ValidateToken(token)
	req.ErrorIs(err, jwt.ErrTokenExpired)
}

func TestValidateToken_Garbage(t *testing.T) {
	req := require.New(t)

	_, err := ValidateToken("definitely.not.a.jwt")
	req.Error(err)
}

func TestValidateToken_Tampered_Signature(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("u1", "Alice", nil, time.Hour)
	req.NoError(err)

	_, err = ValidateToken(token[:len(token)-2] + "xx")
	req.Error(err)
}
