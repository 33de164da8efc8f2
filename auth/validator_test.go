package auth

import (
	"testing"

	"github.com/stretchr/testify/require"

	rserrors "roomsync/errors"
)

func TestValidateRegister_Accepts_Complex_Password(t *testing.T) {
	req := require.New(t)

	err := ValidateRegister(RegisterRequest{
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "Str0ng&Secret-Pass",
	})

	req.NoError(err)
}

func TestValidateRegister_Rejects_Bad_Email(t *testing.T) {
	req := require.New(t)

	err := ValidateRegister(RegisterRequest{
		Email:    "not-an-email",
		Name:     "Alice",
		Password: "Str0ng&Secret-Pass",
	})

	req.Error(err)
}

func TestValidateRegister_Rejects_Short_Password(t *testing.T) {
	req := require.New(t)

	err := ValidateRegister(RegisterRequest{
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "Sh0rt&pw",
	})

	req.Error(err)
}

func TestValidateRegister_Rejects_Simple_Password(t *testing.T) {
	req := require.New(t)

	// Long enough but no uppercase, digit or symbol
	err := ValidateRegister(RegisterRequest{
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "justlowercaseletters",
	})

	req.ErrorIs(err, rserrors.ErrInvalidPassword)
}
