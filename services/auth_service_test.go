package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"roomsync/auth"
	"roomsync/domain"
	rserrors "roomsync/errors"
	"roomsync/mocks"
	"roomsync/services"
)

func TestAuthService_Register_Hashes_Before_Storing(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	userRepo := mocks.NewMockIUserRepository(ctrl)
	service := services.NewAuthService(userRepo, time.Hour)

	var storedHash string
	userRepo.EXPECT().
		CreateUser("alice@example.com", "Alice", gomock.Any()).
		DoAndReturn(func(email, name, passwordHash string) (string, error) {
			storedHash = passwordHash
			return "u1", nil
		})

	// When a user registers
	token, err := service.Register("alice@example.com", "Alice", "Str0ng&Secret-Pass")
	req.NoError(err)
	req.NotEmpty(token)

	// Then the repository never saw the plain password
	req.NotEqual("Str0ng&Secret-Pass", storedHash)
	match, err := auth.ComparePassword("Str0ng&Secret-Pass", storedHash)
	req.NoError(err)
	req.True(match)

	// And the issued token resolves back to the user
	user, err := service.Verify(token.String())
	req.NoError(err)
	req.Equal(domain.User{ID: "u1", Name: "Alice"}, user)
}

func TestAuthService_Register_Rejects_Weak_Password(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	userRepo := mocks.NewMockIUserRepository(ctrl)
	service := services.NewAuthService(userRepo, time.Hour)

	// When the password fails complexity rules, storage is never touched
	_, err := service.Register("alice@example.com", "Alice", "weakpassword")

	req.ErrorIs(err, rserrors.ErrInvalidPassword)
}

func TestAuthService_Register_Propagates_Duplicate_Email(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	userRepo := mocks.NewMockIUserRepository(ctrl)
	userRepo.EXPECT().
		CreateUser(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", rserrors.ErrUserAlreadyExists)
	service := services.NewAuthService(userRepo, time.Hour)

	_, err := service.Register("alice@example.com", "Alice", "Str0ng&Secret-Pass")

	req.ErrorIs(err, rserrors.ErrUserAlreadyExists)
}

func TestAuthService_Login(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	userRepo := mocks.NewMockIUserRepository(ctrl)
	service := services.NewAuthService(userRepo, time.Hour)

	hash, err := auth.HashPassword("Str0ng&Secret-Pass")
	req.NoError(err)
	account := domain.Account{
		ID: "u1", Email: "alice@example.com", Name: "Alice",
		PasswordHash: hash, Roles: []string{"user"},
	}
	userRepo.EXPECT().GetUserByEmail("alice@example.com").Return(account, nil).AnyTimes()

	// When logging in with the right password
	token, err := service.Login("alice@example.com", "Str0ng&Secret-Pass")
	req.NoError(err)
	user, err := service.Verify(token.String())
	req.NoError(err)
	req.Equal("u1", user.ID)

	// When logging in with the wrong password
	_, err = service.Login("alice@example.com", "wrong-password")
	req.ErrorIs(err, rserrors.ErrInvalidCredentials)
}

func TestAuthService_Login_Unknown_User_Yields_Generic_Error(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	userRepo := mocks.NewMockIUserRepository(ctrl)
	userRepo.EXPECT().
		GetUserByEmail("ghost@example.com").
		Return(domain.Account{}, rserrors.ErrUserNotFound)
	service := services.NewAuthService(userRepo, time.Hour)

	// Unknown emails and wrong passwords are indistinguishable
	_, err := service.Login("ghost@example.com", "whatever")

	req.ErrorIs(err, rserrors.ErrInvalidCredentials)
}

func TestAuthService_Verify_Rejects_Garbage(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	service := services.NewAuthService(mocks.NewMockIUserRepository(ctrl), time.Hour)

	_, err := service.Verify("not-a-token")

	req.ErrorIs(err, rserrors.ErrInvalidCredentials)
}
