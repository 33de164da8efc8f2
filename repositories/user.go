package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"roomsync/domain"
	rserrors "roomsync/errors"
)

type UserRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewUserRepository(db *badger.DB, log *slog.Logger) UserRepository {
	return UserRepository{db: db, log: log}
}

type diskAccount struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	PasswordHash string   `json:"password_hash"`
	Roles        []string `json:"roles"`
}

// CreateUser stores a new account keyed by email and returns its ID.
// The write is guarded inside one transaction so two concurrent
// registrations of the same email cannot both succeed.
func (u UserRepository) CreateUser(email, name, passwordHash string) (string, error) {
	key := []byte(fmt.Sprintf("user:%s", email))
	id := uuid.NewString()
	account := diskAccount{
		ID:           id,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Roles:        []string{"user"},
	}
	bytes, err := json.Marshal(account)
	if err != nil {
		return "", err
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		_, getErr := txn.Get(key)
		if getErr == nil {
			return rserrors.ErrUserAlreadyExists
		}
		if !errors.Is(getErr, badger.ErrKeyNotFound) {
			return getErr
		}
		return txn.Set(key, bytes)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (u UserRepository) GetUserByEmail(email string) (domain.Account, error) {
	key := []byte(fmt.Sprintf("user:%s", email))
	var account diskAccount
	err := u.db.View(func(txn *badger.Txn) error {
		item, getErr := txn.Get(key)
		if errors.Is(getErr, badger.ErrKeyNotFound) {
			return rserrors.ErrUserNotFound
		}
		if getErr != nil {
			return getErr
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &account)
		})
	})
	if err != nil {
		return domain.Account{}, err
	}
	return domain.Account{
		ID:           account.ID,
		Email:        account.Email,
		Name:         account.Name,
		PasswordHash: account.PasswordHash,
		Roles:        account.Roles,
	}, nil
}
