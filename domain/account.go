package domain

// Account is a registered user as stored by the auth collaborator.
// PasswordHash is an encoded Argon2id string, never a plain password.
type Account struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Roles        []string
}
