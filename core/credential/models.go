package credential

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

var hashCost = bcrypt.DefaultCost

// SetHashCost changes the bcrypt cost used for new secrets (tests lower it).
func SetHashCost(cost int) { hashCost = cost }

func hashSecret(secret string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(secret), hashCost)
}

func checkSecret(hash []byte, secret string) bool {
	return len(hash) > 0 && bcrypt.CompareHashAndPassword(hash, []byte(secret)) == nil
}

// Admin is a registered administrative user. Admins are appended, never removed;
// only their secret changes afterwards.
type Admin struct {
	Identifier string    `json:"cpf"` // display form, may carry punctuation
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	SecretHash []byte    `json:"secret_hash"`
	CreatedAt  time.Time `json:"created_at"`
}

func (a Admin) Canonical() string { return Canonicalize(a.Identifier) }

func (a *Admin) SetSecret(secret string) error {
	hash, err := hashSecret(secret)
	if err != nil {
		return err
	}
	a.SecretHash = hash
	return nil
}

func (a Admin) CheckSecret(secret string) bool { return checkSecret(a.SecretHash, secret) }

// Guardian is the portal password a student's guardian chose on first access.
// Bootstrapping again for the same identifier replaces it.
type Guardian struct {
	Identifier string    `json:"cpf"`
	Email      string    `json:"email"`
	SecretHash []byte    `json:"secret_hash"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (g Guardian) Canonical() string { return Canonicalize(g.Identifier) }

func (g *Guardian) SetSecret(secret string) error {
	hash, err := hashSecret(secret)
	if err != nil {
		return err
	}
	g.SecretHash = hash
	return nil
}

func (g Guardian) CheckSecret(secret string) bool { return checkSecret(g.SecretHash, secret) }
