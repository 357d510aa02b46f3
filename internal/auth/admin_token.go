package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// AdminTokenVerifier checks the operator token sent with moderation requests.
type AdminTokenVerifier struct {
	hash string
}

func NewAdminTokenVerifier(hash string) *AdminTokenVerifier {
	return &AdminTokenVerifier{hash: hash}
}

// Enabled is false when no token hash is configured; every check then fails.
func (v *AdminTokenVerifier) Enabled() bool {
	return v != nil && v.hash != ""
}

func (v *AdminTokenVerifier) Verify(token string) bool {
	if !v.Enabled() || token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(v.hash), []byte(token)) == nil
}

// HashAdminToken produces the value stored in ADMIN_TOKEN_HASH.
func HashAdminToken(token string, cost int) (string, error) {
	if token == "" {
		return "", errors.New("admin token must not be empty")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
