package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidAdminKey = errors.New("invalid admin key")

// KeyHasher defines hashing strategy for shared secrets.
type KeyHasher interface {
	Hash(key string) (string, error)
	Compare(hash string, key string) error
}

// BcryptHasher uses bcrypt to hash keys.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates BcryptHasher with provided cost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns bcrypt hash for provided key.
func (h *BcryptHasher) Hash(key string) (string, error) {
	encoded, err := bcrypt.GenerateFromPassword([]byte(key), h.cost)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

// Compare checks key against stored hash.
func (h *BcryptHasher) Compare(hash string, key string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key))
}

// AdminVerifier checks the privileged key presented by operators and the payment bridge.
type AdminVerifier interface {
	Verify(key string) error
}

// HashedKeyVerifier compares presented keys with a configured hash.
// An empty hash disables privileged access.
type HashedKeyVerifier struct {
	hash   string
	hasher KeyHasher
}

func NewHashedKeyVerifier(hash string, hasher KeyHasher) *HashedKeyVerifier {
	return &HashedKeyVerifier{hash: hash, hasher: hasher}
}

func (v *HashedKeyVerifier) Verify(key string) error {
	if v.hash == "" || key == "" {
		return ErrInvalidAdminKey
	}
	if err := v.hasher.Compare(v.hash, key); err != nil {
		return ErrInvalidAdminKey
	}
	return nil
}
