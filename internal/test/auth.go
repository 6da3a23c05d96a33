package test

import (
	"errors"

	pkgAuth "github.com/polkiloo/atelier/internal/pkg/auth"
)

// HasherStub provides deterministic hashing for tests.
type HasherStub struct {
	HashFn    func(string) (string, error)
	CompareFn func(string, string) error
}

// Hash returns a predictable hash for the supplied key.
func (h HasherStub) Hash(key string) (string, error) {
	if h.HashFn != nil {
		return h.HashFn(key)
	}
	return "hash:" + key, nil
}

// Compare validates key against stored hash.
func (h HasherStub) Compare(hash string, key string) error {
	if h.CompareFn != nil {
		return h.CompareFn(hash, key)
	}
	if hash != "hash:"+key {
		return errors.New("mismatch")
	}
	return nil
}

// StrategyStub issues and parses holder tokens via function overrides.
type StrategyStub struct {
	IssueFn func(string) (string, error)
	ParseFn func(string) (string, error)
	NameVal string
}

// IssueToken returns deterministic tokens for tests.
func (s StrategyStub) IssueToken(holderID string) (string, error) {
	if s.IssueFn != nil {
		return s.IssueFn(holderID)
	}
	return "token:" + holderID, nil
}

// ParseToken accepts tokens of the form token:<holder>.
func (s StrategyStub) ParseToken(token string) (string, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	const prefix = "token:"
	if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
		return "", pkgAuth.ErrInvalidToken
	}
	return token[len(prefix):], nil
}

// Name returns the strategy identifier used in tests.
func (s StrategyStub) Name() string {
	if s.NameVal != "" {
		return s.NameVal
	}
	return "stub"
}

// AdminVerifierStub accepts a single key.
type AdminVerifierStub struct {
	Key string
}

// Verify compares key with the configured one.
func (v AdminVerifierStub) Verify(key string) error {
	if v.Key == "" || key != v.Key {
		return pkgAuth.ErrInvalidAdminKey
	}
	return nil
}

var (
	_ pkgAuth.KeyHasher     = HasherStub{}
	_ pkgAuth.Strategy      = StrategyStub{}
	_ pkgAuth.AdminVerifier = AdminVerifierStub{}
)
