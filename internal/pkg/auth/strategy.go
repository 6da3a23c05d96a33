package auth

import (
	"errors"
	"time"
)

var ErrInvalidToken = errors.New("invalid auth token")

// Strategy issues and verifies holder tokens. The subject is the opaque holder id.
type Strategy interface {
	IssueToken(holderID string) (string, error)
	ParseToken(token string) (string, error)
	Name() string
}

type Options struct {
	TTL    time.Duration
	Issuer string
}
