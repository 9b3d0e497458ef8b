// Package deviceauth checks credentials presented by card readers.
//
// Readers historically send a static shared key. Signed device tokens are a
// drop-in replacement: both implement Authenticator, so the settlement path
// does not care which one is configured.
package deviceauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/nkiryanov/cardpay/internal/apperrors"
)

const (
	ModeStatic = "static"
	ModeToken  = "token"
)

type Authenticator interface {
	// Return apperrors.ErrDeviceUnauthorized (possibly wrapped) if credential is not accepted
	Authenticate(ctx context.Context, credential string) error
}

// Build authenticator for the configured mode
func New(mode string, secret string) (Authenticator, error) {
	switch mode {
	case ModeStatic, "":
		return NewStaticKey(secret)
	case ModeToken:
		return NewToken(Config{SecretKey: secret})
	default:
		return nil, fmt.Errorf("unknown device auth mode %q", mode)
	}
}

// StaticKey accepts exactly one shared key
type StaticKey struct {
	key []byte
}

func NewStaticKey(key string) (*StaticKey, error) {
	if key == "" {
		return nil, errors.New("device key must not be empty")
	}
	return &StaticKey{key: []byte(key)}, nil
}

func (s *StaticKey) Authenticate(_ context.Context, credential string) error {
	if subtle.ConstantTimeCompare(s.key, []byte(credential)) != 1 {
		return apperrors.ErrDeviceUnauthorized
	}
	return nil
}
