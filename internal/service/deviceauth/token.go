package deviceauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/cardpay/internal/apperrors"
)

const (
	defaultSigningMethod = "HS256"
	defaultTokenTTL      = 365 * 24 * time.Hour
)

type DeviceClaims struct {
	jwt.RegisteredClaims
	Device string `json:"dev"`
}

// Token authenticator with sensible default
type Config struct {
	// Secret key to sign device tokens
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Lifetime of issued tokens
	// If not set than default is used
	TTL time.Duration
}

// Token accepts JWTs signed with the shared secret and bound to a device
type Token struct {
	key []byte
	alg jwt.SigningMethod
	ttl time.Duration
}

func NewToken(cfg Config) (*Token, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if _, ok := alg.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing method %q is not supported", cfg.Alg)
	}

	if cfg.TTL == 0 {
		cfg.TTL = defaultTokenTTL
	}

	return &Token{
		key: []byte(cfg.SecretKey),
		alg: alg,
		ttl: cfg.TTL,
	}, nil
}

// Issue signed token for a card reader
func (m *Token) Issue(device string, now time.Time) (token string, expiresAt time.Time, err error) {
	if device == "" {
		return "", expiresAt, errors.New("device name must not be empty")
	}

	now = now.Truncate(time.Second)
	expiresAt = now.Add(m.ttl)

	t := jwt.NewWithClaims(m.alg, DeviceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Device: device,
	})

	token, err = t.SignedString(m.key)
	if err != nil {
		return "", expiresAt, fmt.Errorf("error while signing device token. Err: %w", err)
	}

	return token, expiresAt, nil
}

func (m *Token) Authenticate(_ context.Context, credential string) error {
	claims := &DeviceClaims{}

	_, err := jwt.ParseWithClaims(
		credential,
		claims,
		func(t *jwt.Token) (any, error) {
			return m.key, nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrDeviceUnauthorized, err)
	}

	if claims.Device == "" {
		return fmt.Errorf("%w: token is not bound to a device", apperrors.ErrDeviceUnauthorized)
	}

	return nil
}
