package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/proconnect/prowallet/internal/models"
)

const defaultSigningMethod = "HS256"

// AccessTokenClaims is what the external identity provider puts into the
// tokens it issues for this platform.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"uid"`
	Role   string    `json:"role"`
}

type Config struct {
	// SecretKey shared with the identity provider. Required.
	SecretKey string

	// JWT MAC algorithm, HS256 when not set
	Alg string
}

// Verifier validates identity-provider-issued access tokens. The billing core
// never issues credentials itself; it only trusts verified claims.
type Verifier struct {
	key string
	alg jwt.SigningMethod
}

func New(cfg Config) (*Verifier, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}
	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	return &Verifier{
		key: cfg.SecretKey,
		alg: jwt.GetSigningMethod(cfg.Alg),
	}, nil
}

// Verify parses and validates an access token and returns the caller it
// asserts.
func (v *Verifier) Verify(tokenString string) (models.User, error) {
	var user models.User
	claims := &AccessTokenClaims{}

	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) {
			return []byte(v.key), nil
		},
		jwt.WithValidMethods([]string{v.alg.Alg()}),
	)
	if err != nil {
		return user, fmt.Errorf("invalid access token. Err: %w", err)
	}

	if claims.UserID == uuid.Nil {
		return user, errors.New("access token carries no user id")
	}

	return models.User{ID: claims.UserID, Role: claims.Role}, nil
}

// Issue signs a token the way the identity provider would. Used by tests and
// local tooling only.
func (v *Verifier) Issue(user models.User, ttl time.Duration) (string, error) {
	now := time.Now().Truncate(time.Second)

	token := jwt.NewWithClaims(
		v.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			},
			UserID: user.ID,
			Role:   user.Role,
		},
	)

	signed, err := token.SignedString([]byte(v.key))
	if err != nil {
		return "", fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return signed, nil
}
