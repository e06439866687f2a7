package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the identity the engine needs for ownership checks. Token
// issuance lives in the surrounding platform; this package only verifies.
type Claims struct {
	UserID uint64 `json:"user_id"`
	Role   string `json:"role"`

	jwt.RegisteredClaims
}

func (c Claims) IsAdmin() bool {
	return c.Role == "admin"
}

type JWT struct {
	Secret []byte
}

func (j JWT) Verify(token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return j.Secret, nil
	})
	if err != nil {
		return Claims{}, err
	}
	c, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	return *c, nil
}
