package apifake

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// hmacSigner signs and verifies tokens with a symmetric HMAC-SHA256 key
type hmacSigner struct {
	secret []byte
}

func newHMACSigner(secret string) *hmacSigner {
	return &hmacSigner{
		secret: []byte(secret),
	}
}

func (h *hmacSigner) Sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(h.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with HMAC")
	}
	return signedToken, nil
}

func (h *hmacSigner) verificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.secret, nil
}

// Parse verifies raw and returns its claims
func (h *hmacSigner) Parse(raw string, opts ...jwt.ParserOption) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if _, err := jwt.ParseWithClaims(raw, claims, h.verificationKey, opts...); err != nil {
		return nil, errors.Wrap(err, "invalid token")
	}
	return claims, nil
}
