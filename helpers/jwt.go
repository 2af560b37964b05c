package helpers

import (
	"errors"
	"time"

	"github.com/cristalhq/jwt/v5"
)

// ErrInvalidToken is returned for malformed, forged or expired tokens
var ErrInvalidToken = errors.New("invalid token")

// Tokens signs and checks the JSON Web Tokens carrying an account id
type Tokens struct {
	signer   jwt.Signer
	verifier jwt.Verifier
	issuer   string
	lifetime time.Duration
	now      func() time.Time
}

// NewTokens creates a HS512 token helper from a shared secret
func NewTokens(secret, issuer string, lifetime time.Duration) (*Tokens, error) {
	signer, err := jwt.NewSignerHS(jwt.HS512, []byte(secret))
	if err != nil {
		return nil, err
	}

	verifier, err := jwt.NewVerifierHS(jwt.HS512, []byte(secret))
	if err != nil {
		return nil, err
	}

	return &Tokens{
		signer:   signer,
		verifier: verifier,
		issuer:   issuer,
		lifetime: lifetime,
		now:      time.Now,
	}, nil
}

// CreateToken allows to create JWT tokens
func (t *Tokens) CreateToken(subject string) (string, error) {
	now := t.now().UTC()

	token, err := jwt.NewBuilder(t.signer).Build(&jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.lifetime)),
		Issuer:    t.issuer,
	})
	if err != nil {
		return "", err
	}

	return token.String(), nil
}

// CheckToken verifies the signature and validity window
// and returns the subject of the token
func (t *Tokens) CheckToken(token string) (string, error) {
	var claims jwt.RegisteredClaims
	if err := jwt.ParseClaims([]byte(token), t.verifier, &claims); err != nil {
		return "", ErrInvalidToken
	}

	if !claims.IsValidAt(t.now()) || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
