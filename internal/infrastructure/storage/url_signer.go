package storage

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	ierr "github.com/garyjia/promoter-portal/internal/errors"
)

const downloadAudience = "portal-download"

// URLSigner issues and checks short-lived download tokens for stored objects
type URLSigner struct {
	secret []byte
	now    func() time.Time
}

// NewURLSigner creates a signer with an HMAC secret
func NewURLSigner(secret string) *URLSigner {
	return &URLSigner{secret: []byte(secret), now: time.Now}
}

// Sign returns a token granting read access to key for ttl
func (s *URLSigner) Sign(key string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   key,
		Audience:  jwt.ClaimStrings{downloadAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify returns the key a valid token grants
func (s *URLSigner) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(downloadAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("O link expirou. Solicite um novo link para visualizar o arquivo.").
			Mark(ierr.ErrPermissionDenied)
	}
	return claims.Subject, nil
}
