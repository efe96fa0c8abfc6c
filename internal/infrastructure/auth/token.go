package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/garyjia/promoter-portal/internal/application/port"
	"github.com/garyjia/promoter-portal/internal/domain/entity"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
)

const tokenIssuer = "promoter-portal"

type accessClaims struct {
	Role  string `json:"role"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWTIssuer signs HS256 access tokens
type JWTIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTIssuer creates an issuer with the given secret and token lifetime
func NewJWTIssuer(secret string, ttl time.Duration) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *JWTIssuer) Issue(p *entity.Profile) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)

	claims := accessClaims{
		Role:  string(p.Role),
		Email: p.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, ierr.WithError(err).
			WithMessage("sign access token").
			WithHint("Não foi possível iniciar a sessão.").
			Mark(ierr.ErrUnauthenticated)
	}
	return signed, expiresAt, nil
}

func (i *JWTIssuer) Parse(token string) (*port.Claims, error) {
	claims := &accessClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || claims.Subject == "" {
		return nil, ierr.NewError("invalid access token").
			WithHint("Sua sessão expirou. Faça login novamente.").
			Mark(ierr.ErrUnauthenticated)
	}

	return &port.Claims{
		UserID:    claims.Subject,
		Role:      entity.Role(claims.Role),
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Verify interface compliance
var _ port.TokenIssuer = (*JWTIssuer)(nil)
