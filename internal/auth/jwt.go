package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pocketfolio/finance-backend/internal/errs"
)

// Claims is the verified identity carried by a bearer token.
type Claims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type TokenService struct {
	secret    []byte
	expiresIn time.Duration
	clockNow  func() time.Time
}

func NewTokenService(secret string, expiresIn time.Duration) *TokenService {
	return &TokenService{
		secret:    []byte(secret),
		expiresIn: expiresIn,
		clockNow:  time.Now,
	}
}

func (s *TokenService) Generate(uid, email string) (string, error) {
	now := s.clockNow()
	claims := Claims{
		UID:   uid,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiresIn)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates a bearer token, returning its claims.
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errs.NewUnauthorizedError("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.clockNow() }))
	if err != nil || !token.Valid {
		return nil, errs.NewUnauthorizedError("invalid or expired token")
	}
	if claims.UID == "" {
		return nil, errs.NewUnauthorizedError("token missing uid claim")
	}
	return claims, nil
}
