package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pocketfolio/finance-backend/internal/auth"
)

// Principal is the verified identity attached to a request by BearerAuth.
// Handlers receive it by value and never re-derive trust from raw claims.
type Principal struct {
	UID   string
	Email string
}

type tokenVerifier interface {
	Verify(tokenStr string) (*auth.Claims, error)
}

type Middleware struct {
	Tokens tokenVerifier
}

func NewMiddleware(tokens tokenVerifier) *Middleware {
	return &Middleware{Tokens: tokens}
}

type contextKey string

const principalKey contextKey = "principal"

// BearerAuth verifies the Authorization header and stores the resulting
// Principal in the request context.
func (m *Middleware) BearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			http.Error(w, "missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			http.Error(w, "invalid Authorization header", http.StatusUnauthorized)
			return
		}

		claims, err := m.Tokens.Verify(parts[1])
		if err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}

		ctx := WithPrincipal(r.Context(), Principal{UID: claims.UID, Email: claims.Email})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithPrincipal stores a verified principal in the context. Outside this
// package it is only meant for handler tests.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom extracts the verified principal. The zero value means the
// request never passed BearerAuth.
func PrincipalFrom(ctx context.Context) Principal {
	p, _ := ctx.Value(principalKey).(Principal)
	return p
}
