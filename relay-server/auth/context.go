package auth

import (
	"context"
)

type contextKey string

const sessionClaimsContextKey contextKey = "sessionClaims"

const tokenContextKey contextKey = "sessionToken"

func ContextWithSession(ctx context.Context, claims *SessionClaims, token string) context.Context {
	ctx = context.WithValue(ctx, sessionClaimsContextKey, claims)
	return context.WithValue(ctx, tokenContextKey, token)
}

func SessionClaimsFromContext(ctx context.Context) (*SessionClaims, bool) {
	claims, ok := ctx.Value(sessionClaimsContextKey).(*SessionClaims)
	return claims, ok
}

// TokenFromContext returns the raw bearer token the middleware
// accepted, for handlers that act on the token itself (revocation).
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey).(string)
	return token, ok
}
