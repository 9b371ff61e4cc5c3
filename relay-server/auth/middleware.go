package auth

import (
	"log"
	"net/http"
	"strings"

	"telejenkins/shared/response"
)

// Middleware validates the Bearer session token and gates revoked
// tokens. Signature and expiry are the transport-boundary check;
// revocation is the Revoker's.
func Middleware(tokens *TokenService, revoker Revoker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.ValidationError(w, response.CodeTokenRevoked, "Authorization header is required")
				return
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				response.ValidationError(w, response.CodeTokenRevoked, "Invalid authorization format")
				return
			}
			tokenString := tokenParts[1]

			claims, err := tokens.ValidateToken(tokenString)
			if err != nil {
				response.ValidationError(w, response.CodeTokenRevoked, "Invalid token")
				return
			}

			revoked, err := revoker.IsRevoked(r.Context(), tokenString)
			if err != nil {
				log.Printf("❌ Revocation lookup failed: %v", err)
				response.Error(w, response.CodeTokenRevoked, "Failed to check token revocation")
				return
			}
			if revoked {
				response.Error(w, response.CodeTokenRevoked, "The provided token has been revoked. Please authenticate again.")
				return
			}

			ctx := ContextWithSession(r.Context(), claims, tokenString)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
