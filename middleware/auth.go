package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

// Define a key type for context values to avoid collisions
type contextKey string

const (
	// SubjectKey is the key used to store the token subject in the request context
	SubjectKey contextKey = "subject"
)

// Subject returns the verified token subject stored by JWTMiddleware, or "".
func Subject(ctx context.Context) string {
	sub, _ := ctx.Value(SubjectKey).(string)
	return sub
}

// JWTMiddleware verifies the HS256 bearer token from the Authorization header.
// Tokens are issued elsewhere; this service only checks them.
func JWTMiddleware(secret string, logger *slog.Logger) mux.MiddlewareFunc {
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. Get the token from the Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				writeError(w, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
				return
			}

			// 2. Parse and validate the token
			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return key, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil {
				logger.WarnContext(r.Context(), "token validation failed", "error", err)
				switch {
				case errors.Is(err, jwt.ErrTokenMalformed):
					writeError(w, http.StatusUnauthorized, "Malformed token")
				case errors.Is(err, jwt.ErrTokenSignatureInvalid):
					writeError(w, http.StatusUnauthorized, "Invalid token signature")
				case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
					writeError(w, http.StatusUnauthorized, "Token is either expired or not active yet")
				default:
					writeError(w, http.StatusUnauthorized, "Couldn't handle this token")
				}
				return
			}

			// 3. Expose the subject to handlers
			if sub, err := token.Claims.GetSubject(); err == nil && sub != "" {
				r = r.WithContext(context.WithValue(r.Context(), SubjectKey, sub))
			}

			next.ServeHTTP(w, r)
		})
	}
}
