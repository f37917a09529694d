package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/GiftLink-io/giftlink/internal/auth"
)

type contextKey string

const subjectContextKey contextKey = "subject"

// RequireAuth verifies the bearer token and stores its subject in the
// request context. Rejection happens here, before any database read.
func (a *Api) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Token missing")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeError(w, http.StatusUnauthorized, "Token missing")
			return
		}

		subject, err := a.tokens.Verify(parts[1])
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "Token expired"
			}
			writeError(w, http.StatusUnauthorized, msg)
			return
		}

		ctx := context.WithValue(r.Context(), subjectContextKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// subjectFromContext retrieves the verified token subject.
func subjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectContextKey).(string)
	return subject, ok
}
