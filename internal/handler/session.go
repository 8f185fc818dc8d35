package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// sessionCookie names the cookie carrying the visitor's cart session id.
const sessionCookie = "cart_session"

type sessionKey struct{}

// SessionID returns the cart session id stored in the context, or "" when
// the request passed outside the cartSession middleware.
func SessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionKey{}).(string); ok {
		return id
	}
	return ""
}

// cartSession ensures every request carries a cart session id. First-time
// visitors get a UUID cookie; the id scopes their server-side cart and
// nothing else, so the cookie needs no signing.
func cartSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
			if _, err := uuid.Parse(c.Value); err == nil {
				id = c.Value
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int((30 * 24 * time.Hour).Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
