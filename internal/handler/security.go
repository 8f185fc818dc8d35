package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"net/http"
)

// adminAuth guards operator routes with a single shared capability token.
// This is a placeholder for a real credential system: one secret, no
// identities, no scopes. The comparison is hardened against timing
// side-channels by comparing HMAC digests rather than raw strings.
type adminAuth struct {
	pepper []byte
	digest []byte
}

func newAdminAuth(key, pepper string) *adminAuth {
	a := &adminAuth{pepper: []byte(pepper)}
	if key != "" {
		a.digest = a.mac(key)
	}
	return a
}

func (a *adminAuth) mac(key string) []byte {
	m := hmac.New(sha256.New, a.pepper)
	m.Write([]byte(key))
	return m.Sum(nil)
}

// middleware rejects requests that do not present the admin key via the
// X-Admin-Key header or the legacy "key" query parameter.
func (a *adminAuth) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(a.digest) == 0 {
			// No key configured: admin surface is disabled outright
			// rather than left open.
			writeError(w, http.StatusForbidden, "admin access disabled")
			return
		}

		presented := r.Header.Get("X-Admin-Key")
		if presented == "" {
			presented = r.URL.Query().Get("key")
		}

		// hmac.Equal is constant-time; hashing first also equalizes
		// lengths so no length oracle remains.
		if presented == "" || !hmac.Equal(a.mac(presented), a.digest) {
			writeError(w, http.StatusForbidden, "unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}
