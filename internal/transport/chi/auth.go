package chi

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// publicPaths bypass authentication.
var publicPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware rejects requests without one of apiKeys as a Bearer
// token. Empty keys are ignored; with no keys left, every request passes.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(keys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := publicPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, err := bearerToken(r)
			if err != "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="fundsearch"`)
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, err)
				return
			}
			if !knownKey(keys, token) {
				w.Header().Set("WWW-Authenticate", `Bearer realm="fundsearch", error="invalid_token"`)
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken returns the token, or a client-facing reason it is unusable.
func bearerToken(r *http.Request) (string, string) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "authorization header must use Bearer scheme"
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "empty bearer token"
	}
	return token, ""
}

func knownKey(keys [][]byte, token string) bool {
	found := 0
	for _, k := range keys {
		found |= subtle.ConstantTimeCompare(k, []byte(token))
	}
	return found == 1
}
