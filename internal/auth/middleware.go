package auth

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sha1n/mhi-server/internal/config"
)

// Realm is announced to basic auth clients of the admin surface.
const Realm = "mhi-admin"

// APIKeyHeader carries the API key when auth type is apikey.
const APIKeyHeader = "X-API-Key"

// credentialCheck reports whether a request carries valid credentials.
type credentialCheck func(r *http.Request) bool

// Wrap protects next with the authentication scheme described by settings.
// The content routes are never wrapped: game clients send no credentials.
func Wrap(settings config.AuthSettings, next http.Handler) (http.Handler, error) {
	var check credentialCheck
	challenge := ""

	switch settings.Type {
	case config.AuthTypeNone, "":
		return next, nil
	case config.AuthTypeBasic:
		if settings.Basic.Username == "" || settings.Basic.Password == "" {
			return nil, fmt.Errorf("basic auth requires non-empty username and password")
		}
		check = basicCredentials(settings.Basic)
		challenge = fmt.Sprintf("Basic realm=%q", Realm)
	case config.AuthTypeAPIKey:
		if len(settings.APIKeys) == 0 {
			return nil, fmt.Errorf("apikey auth requires at least one API key")
		}
		check = apiKeyCredentials(settings.APIKeys)
	default:
		return nil, fmt.Errorf("unknown auth type: %s", settings.Type)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !check(r) {
			slog.Warn("Rejected admin request", "remote", r.RemoteAddr, "path", r.URL.Path, "auth_type", settings.Type)
			if challenge != "" {
				w.Header().Set("WWW-Authenticate", challenge)
			}
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	}), nil
}

func basicCredentials(settings config.BasicAuthSettings) credentialCheck {
	return func(r *http.Request) bool {
		user, pass, ok := r.BasicAuth()
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(settings.Username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(settings.Password)) == 1
		return ok && userMatch && passMatch
	}
}

// apiKeyCredentials accepts the key from the X-API-Key header or a bearer token.
func apiKeyCredentials(apiKeys []string) credentialCheck {
	return func(r *http.Request) bool {
		key := r.Header.Get(APIKeyHeader)
		if key == "" {
			if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
				key = strings.TrimSpace(token)
			}
		}
		if key == "" {
			return false
		}

		valid := false
		for _, validKey := range apiKeys {
			if subtle.ConstantTimeCompare([]byte(key), []byte(validKey)) == 1 {
				valid = true
			}
		}
		return valid
	}
}
