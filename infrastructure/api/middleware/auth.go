package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
)

// Anonymous identifies callers when authentication is disabled.
const Anonymous = "anonymous"

// APIKeyHeader carries the caller's API key.
const APIKeyHeader = "X-API-KEY"

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	apiKeys []string
	enabled bool
}

// NewAuthConfigWithKeys creates a new AuthConfig. Blank keys are ignored;
// no keys at all disables authentication.
func NewAuthConfigWithKeys(apiKeys []string) AuthConfig {
	keys := make([]string, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return AuthConfig{apiKeys: keys, enabled: len(keys) > 0}
}

// Enabled returns true if authentication is enabled.
func (c AuthConfig) Enabled() bool { return c.enabled }

// Authenticate resolves the caller of r. It returns Anonymous when
// authentication is disabled and an AuthenticationError when the request
// carries no valid key.
func (c AuthConfig) Authenticate(r *http.Request) (string, error) {
	if !c.enabled {
		return Anonymous, nil
	}

	key := requestKey(r)
	if key == "" {
		return "", NewAuthenticationError("missing API key")
	}
	for i, candidate := range c.apiKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(candidate)) == 1 {
			return keyIdentity(i), nil
		}
	}
	return "", NewAuthenticationError("invalid API key")
}

func requestKey(r *http.Request) string {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// keyIdentity names the caller after the position of its key, never the key.
func keyIdentity(i int) string {
	return "api-key-" + strconv.Itoa(i+1)
}

type callerKey struct{}

// Caller returns the identity resolved by APIKey.
func Caller(ctx context.Context) string {
	if id, ok := ctx.Value(callerKey{}).(string); ok {
		return id
	}
	return ""
}

// APIKey returns a middleware that rejects unauthenticated requests with
// 401 {"error":"Unauthorized"}.
func APIKey(config AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := config.Authenticate(r)
			if err != nil {
				WriteError(w, r, err, nil)
				return
			}
			ctx := context.WithValue(r.Context(), callerKey{}, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
