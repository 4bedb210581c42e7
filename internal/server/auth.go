package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// AnonymousUser owns routes planned without an identity.
const AnonymousUser = "anonymous"

// UserHeader carries the caller's user ID when tokens are not JWTs.
const UserHeader = "X-User-ID"

var (
	errMissingAuth   = errors.New("missing authorization header")
	errInvalidScheme = errors.New("invalid authorization scheme")
	errInvalidToken  = errors.New("invalid token")
)

// Authenticator resolves the user behind a request.
type Authenticator interface {
	Authenticate(r *http.Request) (userID string, err error)
}

// TokenAuthenticator checks a shared bearer token and trusts the X-User-ID
// header for identity. An empty Token disables the check.
type TokenAuthenticator struct {
	Token string
}

func (a TokenAuthenticator) Authenticate(r *http.Request) (string, error) {
	if a.Token != "" {
		provided, err := bearer(r)
		if err != nil {
			return "", err
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(a.Token)) != 1 {
			return "", errInvalidToken
		}
	}
	if user := strings.TrimSpace(r.Header.Get(UserHeader)); user != "" {
		return user, nil
	}
	return AnonymousUser, nil
}

// JWTAuthenticator verifies HS256 bearer tokens and takes the user ID from
// the subject claim.
type JWTAuthenticator struct {
	secret []byte
}

// NewJWTAuthenticator returns an authenticator for tokens signed with secret.
func NewJWTAuthenticator(secret string) *JWTAuthenticator {
	return &JWTAuthenticator{secret: []byte(secret)}
}

func (a *JWTAuthenticator) Authenticate(r *http.Request) (string, error) {
	raw, err := bearer(r)
	if err != nil {
		return "", err
	}
	var claims jwt.RegisteredClaims
	_, err = jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: token has expired", errInvalidToken)
		}
		return "", errInvalidToken
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", errInvalidToken)
	}
	return claims.Subject, nil
}

func bearer(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", errMissingAuth
	}
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", errInvalidScheme
	}
	return strings.TrimPrefix(auth, "Bearer "), nil
}

type userKey struct{}

// WithUser returns a context carrying userID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFromContext returns the authenticated user, or AnonymousUser.
func UserFromContext(ctx context.Context) string {
	if u, ok := ctx.Value(userKey{}).(string); ok && u != "" {
		return u
	}
	return AnonymousUser
}

// AuthMiddleware authenticates every request except GET /v1/health and
// GET /metrics and stores the user in the request context. A nil
// authenticator lets everything through as AnonymousUser.
func AuthMiddleware(auth Authenticator, next http.Handler) http.Handler {
	if auth == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && (r.URL.Path == "/v1/health" || r.URL.Path == "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		user, err := auth.Authenticate(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}
