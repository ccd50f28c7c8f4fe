package middleware

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/fleetops/fleetops/internal/api"
)

const tokenIssuer = "fleetops"

// OperatorClaims is the JWT payload of a dashboard session. The operator
// name travels in the registered subject claim.
type OperatorClaims struct {
	jwt.RegisteredClaims
}

// JWTAuthConfig configures the operator session middleware. There is a
// single operator account, supplied through the environment.
type JWTAuthConfig struct {
	Enabled           bool
	AdminUsername     string
	AdminPasswordHash string // bcrypt
	JWTSecret         string
	JWTExpiryHours    int

	// SkipPaths bypass authentication. A trailing "*" matches by prefix,
	// which covers path families like "/ws/*".
	SkipPaths []string
}

// JWTAuthMiddleware guards the operator API with bearer session tokens
type JWTAuthMiddleware struct {
	config       *JWTAuthConfig
	skipExact    map[string]struct{}
	skipPrefixes []string
}

type operatorContextKey struct{}

// NewJWTAuthMiddleware creates the middleware, splitting the skip list
// into exact paths and prefixes up front.
func NewJWTAuthMiddleware(config *JWTAuthConfig) *JWTAuthMiddleware {
	m := &JWTAuthMiddleware{
		config:    config,
		skipExact: make(map[string]struct{}),
	}
	for _, path := range config.SkipPaths {
		if strings.HasSuffix(path, "*") {
			m.skipPrefixes = append(m.skipPrefixes, strings.TrimSuffix(path, "*"))
		} else {
			m.skipExact[path] = struct{}{}
		}
	}
	return m
}

// HashPassword bcrypt-hashes the operator password for comparison at login
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword reports whether password matches the stored bcrypt hash
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken signs a session token for the operator and returns it
// together with its expiry time.
func (m *JWTAuthMiddleware) IssueToken(username string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(m.config.JWTExpiryHours) * time.Hour)

	claims := OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(m.config.JWTSecret))
	return token, expiresAt, err
}

// ValidateToken parses and verifies a session token. Only HS256 tokens
// carrying this process's issuer are accepted.
func (m *JWTAuthMiddleware) ValidateToken(tokenString string) (*OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{},
		func(*jwt.Token) (interface{}, error) {
			return []byte(m.config.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// ValidateCredentials checks a login attempt against the configured
// operator account in constant time.
func (m *JWTAuthMiddleware) ValidateCredentials(username, password string) bool {
	if subtle.ConstantTimeCompare([]byte(username), []byte(m.config.AdminUsername)) != 1 {
		return false
	}
	return CheckPassword(password, m.config.AdminPasswordHash)
}

// Wrap enforces bearer authentication on every request outside the skip
// list and stores the operator name in the request context.
func (m *JWTAuthMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.config.Enabled || m.skipped(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			m.unauthorized(w, "Missing authentication token")
			return
		}

		claims, err := m.ValidateToken(token)
		if err != nil {
			log.Printf("JWTAuthMiddleware: rejected token from %s: %v", r.RemoteAddr, err)
			m.unauthorized(w, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), operatorContextKey{}, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *JWTAuthMiddleware) skipped(path string) bool {
	if _, ok := m.skipExact[path]; ok {
		return true
	}
	for _, prefix := range m.skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func (m *JWTAuthMiddleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="API"`)
	api.RespondError(w, http.StatusUnauthorized, message)
}

// GetUserFromContext returns the operator name stored by Wrap, or "" for
// unauthenticated requests.
func GetUserFromContext(ctx context.Context) string {
	if user, ok := ctx.Value(operatorContextKey{}).(string); ok {
		return user
	}
	return ""
}
