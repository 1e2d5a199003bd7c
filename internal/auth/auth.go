// Package auth authenticates API requests: bearer tokens are HS256 JWTs
// carrying a subject (user id) and a role claim, checked against §4.8's
// per-transition role table by the handlers that use FromContext.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jaxxstorm/landlord/internal/contract"
)

// ErrMissingToken means the request carried no Authorization header.
var ErrMissingToken = errors.New("auth: missing bearer token")

// ErrInvalidToken means the token failed signature or claim validation.
var ErrInvalidToken = errors.New("auth: invalid token")

// Principal is the authenticated identity attached to a request context.
type Principal struct {
	UserID uuid.UUID
	Role   contract.Role
}

type claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Issuer mints bearer tokens that a Verifier with the same secret and
// issuer accepts.
type Issuer struct {
	secret []byte
	issuer string
}

// NewIssuer builds an Issuer signing with the given HMAC secret.
func NewIssuer(secret, issuer string) *Issuer {
	return &Issuer{secret: []byte(secret), issuer: issuer}
}

// Issue mints a token for userID/role, valid for ttl.
func (i *Issuer) Issue(userID uuid.UUID, role contract.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: string(role),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(i.secret)
}

// Verifier checks bearer tokens minted by Issuer.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier builds a Verifier for the given HMAC secret.
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses and validates a raw bearer token, returning its Principal.
func (v *Verifier) Verify(raw string) (*Principal, error) {
	var c claims
	token, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithIssuer(v.issuer))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if c.Role == "" {
		return nil, ErrInvalidToken
	}

	return &Principal{UserID: userID, Role: contract.Role(c.Role)}, nil
}

type contextKey int

const principalKey contextKey = 0

// WithPrincipal returns a context carrying p, exported for tests that
// need to call handlers directly without a real token.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext retrieves the Principal attached by Middleware.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}

// Middleware authenticates every request carrying a bearer token and
// attaches its Principal to the request context. It never rejects a
// request itself; handlers that require authentication call FromContext
// and fail with an apierror when no Principal is present, since
// unauthenticated access to /health and /ready must stay unaffected.
func Middleware(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			principal, err := v.Verify(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			r = r.WithContext(WithPrincipal(r.Context(), principal))
			next.ServeHTTP(w, r)
		})
	}
}
