// Package auth guards the dashboard behind a shared password and a signed session cookie.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ignite/summit-insights/internal/pkg/logger"
)

const (
	DefaultMaxAttempts   = 5
	DefaultAttemptWindow = 15 * time.Minute
	DefaultSessionTTL    = 24 * time.Hour
	DefaultCookieName    = "summit_session"

	sessionSubject = "dashboard"
	sessionIssuer  = "summit-insights"
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrLockedOut       = errors.New("locked out")
	ErrInvalidSession  = errors.New("invalid session")
)

// Options configure a Gate.
type Options struct {
	Password string
	// SessionSecret signs session tokens. When empty a random secret is generated, which
	// logs everyone out on restart.
	SessionSecret string
	CookieName    string
	SessionTTL    time.Duration
	// SecureCookie sets the Secure attribute; disable only for plain-HTTP development.
	SecureCookie bool
	Limiter      *Limiter
	Now          func() time.Time
}

// Gate checks the shared password and issues and verifies session tokens.
type Gate struct {
	passwordSum  [sha256.Size]byte
	secret       []byte
	cookieName   string
	ttl          time.Duration
	secureCookie bool
	limiter      *Limiter
	now          func() time.Time
}

// NewGate validates opts and fills defaults.
func NewGate(opts Options) (*Gate, error) {
	if opts.Password == "" {
		return nil, errors.New("dashboard password is not configured")
	}

	secret := []byte(opts.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generating session secret: %w", err)
		}
		logger.Warn("no session secret configured, sessions will not survive a restart")
	}

	g := &Gate{
		passwordSum:  sha256.Sum256([]byte(opts.Password)),
		secret:       secret,
		cookieName:   opts.CookieName,
		ttl:          opts.SessionTTL,
		secureCookie: opts.SecureCookie,
		limiter:      opts.Limiter,
		now:          opts.Now,
	}
	if g.cookieName == "" {
		g.cookieName = DefaultCookieName
	}
	if g.ttl <= 0 {
		g.ttl = DefaultSessionTTL
	}
	if g.limiter == nil {
		g.limiter = NewLimiter(NewMemoryAttemptStore(), DefaultMaxAttempts, DefaultAttemptWindow)
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g, nil
}

// checkPassword compares digests so neither content nor length leaks through timing.
func (g *Gate) checkPassword(candidate string) bool {
	sum := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(sum[:], g.passwordSum[:]) == 1
}

// Login verifies password for the client identified by clientKey and returns a signed
// session token. Locked-out clients get a *LockedOutError without the password being
// checked.
func (g *Gate) Login(ctx context.Context, clientKey, password string) (string, time.Time, error) {
	left, err := g.limiter.Reserve(ctx, clientKey)
	if err != nil {
		return "", time.Time{}, err
	}

	if !g.checkPassword(password) {
		logger.Warn("dashboard login failed", "client", clientKey, "attempts_left", left)
		return "", time.Time{}, ErrInvalidPassword
	}

	if err := g.limiter.Reset(ctx, clientKey); err != nil {
		logger.Error("resetting login attempts", "client", clientKey, "err", err)
	}
	return g.IssueToken()
}

// IssueToken signs a new session token.
func (g *Gate) IssueToken() (string, time.Time, error) {
	now := g.now()
	expires := now.Add(g.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   sessionSubject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing session: %w", err)
	}
	return token, expires, nil
}

// Verify checks the signature, issuer, subject and expiry of a session token.
func (g *Gate) Verify(token string) error {
	if token == "" {
		return ErrInvalidSession
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return g.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithSubject(sessionSubject),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.ExpiresAt == nil {
		return fmt.Errorf("%w: no expiry", ErrInvalidSession)
	}
	return nil
}

// IsAuthenticated reports whether the request carries a valid session cookie.
func (g *Gate) IsAuthenticated(r *http.Request) bool {
	c, err := r.Cookie(g.cookieName)
	if err != nil {
		return false
	}
	return g.Verify(c.Value) == nil
}

// RequireAuth rejects requests without a valid session.
func (g *Gate) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.IsAuthenticated(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (g *Gate) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(g.ttl.Seconds()),
		HttpOnly: true,
		Secure:   g.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (g *Gate) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClientKey identifies the caller for rate limiting. It expects chi's RealIP middleware to
// have already rewritten RemoteAddr from X-Forwarded-For / X-Real-IP.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
