package mockapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/JJCAR01/UX/internal/inventory"
)

type account struct {
	ID    int
	Name  string
	Email string
	Role  inventory.Role
	hash  []byte
}

// SeedUser is an account created when the server starts.
type SeedUser struct {
	Name     string
	Email    string
	Password string
	Role     inventory.Role
}

// DefaultUsers are the demo accounts of the mock server.
var DefaultUsers = []SeedUser{
	{Name: "Administrador", Email: "admin@inventario.com", Password: "admin123", Role: inventory.RoleAdmin},
	{Name: "Usuario", Email: "usuario@inventario.com", Password: "user123", Role: inventory.RoleUser},
}

type accounts struct {
	mu      sync.RWMutex
	byEmail map[string]account
	nextID  int
}

func newAccounts(seed []SeedUser, cost int) (*accounts, error) {
	a := &accounts{byEmail: make(map[string]account), nextID: 1}
	for _, u := range seed {
		if err := a.add(u, cost); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *accounts) add(u SeedUser, cost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), cost)
	if err != nil {
		return fmt.Errorf("hashing password for %s: %w", u.Email, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.byEmail[strings.ToLower(u.Email)] = account{
		ID:    a.nextID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
		hash:  hash,
	}
	a.nextID++
	return nil
}

var errBadCredentials = errors.New("invalid credentials")

func (a *accounts) check(email, password string) (account, error) {
	a.mu.RLock()
	acc, ok := a.byEmail[strings.ToLower(strings.TrimSpace(email))]
	a.mu.RUnlock()
	if !ok {
		return account{}, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return account{}, errBadCredentials
	}
	return acc, nil
}

type claims struct {
	Email string         `json:"email"`
	Name  string         `json:"name"`
	Role  inventory.Role `json:"role"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(acc account) (string, error) {
	now := s.now()
	c := claims{
		Email: acc.Email,
		Name:  acc.Name,
		Role:  acc.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(acc.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

func (s *Server) parseToken(raw string) (*claims, error) {
	c := &claims{}
	_, err := jwt.ParseWithClaims(raw, c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	return c, nil
}

type contextKey string

const claimsKey = contextKey("claims")

// requireToken rejects requests without a valid bearer token.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}

		c, err := s.parseToken(strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, c)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFrom(r *http.Request) *claims {
	c, _ := r.Context().Value(claimsKey).(*claims)
	return c
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// loginLimiter throttles login attempts per client IP.
type loginLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

func newLoginLimiter(limit rate.Limit, burst int, now func() time.Time) *loginLimiter {
	return &loginLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		idle:     5 * time.Minute,
		now:      now,
	}
}

func (l *loginLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.visitors, k)
		}
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (l *loginLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !l.allow(ip) {
			writeError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
