// Package session tracks the signed-in user and bearer token.
package session

import (
	"slices"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JJCAR01/UX/internal/inventory"
)

// Screen identifies a navigable section of the UI.
type Screen string

const (
	ScreenDashboard Screen = "dashboard"
	ScreenInventory Screen = "inventory"
	ScreenReports   Screen = "reports"
	ScreenImport    Screen = "import"
	ScreenProfile   Screen = "profile"
)

// Title returns the menu label of the screen.
func (s Screen) Title() string {
	switch s {
	case ScreenDashboard:
		return "Dashboard"
	case ScreenInventory:
		return "Inventory"
	case ScreenReports:
		return "Reports"
	case ScreenImport:
		return "Import from Excel"
	case ScreenProfile:
		return "My Profile"
	default:
		return string(s)
	}
}

var screensByRole = map[inventory.Role][]Screen{
	inventory.RoleAdmin: {ScreenDashboard, ScreenInventory, ScreenReports, ScreenImport, ScreenProfile},
	inventory.RoleUser:  {ScreenDashboard, ScreenInventory, ScreenReports},
}

// ScreensFor returns the screens a role may open, in menu order.
func ScreensFor(role inventory.Role) []Screen {
	return slices.Clone(screensByRole[role])
}

// Session is the state of the current login. The zero value is signed out.
type Session struct {
	mu        sync.RWMutex
	token     string
	user      inventory.User
	team      string
	expiresAt time.Time
}

// Begin stores a successful login.
func (s *Session) Begin(token string, user inventory.User, team string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = token
	s.user = user
	s.team = team
	s.expiresAt = tokenExpiry(token)
}

// End clears the session.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.user = inventory.User{}
	s.team = ""
	s.expiresAt = time.Time{}
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Token returns the bearer token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the signed-in user and whether there is one.
func (s *Session) User() (inventory.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.token != ""
}

// Team returns the team chosen at login.
func (s *Session) Team() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.team
}

// ExpiresAt returns the token expiry, or the zero time if the token
// carries none.
func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// Expired reports whether the token expiry has passed at now.
func (s *Session) Expired(now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && !s.expiresAt.IsZero() && now.After(s.expiresAt)
}

// Screens returns the screens available to the signed-in user.
func (s *Session) Screens() []Screen {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return nil
	}
	return ScreensFor(s.user.Role)
}

// Allows reports whether the signed-in user may open screen.
func (s *Session) Allows(screen Screen) bool {
	return slices.Contains(s.Screens(), screen)
}

// tokenExpiry reads the exp claim without verifying the signature. The
// server remains the authority; this is only used for display and to
// sign out early.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
