package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JJCAR01/UX/internal/inventory"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)
	return s
}

func TestSessionLifecycle(t *testing.T) {
	var s Session
	assert.False(t, s.Authenticated())
	assert.Nil(t, s.Screens())

	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Begin(signed(t, exp), inventory.User{Name: "Ana", Role: inventory.RoleAdmin}, "Bodega")

	assert.True(t, s.Authenticated())
	u, ok := s.User()
	assert.True(t, ok)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "Bodega", s.Team())
	assert.True(t, s.ExpiresAt().Equal(exp))
	assert.False(t, s.Expired(exp.Add(-time.Minute)))
	assert.True(t, s.Expired(exp.Add(time.Minute)))

	s.End()
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Token())
	assert.True(t, s.ExpiresAt().IsZero())
	_, ok = s.User()
	assert.False(t, ok)
}

func TestSessionOpaqueToken(t *testing.T) {
	var s Session
	s.Begin("not-a-jwt", inventory.User{Role: inventory.RoleUser}, "")

	assert.True(t, s.Authenticated())
	assert.True(t, s.ExpiresAt().IsZero())
	assert.False(t, s.Expired(time.Now().Add(1000*time.Hour)))
}

func TestScreensByRole(t *testing.T) {
	var s Session
	s.Begin("tok", inventory.User{Role: inventory.RoleAdmin}, "")
	assert.Equal(t, []Screen{ScreenDashboard, ScreenInventory, ScreenReports, ScreenImport, ScreenProfile}, s.Screens())
	assert.True(t, s.Allows(ScreenImport))

	s.Begin("tok", inventory.User{Role: inventory.RoleUser}, "")
	assert.Equal(t, []Screen{ScreenDashboard, ScreenInventory, ScreenReports}, s.Screens())
	assert.False(t, s.Allows(ScreenImport))
	assert.False(t, s.Allows(ScreenProfile))

	s.End()
	assert.False(t, s.Allows(ScreenDashboard))
}

func TestScreensForReturnsCopy(t *testing.T) {
	a := ScreensFor(inventory.RoleAdmin)
	a[0] = "mutated"
	assert.Equal(t, ScreenDashboard, ScreensFor(inventory.RoleAdmin)[0])
}
