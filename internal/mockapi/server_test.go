package mockapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/JJCAR01/UX/internal/inventory"
)

func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	if cfg.Secret == nil {
		cfg.Secret = []byte("test-secret")
	}
	cfg.BcryptCost = bcrypt.MinCost
	srv, err := New(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func do(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func login(t *testing.T, baseURL, email, password string) string {
	t.Helper()
	resp := do(t, http.MethodPost, baseURL+"/login", "", inventory.Credentials{Email: email, Password: password})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var lr inventory.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lr))
	require.NotEmpty(t, lr.Token)
	return lr.Token
}

func TestNewRequiresSecret(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	resp := do(t, http.MethodPost, ts.URL+"/login", "", inventory.Credentials{Email: "ADMIN@inventario.com", Password: "admin123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var lr inventory.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&lr))
	assert.Equal(t, inventory.RoleAdmin, lr.User.Role)
	assert.Equal(t, "Administrador", lr.User.Name)
}

func TestLoginWrongPassword(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	resp := do(t, http.MethodPost, ts.URL+"/login", "", inventory.Credentials{Email: "admin@inventario.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Credenciales incorrectas", body["message"])
}

func TestLoginRateLimit(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	_, ts := newTestServer(t, Config{
		LoginRate:  1,
		LoginBurst: 2,
		Now:        func() time.Time { return now },
	})

	creds := inventory.Credentials{Email: "admin@inventario.com", Password: "bad"}
	assert.Equal(t, http.StatusUnauthorized, do(t, http.MethodPost, ts.URL+"/login", "", creds).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, do(t, http.MethodPost, ts.URL+"/login", "", creds).StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, do(t, http.MethodPost, ts.URL+"/login", "", creds).StatusCode)
}

func TestInventoryRequiresToken(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	assert.Equal(t, http.StatusUnauthorized, do(t, http.MethodGet, ts.URL+"/inventory", "", nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, do(t, http.MethodGet, ts.URL+"/inventory", "garbage", nil).StatusCode)
}

func TestExpiredToken(t *testing.T) {
	var clock atomic.Int64
	clock.Store(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC).UnixNano())
	_, ts := newTestServer(t, Config{
		TokenTTL: time.Minute,
		Now:      func() time.Time { return time.Unix(0, clock.Load()) },
	})

	token := login(t, ts.URL, "usuario@inventario.com", "user123")
	assert.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/inventory", token, nil).StatusCode)

	clock.Add(int64(2 * time.Minute))
	assert.Equal(t, http.StatusUnauthorized, do(t, http.MethodGet, ts.URL+"/inventory", token, nil).StatusCode)
}

func TestInventoryCRUD(t *testing.T) {
	srv, ts := newTestServer(t, Config{})
	token := login(t, ts.URL, "admin@inventario.com", "admin123")

	resp := do(t, http.MethodGet, ts.URL+"/inventory", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []inventory.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Len(t, list, len(SampleProducts()))
	assert.Equal(t, "TORN-001", list[0].Code)

	resp = do(t, http.MethodPost, ts.URL+"/inventory", token, inventory.NewProduct{
		Code: "NEW-1", Name: "Nuevo", Category: "Oficina", Quantity: 4,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created inventory.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, 6, created.ID)
	assert.Equal(t, inventory.DefaultUnit, created.Unit)
	assert.False(t, created.LastUpdated.IsZero())

	resp = do(t, http.MethodDelete, ts.URL+"/inventory/6", token, inventory.DeleteRequest{Reason: "Eliminación manual"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	dels := srv.Store().Deletions()
	require.Len(t, dels, 1)
	assert.Equal(t, "Eliminación manual", dels[0].Reason)
	assert.Equal(t, "admin@inventario.com", dels[0].By)
	assert.Len(t, srv.Store().List(), len(SampleProducts()))

	resp = do(t, http.MethodDelete, ts.URL+"/inventory/6", token, inventory.DeleteRequest{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, http.MethodDelete, ts.URL+"/inventory/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateValidation(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	token := login(t, ts.URL, "admin@inventario.com", "admin123")

	resp := do(t, http.MethodPost, ts.URL+"/inventory", token, inventory.NewProduct{Name: "No code"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body["message"], "Code")

	resp = do(t, http.MethodPost, ts.URL+"/inventory", token, inventory.NewProduct{Code: "X"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateAcceptsImportRows(t *testing.T) {
	srv, ts := newTestServer(t, Config{})
	token := login(t, ts.URL, "admin@inventario.com", "admin123")

	resp := do(t, http.MethodPost, ts.URL+"/inventory", token, inventory.NewProduct{Code: "IMP-1", Name: "Sin categoría", Quantity: 4})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/inventory", token, inventory.NewProduct{Code: "IMP-2", Name: "Ajuste", Category: "Oficina", Quantity: -2})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	products := srv.Store().List()
	require.Len(t, products, 7)
	assert.Equal(t, "", products[5].Category)
	assert.Equal(t, -2, products[6].Quantity)
}

func TestStoreIDsContinueAfterSeed(t *testing.T) {
	s := NewStore([]inventory.Product{{ID: 10}, {ID: 3}}, nil)
	p := s.Create(inventory.NewProduct{Code: "A", Name: "A", Category: "B", Unit: "cajas"})
	assert.Equal(t, 11, p.ID)
	assert.Equal(t, "cajas", p.Unit)
	assert.False(t, s.Delete(99, "", ""))
}
