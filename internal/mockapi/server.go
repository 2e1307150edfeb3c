// Package mockapi implements an in-memory inventory REST API for local
// development and tests.
package mockapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/JJCAR01/UX/internal/inventory"
)

// Config controls a mock server.
type Config struct {
	Secret     []byte
	TokenTTL   time.Duration
	Users      []SeedUser
	Products   []inventory.Product
	LoginRate  rate.Limit
	LoginBurst int
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	Logger     *log.Logger
	Now        func() time.Time
}

// Server serves the inventory API.
type Server struct {
	store    *Store
	accounts *accounts
	limiter  *loginLimiter
	secret   []byte
	tokenTTL time.Duration
	logger   *log.Logger
	now      func() time.Time
	validate *validator.Validate
}

// New builds a server. Zero config fields fall back to the demo users,
// the sample catalogue, a one hour token and five logins per second.
func New(cfg Config) (*Server, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("mockapi: empty JWT secret")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	if cfg.Users == nil {
		cfg.Users = DefaultUsers
	}
	if cfg.Products == nil {
		cfg.Products = SampleProducts()
	}
	if cfg.LoginRate == 0 {
		cfg.LoginRate = 5
	}
	if cfg.LoginBurst <= 0 {
		cfg.LoginBurst = 5
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}

	accts, err := newAccounts(cfg.Users, cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	return &Server{
		store:    NewStore(cfg.Products, cfg.Now),
		accounts: accts,
		limiter:  newLoginLimiter(cfg.LoginRate, cfg.LoginBurst, cfg.Now),
		secret:   cfg.Secret,
		tokenTTL: cfg.TokenTTL,
		logger:   cfg.Logger,
		now:      cfg.Now,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// Store exposes the backing product table.
func (s *Server) Store() *Store {
	return s.store
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.With(s.limiter.middleware).Post("/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/inventory", s.handleList)
		r.Post("/inventory", s.handleCreate)
		r.Delete("/inventory/{id}", s.handleDelete)
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", r.Header.Get("X-Request-ID"),
			"took", s.now().Sub(start),
		)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds inventory.Credentials
	if err := readJSON(w, r, &creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if creds.Email == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	acc, err := s.accounts.check(creds.Email, creds.Password)
	if err != nil {
		s.logger.Warn("login rejected", "email", creds.Email)
		writeError(w, http.StatusUnauthorized, "Credenciales incorrectas")
		return
	}

	token, err := s.issueToken(acc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	s.logger.Info("login", "email", acc.Email, "role", acc.Role)
	writeJSON(w, http.StatusOK, inventory.LoginResponse{
		Token: token,
		User:  inventory.User{Name: acc.Name, Email: acc.Email, Role: acc.Role},
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.List())
}

// createRules are the checks applied to a new product. Category may be
// empty and quantity negative, as imported rows allow.
type createRules struct {
	Code string `validate:"required"`
	Name string `validate:"required"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var np inventory.NewProduct
	if err := readJSON(w, r, &np); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(createRules{Code: np.Code, Name: np.Name}); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	p := s.store.Create(np)
	s.logger.Info("product created", "id", p.ID, "code", p.Code)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req inventory.DeleteRequest
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	by := ""
	if c := claimsFrom(r); c != nil {
		by = c.Email
	}
	if !s.store.Delete(id, req.Reason, by) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	s.logger.Info("product deleted", "id", id, "reason", req.Reason, "by", by)
	w.WriteHeader(http.StatusNoContent)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	return fmt.Sprintf("field %s failed %s", fe.Field(), fe.Tag())
}

func readJSON(w http.ResponseWriter, r *http.Request, data any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("failed to read JSON: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must have only a single json value")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
