// Package app wires the session, product cache, view machine and import
// staging into a single controller driven by the UI.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"github.com/JJCAR01/UX/internal/cache"
	"github.com/JJCAR01/UX/internal/importer"
	"github.com/JJCAR01/UX/internal/inventory"
	"github.com/JJCAR01/UX/internal/session"
	"github.com/JJCAR01/UX/internal/view"
)

// DeleteReason is sent with every delete issued from the UI.
const DeleteReason = "Eliminación manual"

var (
	// ErrNotAuthenticated is returned when an action needs a token.
	ErrNotAuthenticated = errors.New("not signed in")
	// ErrEmptySelection is returned by bulk actions with nothing selected.
	ErrEmptySelection = errors.New("no products selected")
	// ErrBusy is returned when the same action is already running.
	ErrBusy = errors.New("operation already in progress")
)

// Remote is the inventory API as used by the controller.
type Remote interface {
	Login(ctx context.Context, creds inventory.Credentials) (*inventory.LoginResponse, error)
	ListProducts(ctx context.Context, token string) ([]inventory.Product, error)
	CreateProduct(ctx context.Context, token string, p inventory.NewProduct) (*inventory.Product, error)
	DeleteProduct(ctx context.Context, token string, id int, reason string) error
}

// Action names a guarded operation.
type Action string

const (
	ActionLogin  Action = "login"
	ActionLoad   Action = "load"
	ActionCreate Action = "create"
	ActionDelete Action = "delete"
	ActionImport Action = "import"
)

// Options configures a controller.
type Options struct {
	PerPage  int
	CacheTTL time.Duration
	Logger   *log.Logger
	Now      func() time.Time
}

// Controller owns all client state. It is safe for concurrent use;
// network calls run outside its lock.
type Controller struct {
	remote   Remote
	logger   *log.Logger
	now      func() time.Time
	validate *validator.Validate

	session *session.Session
	cache   *cache.ProductCache
	staging *importer.Staging

	mu      sync.Mutex
	machine *view.Machine
	perPage int
	busy    map[Action]bool

	// loading serialises list fetches.
	loading chan struct{}
}

// New creates a signed-out controller.
func New(remote Remote, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PerPage <= 0 {
		opts.PerPage = view.DefaultPageSize
	}

	return &Controller{
		remote:   remote,
		logger:   opts.Logger,
		now:      opts.Now,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		session:  &session.Session{},
		cache:    cache.New(opts.CacheTTL),
		staging:  importer.NewStaging(),
		machine:  view.NewMachine(opts.PerPage),
		perPage:  opts.PerPage,
		busy:     make(map[Action]bool),
		loading:  make(chan struct{}, 1),
	}
}

// Session returns the current session.
func (c *Controller) Session() *session.Session {
	return c.session
}

func (c *Controller) begin(a Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy[a] {
		return ErrBusy
	}
	c.busy[a] = true
	return nil
}

func (c *Controller) end(a Action) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.busy, a)
}

// Busy reports whether any guarded action is running.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.busy) > 0
}

// checkAuth ends the session when the server rejected the token.
func (c *Controller) checkAuth(err error) error {
	if errors.Is(err, inventory.ErrUnauthorized) {
		c.logger.Warn("token rejected, ending session")
		c.reset()
	}
	return err
}

func (c *Controller) reset() {
	c.staging.Reset()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.End()
	c.cache.Clear()
	c.machine = view.NewMachine(c.perPage)
}

type loginForm struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// Login authenticates and loads the product list. A failed login leaves
// the controller signed out.
func (c *Controller) Login(ctx context.Context, email, password, team string) (inventory.User, error) {
	if err := c.validate.Struct(loginForm{Email: email, Password: password}); err != nil {
		return inventory.User{}, fmt.Errorf("email and password are required")
	}
	if err := c.begin(ActionLogin); err != nil {
		return inventory.User{}, err
	}
	defer c.end(ActionLogin)

	resp, err := c.remote.Login(ctx, inventory.Credentials{Email: email, Password: password})
	if err != nil {
		c.logger.Warn("login failed", "email", email, "err", err)
		return inventory.User{}, err
	}

	c.reset()
	c.session.Begin(resp.Token, resp.User, team)
	c.logger.Info("signed in", "user", resp.User.Name, "role", resp.User.Role, "team", team)

	if err := c.reload(ctx); err != nil {
		return resp.User, fmt.Errorf("loading products: %w", err)
	}
	return resp.User, nil
}

// Logout discards the session and every piece of cached state.
func (c *Controller) Logout() {
	if u, ok := c.session.User(); ok {
		c.logger.Info("signed out", "user", u.Name)
	}
	c.reset()
}

// LoadProducts replaces the cache with the server list. It does nothing
// when signed out and returns ErrBusy while another reload requested
// through it is running.
func (c *Controller) LoadProducts(ctx context.Context) error {
	if c.session.Token() == "" {
		return nil
	}
	if err := c.begin(ActionLoad); err != nil {
		return err
	}
	defer c.end(ActionLoad)
	return c.reload(ctx)
}

// reload waits for any running fetch and then fetches the list again, so
// the result always includes writes made before the call. A result for a
// session that ended meanwhile is dropped.
func (c *Controller) reload(ctx context.Context) error {
	select {
	case c.loading <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-c.loading }()

	token := c.session.Token()
	if token == "" {
		return nil
	}

	products, err := c.remote.ListProducts(ctx, token)
	if err != nil {
		c.logger.Error("loading products", "err", err)
		if c.session.Token() != token {
			return nil
		}
		return c.checkAuth(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Token() != token {
		c.logger.Debug("dropping products for an ended session", "count", len(products))
		return nil
	}
	c.cache.Replace(products)
	c.machine.Load(products)

	c.logger.Debug("products loaded", "count", len(products))
	return nil
}

// Refresh reloads the products when the cache is stale.
func (c *Controller) Refresh(ctx context.Context) error {
	if !c.cache.Stale() {
		return nil
	}
	return c.LoadProducts(ctx)
}

// CreateProduct validates p, creates it and reloads the list.
func (c *Controller) CreateProduct(ctx context.Context, p inventory.NewProduct) (*inventory.Product, error) {
	if p.Unit == "" {
		p.Unit = inventory.DefaultUnit
	}
	if err := c.validate.Struct(p); err != nil {
		return nil, ValidationError(err)
	}
	token := c.session.Token()
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	if err := c.begin(ActionCreate); err != nil {
		return nil, err
	}
	defer c.end(ActionCreate)

	created, err := c.remote.CreateProduct(ctx, token, p)
	if err != nil {
		c.logger.Error("creating product", "code", p.Code, "err", err)
		return nil, c.checkAuth(err)
	}
	c.logger.Info("product created", "id", created.ID, "code", created.Code)

	c.cache.Invalidate()
	return created, c.reload(ctx)
}

// DeleteProduct removes one product and reloads the list.
func (c *Controller) DeleteProduct(ctx context.Context, id int) error {
	token := c.session.Token()
	if token == "" {
		return ErrNotAuthenticated
	}
	if err := c.begin(ActionDelete); err != nil {
		return err
	}
	defer c.end(ActionDelete)

	if err := c.remote.DeleteProduct(ctx, token, id, DeleteReason); err != nil {
		c.logger.Error("deleting product", "id", id, "err", err)
		return c.checkAuth(err)
	}
	c.logger.Info("product deleted", "id", id)

	c.cache.Invalidate()
	return c.reload(ctx)
}

// DeleteSelected deletes every selected product, one request at a time.
// It stops at the first failure, reloads the list and returns how many
// were deleted. Deleted ids leave the selection; on full success the
// selection is cleared.
func (c *Controller) DeleteSelected(ctx context.Context) (int, error) {
	ids := c.SelectedIDs()
	if len(ids) == 0 {
		return 0, ErrEmptySelection
	}
	token := c.session.Token()
	if token == "" {
		return 0, ErrNotAuthenticated
	}
	if err := c.begin(ActionDelete); err != nil {
		return 0, err
	}
	defer c.end(ActionDelete)

	deleted := 0
	var failure error
	for _, id := range ids {
		if err := c.remote.DeleteProduct(ctx, token, id, DeleteReason); err != nil {
			c.logger.Error("bulk delete stopped", "id", id, "deleted", deleted, "err", err)
			failure = fmt.Errorf("deleting product %d: %w", id, err)
			break
		}
		deleted++
	}

	c.mu.Lock()
	if failure == nil {
		_ = c.machine.Dispatch(view.ClearSelection{})
	} else {
		for _, id := range ids[:deleted] {
			_ = c.machine.Dispatch(view.ToggleSelect{ID: id})
		}
	}
	c.mu.Unlock()

	if failure != nil {
		if errors.Is(failure, inventory.ErrUnauthorized) {
			return deleted, c.checkAuth(failure)
		}
		if deleted > 0 {
			c.cache.Invalidate()
			if err := c.reload(ctx); err != nil {
				c.logger.Warn("reload after partial delete", "err", err)
			}
		}
		return deleted, failure
	}

	c.logger.Info("bulk delete", "count", deleted)
	c.cache.Invalidate()
	return deleted, c.reload(ctx)
}

// Dispatch applies a view intent.
func (c *Controller) Dispatch(intent view.Intent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Dispatch(intent)
}

// SelectedIDs returns the selection in ascending order.
func (c *Controller) SelectedIDs() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Selected()
}

// Products returns the cached product list.
func (c *Controller) Products() []inventory.Product {
	return c.cache.Snapshot()
}

// Snapshot is a consistent read of the view for rendering.
type Snapshot struct {
	State       view.State
	Visible     []inventory.Product
	Page        view.PageInfo
	Categories  []string
	FilterStats string
	Selected    []int
	Stats       view.InventoryStats

	selected map[int]bool
}

// IsSelected reports whether id was selected when the snapshot was taken.
func (s Snapshot) IsSelected(id int) bool {
	return s.selected[id]
}

// Snapshot captures the current view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.machine
	s := Snapshot{
		State:       m.State(),
		Visible:     m.Visible(),
		Page:        m.PageInfo(),
		Categories:  m.Categories(),
		FilterStats: m.FilterStats(),
		Selected:    m.Selected(),
		Stats:       view.ComputeInventoryStats(m.Source()),
		selected:    make(map[int]bool),
	}
	for _, id := range s.Selected {
		s.selected[id] = true
	}
	return s
}

// Dashboard summarises the cached products.
func (c *Controller) Dashboard() view.Dashboard {
	return view.ComputeDashboard(c.cache.Snapshot(), c.now())
}

// Breakdown groups the cached products for the reports screen.
func (c *Controller) Breakdown() view.Breakdown {
	return view.ComputeBreakdown(c.cache.Snapshot())
}

// ValidationError turns validator output into a readable error.
func ValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "gte":
		return fmt.Errorf("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return fmt.Errorf("%s is invalid", fe.Field())
	}
}
