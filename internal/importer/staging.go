package importer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JJCAR01/UX/internal/inventory"
)

var (
	// ErrInFlight is returned when Confirm is already running, including by
	// Stage and Cancel while it runs.
	ErrInFlight = errors.New("import already in progress")
	// ErrNothingStaged is returned by Confirm when no rows are valid.
	ErrNothingStaged = errors.New("no valid rows to import")
)

// Creator creates one product on the remote service.
type Creator interface {
	CreateProduct(ctx context.Context, p inventory.NewProduct) error
}

// CreatorFunc adapts a function to Creator.
type CreatorFunc func(ctx context.Context, p inventory.NewProduct) error

func (f CreatorFunc) CreateProduct(ctx context.Context, p inventory.NewProduct) error {
	return f(ctx, p)
}

// ConfirmError reports an import that stopped part way. Rows created
// before the failure stay on the server.
type ConfirmError struct {
	Created int
	Row     int
	Err     error
}

func (e *ConfirmError) Error() string {
	return fmt.Sprintf("import stopped at row %d after %d created: %v", e.Row, e.Created, e.Err)
}

func (e *ConfirmError) Unwrap() error {
	return e.Err
}

// Summary counts the staged rows.
type Summary struct {
	Total  int
	Valid  int
	Errors int
}

// Staging holds parsed rows until they are confirmed or cancelled.
type Staging struct {
	mu       sync.Mutex
	rows     []Row
	inFlight bool
	gen      int
}

// NewStaging returns an empty staging area.
func NewStaging() *Staging {
	return &Staging{}
}

// Stage replaces the staged rows. It fails while Confirm is running.
func (s *Staging) Stage(rows []Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrInFlight
	}
	s.rows = append([]Row(nil), rows...)
	s.gen++
	return nil
}

// Rows returns a copy of the staged rows.
func (s *Staging) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Row(nil), s.rows...)
}

// Summary counts staged rows by status.
func (s *Staging) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := Summary{Total: len(s.rows)}
	for _, r := range s.rows {
		if r.Valid() {
			sum.Valid++
		} else {
			sum.Errors++
		}
	}
	return sum
}

// Staged reports whether there are rows awaiting confirmation.
func (s *Staging) Staged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows) > 0
}

// Cancel discards the staged rows. It fails while Confirm is running.
func (s *Staging) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return ErrInFlight
	}
	s.rows = nil
	s.gen++
	return nil
}

// Reset discards the staged rows even while Confirm is running. A running
// Confirm then leaves staging untouched when it finishes.
func (s *Staging) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = nil
	s.gen++
}

// Confirm creates every valid row in order, one request at a time, and
// returns how many were created. The first failure stops the import and
// leaves the rows staged; there is no rollback. On success staging is
// cleared.
func (s *Staging) Confirm(ctx context.Context, c Creator) (int, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return 0, ErrInFlight
	}
	var valid []Row
	for _, r := range s.rows {
		if r.Valid() {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		s.mu.Unlock()
		return 0, ErrNothingStaged
	}
	s.inFlight = true
	gen := s.gen
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	created := 0
	for _, r := range valid {
		if err := ctx.Err(); err != nil {
			return created, &ConfirmError{Created: created, Row: r.Row, Err: err}
		}
		if err := c.CreateProduct(ctx, r.NewProduct()); err != nil {
			return created, &ConfirmError{Created: created, Row: r.Row, Err: err}
		}
		created++
	}

	s.mu.Lock()
	if s.gen == gen {
		s.rows = nil
		s.gen++
	}
	s.mu.Unlock()

	return created, nil
}

// NewProduct converts the row into a create request.
func (r Row) NewProduct() inventory.NewProduct {
	return inventory.NewProduct{
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Quantity:    r.Quantity,
		Unit:        inventory.DefaultUnit,
	}
}
