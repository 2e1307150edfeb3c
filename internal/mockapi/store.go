package mockapi

import (
	"slices"
	"sync"
	"time"

	"github.com/JJCAR01/UX/internal/inventory"
)

// Deletion records a product removed through the API.
type Deletion struct {
	Product inventory.Product
	Reason  string
	By      string
	At      time.Time
}

// Store is an in-memory product table.
type Store struct {
	mu        sync.Mutex
	products  []inventory.Product
	nextID    int
	deletions []Deletion
	now       func() time.Time
}

// NewStore creates a store holding seed. Ids continue after the
// largest seeded id.
func NewStore(seed []inventory.Product, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	s := &Store{
		products: slices.Clone(seed),
		nextID:   1,
		now:      now,
	}
	for _, p := range seed {
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
	}
	return s
}

// List returns every product in insertion order.
func (s *Store) List() []inventory.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.products)
}

// Create assigns an id and timestamp and stores the product.
func (s *Store) Create(np inventory.NewProduct) inventory.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	unit := np.Unit
	if unit == "" {
		unit = inventory.DefaultUnit
	}
	p := inventory.Product{
		ID:          s.nextID,
		Code:        np.Code,
		Name:        np.Name,
		Description: np.Description,
		Category:    np.Category,
		Quantity:    np.Quantity,
		Unit:        unit,
		LastUpdated: inventory.Timestamp{Time: s.now().UTC().Truncate(time.Second)},
	}
	s.nextID++
	s.products = append(s.products, p)
	return p
}

// Delete removes a product and records why. It returns false when the
// id does not exist.
func (s *Store) Delete(id int, reason, by string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.products, func(p inventory.Product) bool { return p.ID == id })
	if i < 0 {
		return false
	}
	s.deletions = append(s.deletions, Deletion{
		Product: s.products[i],
		Reason:  reason,
		By:      by,
		At:      s.now(),
	})
	s.products = slices.Delete(s.products, i, i+1)
	return true
}

// Deletions returns the deletion log.
func (s *Store) Deletions() []Deletion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.deletions)
}

// SampleProducts is the catalogue a fresh mock server starts with.
func SampleProducts() []inventory.Product {
	ts := func(s string) inventory.Timestamp {
		t, _ := inventory.ParseTimestamp(s)
		return t
	}
	return []inventory.Product{
		{ID: 1, Code: "TORN-001", Name: "Tornillo M8 x 20mm", Description: "Tornillo hexagonal galvanizado", Category: "Ferretería", Quantity: 150, Unit: "unidades", LastUpdated: ts("30/08/2025 14:30")},
		{ID: 2, Code: "CABLE-002", Name: "Cable UTP Cat 6", Description: "Cable de red categoría 6", Category: "Electrónica", Quantity: 45, Unit: "metros", LastUpdated: ts("30/08/2025 12:15")},
		{ID: 3, Code: "PAPEL-003", Name: "Papel Bond A4", Description: "Papel blanco 75g para impresión", Category: "Oficina", Quantity: 25, Unit: "paquetes", LastUpdated: ts("29/08/2025 16:45")},
		{ID: 4, Code: "LIMP-004", Name: "Desinfectante multiusos", Description: "<p>Botella de <strong>1 litro</strong></p>", Category: "Limpieza", Quantity: 8, Unit: "botellas", LastUpdated: ts("28/08/2025 09:10")},
		{ID: 5, Code: "ELEC-005", Name: "Multímetro digital", Description: "Medición de voltaje y corriente", Category: "Electrónica", Quantity: 3, Unit: "unidades", LastUpdated: ts("27/08/2025 11:00")},
	}
}
