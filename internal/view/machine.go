package view

import (
	"errors"
	"fmt"
	"slices"

	"github.com/JJCAR01/UX/internal/inventory"
)

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 10

// PageSizes are the page sizes offered by the UI.
var PageSizes = []int{10, 25, 50, 100}

// maxPageButtons is the width of the page number window.
const maxPageButtons = 5

// ErrInvalidPageSize is returned for a non-positive page size.
var ErrInvalidPageSize = errors.New("page size must be positive")

// Layout is how the current page is rendered.
type Layout int

const (
	LayoutTable Layout = iota
	LayoutGrid
)

// State is the user-controlled part of the view.
type State struct {
	Search           string
	Category         string
	Stock            StockLevel
	Sort             SortKey
	Page             int
	PerPage          int
	Layout           Layout
	SelectAllChecked bool
}

// Criteria returns the filter rules of the state.
func (s State) Criteria() Criteria {
	return Criteria{Search: s.Search, Category: s.Category, Stock: s.Stock}
}

// Machine holds the view state over a product list and recomputes the
// projection on every intent. It is not safe for concurrent use; the
// owner serialises access.
type Machine struct {
	source   []inventory.Product
	filtered []inventory.Product
	state    State
	selected map[int]struct{}
}

// NewMachine creates an empty machine. A non-positive perPage falls
// back to DefaultPageSize.
func NewMachine(perPage int) *Machine {
	if perPage <= 0 {
		perPage = DefaultPageSize
	}
	return &Machine{
		state: State{
			Sort:    SortName,
			Page:    1,
			PerPage: perPage,
		},
		selected: make(map[int]struct{}),
	}
}

// Load replaces the source list and re-applies filters and sort.
// The selection is kept as is.
func (m *Machine) Load(products []inventory.Product) {
	m.source = make([]inventory.Product, len(products))
	copy(m.source, products)
	m.refilter()
}

// refilter recomputes the filtered list and returns to the first page.
func (m *Machine) refilter() {
	m.filtered = Filter(m.source, m.state.Criteria())
	Sort(m.filtered, m.state.Sort)
	m.state.Page = 1
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	return m.state
}

// Dispatch applies an intent.
func (m *Machine) Dispatch(intent Intent) error {
	if intent == nil {
		return fmt.Errorf("nil intent")
	}
	return intent.apply(m)
}

// TotalPages is ceil(filtered/perPage), never less than one.
func (m *Machine) TotalPages() int {
	n := (len(m.filtered) + m.state.PerPage - 1) / m.state.PerPage
	if n < 1 {
		return 1
	}
	return n
}

// Filtered returns a copy of the filtered, sorted list.
func (m *Machine) Filtered() []inventory.Product {
	out := make([]inventory.Product, len(m.filtered))
	copy(out, m.filtered)
	return out
}

// Source returns a copy of the unfiltered list.
func (m *Machine) Source() []inventory.Product {
	out := make([]inventory.Product, len(m.source))
	copy(out, m.source)
	return out
}

// Visible returns the products of the current page.
func (m *Machine) Visible() []inventory.Product {
	start, end := m.pageBounds()
	out := make([]inventory.Product, end-start)
	copy(out, m.filtered[start:end])
	return out
}

func (m *Machine) pageBounds() (int, int) {
	start := (m.state.Page - 1) * m.state.PerPage
	if start > len(m.filtered) {
		start = len(m.filtered)
	}
	end := start + m.state.PerPage
	if end > len(m.filtered) {
		end = len(m.filtered)
	}
	return start, end
}

// Categories returns the categories present in the source list.
func (m *Machine) Categories() []string {
	return Categories(m.source)
}

// FilterStats describes how much of the list the filters let through.
func (m *Machine) FilterStats() string {
	if len(m.filtered) == len(m.source) {
		return fmt.Sprintf("Showing all %d products", len(m.source))
	}
	return fmt.Sprintf("Showing %d of %d products", len(m.filtered), len(m.source))
}

// PageInfo summarises pagination for rendering.
type PageInfo struct {
	Page       int
	TotalPages int
	PerPage    int
	Shown      int
	Filtered   int
	Total      int
	HasPrev    bool
	HasNext    bool
	Numbers    []int
}

// PageInfo returns pagination details for the current page.
func (m *Machine) PageInfo() PageInfo {
	total := m.TotalPages()
	start, end := m.pageBounds()
	return PageInfo{
		Page:       m.state.Page,
		TotalPages: total,
		PerPage:    m.state.PerPage,
		Shown:      end - start,
		Filtered:   len(m.filtered),
		Total:      len(m.source),
		HasPrev:    m.state.Page > 1,
		HasNext:    m.state.Page < total,
		Numbers:    PageWindow(m.state.Page, total),
	}
}

// PageWindow returns at most five page numbers around current.
func PageWindow(current, total int) []int {
	start := max(1, current-2)
	end := min(total, start+maxPageButtons-1)
	if end-start < maxPageButtons-1 {
		start = max(1, end-maxPageButtons+1)
	}

	pages := make([]int, 0, maxPageButtons)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// IsSelected reports whether id is in the selection.
func (m *Machine) IsSelected(id int) bool {
	_, ok := m.selected[id]
	return ok
}

// Selected returns the selected ids in ascending order.
func (m *Machine) Selected() []int {
	ids := make([]int, 0, len(m.selected))
	for id := range m.selected {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// SelectedCount returns the size of the selection.
func (m *Machine) SelectedCount() int {
	return len(m.selected)
}

// Intent is a typed user action applied by Dispatch.
type Intent interface {
	apply(m *Machine) error
}

// SetSearch changes the search term.
type SetSearch struct{ Term string }

// SetCategory changes the category filter; empty means all.
type SetCategory struct{ Category string }

// SetStockFilter changes the stock band filter.
type SetStockFilter struct{ Level StockLevel }

// SetSort changes the ordering.
type SetSort struct{ Key SortKey }

// GoToPage moves to a page; out of range pages are ignored.
type GoToPage struct{ Page int }

// NextPage moves forward one page if possible.
type NextPage struct{}

// PrevPage moves back one page if possible.
type PrevPage struct{}

// SetPageSize changes the number of items per page.
type SetPageSize struct{ Size int }

// ToggleSelect adds or removes one product from the selection.
type ToggleSelect struct{ ID int }

// SelectPage adds (Checked) or removes every product on the current page.
type SelectPage struct{ Checked bool }

// ClearSelection empties the selection and unchecks the master checkbox.
type ClearSelection struct{}

// ClearFilters resets search, category, stock and sort.
type ClearFilters struct{}

// SetLayout switches between table and grid rendering.
type SetLayout struct{ Layout Layout }

func (i SetSearch) apply(m *Machine) error {
	m.state.Search = i.Term
	m.refilter()
	return nil
}

func (i SetCategory) apply(m *Machine) error {
	m.state.Category = i.Category
	m.refilter()
	return nil
}

func (i SetStockFilter) apply(m *Machine) error {
	if _, ok := ParseStockLevel(string(i.Level)); !ok {
		return fmt.Errorf("unknown stock level %q", i.Level)
	}
	m.state.Stock = i.Level
	m.refilter()
	return nil
}

func (i SetSort) apply(m *Machine) error {
	m.state.Sort = i.Key
	m.refilter()
	return nil
}

func (i GoToPage) apply(m *Machine) error {
	if i.Page < 1 || i.Page > m.TotalPages() {
		return nil
	}
	m.state.Page = i.Page
	return nil
}

func (NextPage) apply(m *Machine) error {
	return GoToPage{Page: m.state.Page + 1}.apply(m)
}

func (PrevPage) apply(m *Machine) error {
	return GoToPage{Page: m.state.Page - 1}.apply(m)
}

func (i SetPageSize) apply(m *Machine) error {
	if i.Size <= 0 {
		return ErrInvalidPageSize
	}
	m.state.PerPage = i.Size
	m.state.Page = 1
	return nil
}

func (i ToggleSelect) apply(m *Machine) error {
	if _, ok := m.selected[i.ID]; ok {
		delete(m.selected, i.ID)
	} else {
		m.selected[i.ID] = struct{}{}
	}
	return nil
}

func (i SelectPage) apply(m *Machine) error {
	start, end := m.pageBounds()
	for _, p := range m.filtered[start:end] {
		if i.Checked {
			m.selected[p.ID] = struct{}{}
		} else {
			delete(m.selected, p.ID)
		}
	}
	m.state.SelectAllChecked = i.Checked
	return nil
}

func (ClearSelection) apply(m *Machine) error {
	m.selected = make(map[int]struct{})
	m.state.SelectAllChecked = false
	return nil
}

func (ClearFilters) apply(m *Machine) error {
	m.state.Search = ""
	m.state.Category = ""
	m.state.Stock = StockAny
	m.state.Sort = SortName
	m.refilter()
	return nil
}

func (i SetLayout) apply(m *Machine) error {
	m.state.Layout = i.Layout
	return nil
}
