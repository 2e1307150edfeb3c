package view

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JJCAR01/UX/internal/inventory"
)

func numbered(n int) []inventory.Product {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]inventory.Product, n)
	for i := range out {
		out[i] = inventory.Product{
			ID:          i + 1,
			Code:        fmt.Sprintf("P-%03d", i+1),
			Name:        fmt.Sprintf("Producto %02d", i+1),
			Category:    "Oficina",
			Quantity:    i * 7,
			LastUpdated: inventory.Timestamp{Time: base.Add(time.Duration(i) * time.Hour)},
		}
	}
	return out
}

func ids(products []inventory.Product) []int {
	out := make([]int, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

func TestMachineDefaults(t *testing.T) {
	m := NewMachine(0)
	st := m.State()

	assert.Equal(t, DefaultPageSize, st.PerPage)
	assert.Equal(t, 1, st.Page)
	assert.Equal(t, SortName, st.Sort)
	assert.Equal(t, LayoutTable, st.Layout)
	assert.Equal(t, 1, m.TotalPages())
	assert.Empty(t, m.Visible())
	assert.Equal(t, "Showing all 0 products", m.FilterStats())
}

func TestMachineTwelveProductsTwoPages(t *testing.T) {
	m := NewMachine(10)
	m.Load(numbered(12))

	info := m.PageInfo()
	assert.Equal(t, 2, info.TotalPages)
	assert.Equal(t, 10, info.Shown)
	assert.False(t, info.HasPrev)
	assert.True(t, info.HasNext)
	assert.Equal(t, []int{1, 2}, info.Numbers)

	require.NoError(t, m.Dispatch(NextPage{}))
	info = m.PageInfo()
	assert.Equal(t, 2, info.Page)
	assert.Equal(t, 2, info.Shown)
	assert.Equal(t, []int{11, 12}, ids(m.Visible()))
	assert.True(t, info.HasPrev)
	assert.False(t, info.HasNext)

	// Already on the last page
	require.NoError(t, m.Dispatch(NextPage{}))
	assert.Equal(t, 2, m.State().Page)
}

func TestMachineGoToPageOutOfRange(t *testing.T) {
	m := NewMachine(10)
	m.Load(numbered(12))

	for _, page := range []int{0, -1, 3, 100} {
		require.NoError(t, m.Dispatch(GoToPage{Page: page}))
		assert.Equal(t, 1, m.State().Page, "page %d", page)
	}

	require.NoError(t, m.Dispatch(GoToPage{Page: 2}))
	assert.Equal(t, 2, m.State().Page)

	require.NoError(t, m.Dispatch(PrevPage{}))
	require.NoError(t, m.Dispatch(PrevPage{}))
	assert.Equal(t, 1, m.State().Page)
}

func TestMachineIntentsResetPage(t *testing.T) {
	intents := []Intent{
		SetSearch{Term: "producto"},
		SetCategory{Category: "Oficina"},
		SetStockFilter{Level: StockAny},
		SetSort{Key: SortCode},
		SetPageSize{Size: 5},
		ClearFilters{},
	}

	for _, intent := range intents {
		m := NewMachine(5)
		m.Load(numbered(30))
		require.NoError(t, m.Dispatch(GoToPage{Page: 3}))
		require.Equal(t, 3, m.State().Page)

		require.NoError(t, m.Dispatch(intent))
		assert.Equal(t, 1, m.State().Page, "%T", intent)
	}
}

func TestMachinePageSize(t *testing.T) {
	m := NewMachine(10)
	m.Load(numbered(60))

	assert.ErrorIs(t, m.Dispatch(SetPageSize{Size: 0}), ErrInvalidPageSize)
	assert.ErrorIs(t, m.Dispatch(SetPageSize{Size: -3}), ErrInvalidPageSize)
	assert.Equal(t, 10, m.State().PerPage)

	for _, size := range PageSizes {
		require.NoError(t, m.Dispatch(SetPageSize{Size: size}))
		want := (60 + size - 1) / size
		assert.Equal(t, want, m.TotalPages(), "size %d", size)
		assert.LessOrEqual(t, len(m.Visible()), size)
	}
}

func TestMachineTotalPagesNeverZero(t *testing.T) {
	m := NewMachine(10)
	m.Load(numbered(5))
	require.NoError(t, m.Dispatch(SetSearch{Term: "nothing matches this"}))

	assert.Empty(t, m.Filtered())
	assert.Equal(t, 1, m.TotalPages())
	assert.Equal(t, 0, m.PageInfo().Shown)
	assert.False(t, m.PageInfo().HasNext)
	assert.Equal(t, "Showing 0 of 5 products", m.FilterStats())
}

func TestMachineToggleSelect(t *testing.T) {
	m := NewMachine(10)
	m.Load(numbered(3))

	require.NoError(t, m.Dispatch(ToggleSelect{ID: 2}))
	assert.True(t, m.IsSelected(2))
	assert.Equal(t, 1, m.SelectedCount())

	require.NoError(t, m.Dispatch(ToggleSelect{ID: 2}))
	assert.False(t, m.IsSelected(2))
	assert.Equal(t, 0, m.SelectedCount())
}

func TestMachineSelectPageOnlyCurrentPage(t *testing.T) {
	m := NewMachine(10)
	m.Load(numbered(12))

	require.NoError(t, m.Dispatch(SelectPage{Checked: true}))
	assert.Equal(t, 10, m.SelectedCount())
	assert.True(t, m.State().SelectAllChecked)
	assert.False(t, m.IsSelected(11))

	require.NoError(t, m.Dispatch(NextPage{}))
	require.NoError(t, m.Dispatch(ToggleSelect{ID: 12}))
	assert.Equal(t, 11, m.SelectedCount())

	require.NoError(t, m.Dispatch(PrevPage{}))
	require.NoError(t, m.Dispatch(SelectPage{Checked: false}))
	assert.Equal(t, []int{12}, m.Selected())
	assert.False(t, m.State().SelectAllChecked)
}

func TestMachineSelectionSurvivesFiltering(t *testing.T) {
	m := NewMachine(10)
	m.Load(numbered(12))

	require.NoError(t, m.Dispatch(ToggleSelect{ID: 1}))
	require.NoError(t, m.Dispatch(ToggleSelect{ID: 12}))
	require.NoError(t, m.Dispatch(SetSearch{Term: "Producto 01"}))

	assert.Equal(t, []int{1}, ids(m.Filtered()))
	assert.Equal(t, []int{1, 12}, m.Selected())

	// Reload keeps ids even when they disappear from the source
	m.Load(numbered(5))
	assert.Equal(t, []int{1, 12}, m.Selected())
}

func TestMachineClearSelection(t *testing.T) {
	m := NewMachine(10)
	m.Load(numbered(4))
	require.NoError(t, m.Dispatch(SelectPage{Checked: true}))

	require.NoError(t, m.Dispatch(ClearSelection{}))
	assert.Zero(t, m.SelectedCount())
	assert.False(t, m.State().SelectAllChecked)
}

func TestMachineClearFilters(t *testing.T) {
	m := NewMachine(10)
	m.Load(numbered(12))

	require.NoError(t, m.Dispatch(SetSearch{Term: "03"}))
	require.NoError(t, m.Dispatch(SetCategory{Category: "Oficina"}))
	require.NoError(t, m.Dispatch(SetStockFilter{Level: StockNormal}))
	require.NoError(t, m.Dispatch(SetSort{Key: SortQuantityDesc}))

	require.NoError(t, m.Dispatch(ClearFilters{}))
	st := m.State()
	assert.Empty(t, st.Search)
	assert.Empty(t, st.Category)
	assert.Equal(t, StockAny, st.Stock)
	assert.Equal(t, SortName, st.Sort)
	assert.Len(t, m.Filtered(), 12)
}

func TestMachineRejectsUnknownStockLevel(t *testing.T) {
	m := NewMachine(10)
	err := m.Dispatch(SetStockFilter{Level: "plenty"})
	assert.Error(t, err)
	assert.Equal(t, StockAny, m.State().Stock)
}

func TestMachineSetLayoutKeepsPage(t *testing.T) {
	m := NewMachine(10)
	m.Load(numbered(12))
	require.NoError(t, m.Dispatch(NextPage{}))

	require.NoError(t, m.Dispatch(SetLayout{Layout: LayoutGrid}))
	assert.Equal(t, LayoutGrid, m.State().Layout)
	assert.Equal(t, 2, m.State().Page)
}

func TestPageWindow(t *testing.T) {
	tests := []struct {
		current, total int
		want           []int
	}{
		{1, 1, []int{1}},
		{1, 3, []int{1, 2, 3}},
		{1, 10, []int{1, 2, 3, 4, 5}},
		{5, 10, []int{3, 4, 5, 6, 7}},
		{9, 10, []int{6, 7, 8, 9, 10}},
		{10, 10, []int{6, 7, 8, 9, 10}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_of_%d", tt.current, tt.total), func(t *testing.T) {
			assert.Equal(t, tt.want, PageWindow(tt.current, tt.total))
		})
	}
}
