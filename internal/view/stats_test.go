package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JJCAR01/UX/internal/inventory"
)

func TestEstimatedUnitPrice(t *testing.T) {
	assert.InDelta(t, 2.50, EstimatedUnitPrice("Ferretería"), 1e-9)
	assert.InDelta(t, 15.75, EstimatedUnitPrice("Electrónica"), 1e-9)
	assert.InDelta(t, 10.00, EstimatedUnitPrice("Jardinería"), 1e-9)
}

func TestComputeInventoryStats(t *testing.T) {
	s := ComputeInventoryStats(catalog())

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 1, s.Critical)
	// 150*2.50 + 45*15.75 + 9*8.20 + 4*5.30 + 10*8.20
	assert.InDelta(t, 375+708.75+73.8+21.2+82, s.Value, 1e-6)
}

func TestComputeDashboard(t *testing.T) {
	now := time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC)
	products := append(catalog(), inventory.Product{ID: 6, Code: "X", Quantity: 70})

	d := ComputeDashboard(products, now)

	assert.Equal(t, 6, d.Total)
	assert.Equal(t, 1, d.UpdatedToday)
	assert.Equal(t, 2, d.LowStock)
	require.Len(t, d.Recent, 3)
	assert.Equal(t, []int{2, 5, 4}, ids(d.Recent))
}

func TestComputeDashboardEmpty(t *testing.T) {
	d := ComputeDashboard(nil, time.Now())
	assert.Zero(t, d.Total)
	assert.Empty(t, d.Recent)
}

func TestComputeBreakdown(t *testing.T) {
	b := ComputeBreakdown(catalog())

	assert.Equal(t, 1, b.ByLevel[StockCritical])
	assert.Equal(t, 1, b.ByLevel[StockLow])
	assert.Equal(t, 2, b.ByLevel[StockNormal])
	assert.Equal(t, 1, b.ByLevel[StockHigh])

	require.Len(t, b.ByCategory, 4)
	assert.Equal(t, "Oficina", b.ByCategory[0].Category)
	assert.Equal(t, 2, b.ByCategory[0].Products)
	assert.Equal(t, 19, b.ByCategory[0].Units)
	assert.Equal(t, "Electrónica", b.ByCategory[1].Category)
}
