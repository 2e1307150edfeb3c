package importer

import (
	"bytes"
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JJCAR01/UX/internal/inventory"
)

type recorder struct {
	mu      sync.Mutex
	created []inventory.NewProduct
	failAt  int
	started chan struct{}
	block   chan struct{}
	once    sync.Once
}

func (r *recorder) CreateProduct(ctx context.Context, p inventory.NewProduct) error {
	if r.started != nil {
		r.once.Do(func() { close(r.started) })
	}
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAt > 0 && len(r.created)+1 == r.failAt {
		return errors.New("server exploded")
	}
	r.created = append(r.created, p)
	return nil
}

func xlsxBytes(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseXLSX(t *testing.T) {
	data := xlsxBytes(t, [][]any{
		{"code", "name", "description", "category", "quantity"},
		{"A", "Alpha", "first", "Oficina", 5},
		{"", "NoCode", "", "Oficina", 3},
		{"C", "Zero", "", "Oficina", 0},
	})

	rows, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, StatusValid, rows[0].Status)
	assert.Equal(t, 2, rows[0].Row)
	assert.Equal(t, "first", rows[0].Description)
	assert.Equal(t, 5, rows[0].Quantity)

	assert.Equal(t, StatusError, rows[1].Status)
	assert.Contains(t, rows[1].Problems, "missing code")

	assert.Equal(t, StatusError, rows[2].Status)
	assert.Contains(t, rows[2].Problems, "missing quantity")
}

func TestParseCSVHeadersCaseInsensitive(t *testing.T) {
	data := []byte("\xef\xbb\xbfCode,NAME,Quantity,extra\nX-1,Widget,12abc,ignored\n,,,\nX-2,Gadget,-3,\n")

	rows, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "X-1", rows[0].Code)
	assert.Equal(t, 12, rows[0].Quantity)
	assert.Empty(t, rows[0].Category)
	assert.True(t, rows[0].Valid())

	// Negative quantities are non-zero and therefore valid
	assert.Equal(t, 4, rows[1].Row)
	assert.Equal(t, -3, rows[1].Quantity)
	assert.True(t, rows[1].Valid())
}

func TestParseMissingQuantityColumn(t *testing.T) {
	rows, err := Parse([]byte("code,name\nA,Alpha\n"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, StatusError, rows[0].Status)
}

func TestParseBrokenFiles(t *testing.T) {
	_, err := Parse([]byte("PK\x03\x04not really a zip"))
	assert.ErrorIs(t, err, ErrParse)

	_, err = Parse([]byte("code,name\n\"unterminated,row\n"))
	assert.ErrorIs(t, err, ErrParse)

	rows, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseQuantity(t *testing.T) {
	cases := map[string]int{
		"":       0,
		"abc":    0,
		"42":     42,
		" 7 ":    7,
		"12.9":   12,
		"-4":     -4,
		"+8kg":   8,
		"3e2":    3,
		"0012":   12,
		"- 5":    0,
		"  -0  ": 0,

		"9223372036854775808":   math.MaxInt,
		"18446744073709551616":  math.MaxInt,
		"-99999999999999999999": -math.MaxInt,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseQuantity(in), "input %q", in)
	}
}

func TestParseOverlongQuantityStaysPositive(t *testing.T) {
	rows, err := Parse([]byte("code,name,quantity\nA,Alpha,9223372036854775808\nB,Beta,18446744073709551616\n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	for _, r := range rows {
		assert.True(t, r.Valid(), "row %d: %v", r.Row, r.Problems)
		assert.Equal(t, math.MaxInt, r.Quantity)
	}
}

func TestTemplateRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTemplate(&buf))

	rows, err := Parse(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "TORN-001", rows[0].Code)
	assert.Equal(t, 150, rows[0].Quantity)
	assert.True(t, rows[0].Valid())
}

func stagedRows() []Row {
	rows := []Row{
		{Row: 2, Code: "A", Name: "Alpha", Quantity: 1},
		{Row: 3, Code: "", Name: "Broken", Quantity: 1},
		{Row: 4, Code: "B", Name: "Beta", Quantity: 2},
		{Row: 5, Code: "C", Name: "Gamma", Quantity: 3},
	}
	for i := range rows {
		classify(&rows[i])
	}
	return rows
}

func TestStagingSummary(t *testing.T) {
	s := NewStaging()
	s.Stage(stagedRows())

	assert.Equal(t, Summary{Total: 4, Valid: 3, Errors: 1}, s.Summary())
	assert.True(t, s.Staged())

	s.Cancel()
	assert.Equal(t, Summary{}, s.Summary())
	assert.False(t, s.Staged())
}

func TestStagingConfirmCreatesValidRowsOnly(t *testing.T) {
	s := NewStaging()
	s.Stage(stagedRows())
	rec := &recorder{}

	n, err := s.Confirm(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.Len(t, rec.created, 3)
	for _, p := range rec.created {
		assert.Equal(t, inventory.DefaultUnit, p.Unit)
	}
	assert.Equal(t, []string{"A", "B", "C"}, []string{rec.created[0].Code, rec.created[1].Code, rec.created[2].Code})
	assert.False(t, s.Staged(), "staging is cleared after success")
}

func TestStagingConfirmPartialFailure(t *testing.T) {
	s := NewStaging()
	s.Stage(stagedRows())
	rec := &recorder{failAt: 2}

	n, err := s.Confirm(context.Background(), rec)
	assert.Equal(t, 1, n)

	var cerr *ConfirmError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 1, cerr.Created)
	assert.Equal(t, 4, cerr.Row)
	assert.True(t, s.Staged(), "rows stay staged after a failure")
}

func TestStagingConfirmNothingValid(t *testing.T) {
	s := NewStaging()
	s.Stage([]Row{{Row: 2, Status: StatusError}})

	_, err := s.Confirm(context.Background(), &recorder{})
	assert.ErrorIs(t, err, ErrNothingStaged)
}

func TestStagingConfirmInFlight(t *testing.T) {
	s := NewStaging()
	s.Stage(stagedRows())
	rec := &recorder{started: make(chan struct{}), block: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		_, err := s.Confirm(context.Background(), rec)
		done <- err
	}()

	select {
	case <-rec.started:
	case <-time.After(time.Second):
		t.Fatal("first confirm never started")
	}

	noop := CreatorFunc(func(context.Context, inventory.NewProduct) error { return nil })
	_, err := s.Confirm(context.Background(), noop)
	assert.ErrorIs(t, err, ErrInFlight)

	close(rec.block)
	require.NoError(t, <-done)
	assert.Len(t, rec.created, 3)
}

func TestStagingConfirmCancelledContext(t *testing.T) {
	s := NewStaging()
	s.Stage(stagedRows())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := s.Confirm(ctx, &recorder{})
	assert.Zero(t, n)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStagingLockedWhileConfirming(t *testing.T) {
	s := NewStaging()
	require.NoError(t, s.Stage(stagedRows()))
	rec := &recorder{started: make(chan struct{}), block: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		_, err := s.Confirm(context.Background(), rec)
		done <- err
	}()

	select {
	case <-rec.started:
	case <-time.After(time.Second):
		t.Fatal("confirm never started")
	}

	fresh := []Row{{Row: 2, Code: "Z", Name: "Zeta", Quantity: 1, Status: StatusValid}}
	assert.ErrorIs(t, s.Stage(fresh), ErrInFlight)
	assert.ErrorIs(t, s.Cancel(), ErrInFlight)
	assert.Equal(t, 4, s.Summary().Total)

	close(rec.block)
	require.NoError(t, <-done)
	assert.False(t, s.Staged())

	require.NoError(t, s.Stage(fresh))
	assert.Equal(t, Summary{Total: 1, Valid: 1}, s.Summary())
}

func TestStagingResetDuringConfirm(t *testing.T) {
	s := NewStaging()
	require.NoError(t, s.Stage(stagedRows()))
	rec := &recorder{started: make(chan struct{}), block: make(chan struct{})}

	done := make(chan error, 1)
	go func() {
		_, err := s.Confirm(context.Background(), rec)
		done <- err
	}()
	<-rec.started

	s.Reset()
	assert.False(t, s.Staged())

	close(rec.block)
	require.NoError(t, <-done)
	assert.False(t, s.Staged())
	require.NoError(t, s.Stage(stagedRows()), "staging is usable once confirm returns")
}
