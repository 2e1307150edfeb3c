// Package importer reads product spreadsheets, classifies their rows and
// commits the valid ones to the inventory API.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
)

// Column names expected in the header row.
const (
	ColCode        = "code"
	ColName        = "name"
	ColDescription = "description"
	ColCategory    = "category"
	ColQuantity    = "quantity"
)

// Columns lists the import columns in template order.
var Columns = []string{ColCode, ColName, ColDescription, ColCategory, ColQuantity}

// ErrParse is returned when the file cannot be read as a spreadsheet.
var ErrParse = errors.New("could not parse import file")

var zipMagic = []byte("PK\x03\x04")

// Status is the classification of an import row.
type Status string

const (
	StatusValid Status = "valid"
	StatusError Status = "error"
)

// Row is one data row of an import file.
type Row struct {
	Row         int
	Code        string `validate:"required"`
	Name        string `validate:"required"`
	Description string
	Category    string
	Quantity    int `validate:"required"`
	Status      Status
	Problems    []string
}

// Valid reports whether the row will be committed.
func (r Row) Valid() bool {
	return r.Status == StatusValid
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// classify sets Status and Problems. A zero quantity counts as missing.
func classify(r *Row) {
	r.Status = StatusValid
	r.Problems = nil

	err := validate.Struct(r)
	if err == nil {
		return
	}

	r.Status = StatusError
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		r.Problems = append(r.Problems, err.Error())
		return
	}
	for _, fe := range verrs {
		r.Problems = append(r.Problems, "missing "+strings.ToLower(fe.Field()))
	}
}

// Parse reads an XLSX or CSV file into classified rows. The first row of
// the first sheet is the header; unknown columns are ignored and blank
// rows skipped.
func Parse(data []byte) ([]Row, error) {
	var (
		records [][]string
		err     error
	)
	if bytes.HasPrefix(data, zipMagic) {
		records, err = readXLSX(data)
	} else {
		records, err = readCSV(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(records) == 0 {
		return []Row{}, nil
	}

	index := headerIndex(records[0])
	cell := func(rec []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	rows := make([]Row, 0, len(records)-1)
	for n, rec := range records[1:] {
		if blank(rec) {
			continue
		}
		r := Row{
			Row:         n + 2,
			Code:        cell(rec, ColCode),
			Name:        cell(rec, ColName),
			Description: cell(rec, ColDescription),
			Category:    cell(rec, ColCategory),
			Quantity:    ParseQuantity(cell(rec, ColQuantity)),
		}
		classify(&r)
		rows = append(rows, r)
	}
	return rows, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var out [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	return index
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseQuantity reads the leading integer of s, ignoring anything after
// it. Values without a leading integer are 0; values past the int range
// are clamped to it.
func ParseQuantity(s string) int {
	s = strings.TrimSpace(s)

	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		d := int(c - '0')
		if n > (math.MaxInt-d)/10 {
			n = math.MaxInt
			break
		}
		n = n*10 + d
	}
	if neg {
		return -n
	}
	return n
}
