// Package export writes product lists as XLSX workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/JJCAR01/UX/internal/inventory"
)

// Sheet names and filename prefixes for the two export kinds.
const (
	SheetInventory = "Inventario"
	SheetSelected  = "Productos Seleccionados"

	PrefixInventory = "inventario"
	PrefixSelected  = "productos_seleccionados"
)

// DateLayout is the format of the last update column.
const DateLayout = "02/01/2006"

// Headers are the column titles of an exported sheet.
var Headers = []string{
	"Código",
	"Nombre",
	"Descripción",
	"Categoría",
	"Cantidad",
	"Unidad",
	"Última actualización",
}

var columnWidths = []float64{14, 30, 40, 16, 10, 12, 20}

// Filename returns "<prefix>_YYYY-MM-DD.xlsx" for the day of now.
func Filename(prefix string, now time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", prefix, now.Format("2006-01-02"))
}

// Write renders products into a single sheet workbook and writes it to w.
func Write(w io.Writer, sheet string, products []inventory.Product) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, p := range products {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{p.Code, p.Name, p.Description, p.Category, p.Quantity, unit(p), date(p.LastUpdated)}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("sizing column %s: %w", col, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func unit(p inventory.Product) string {
	if p.Unit == "" {
		return inventory.DefaultUnit
	}
	return p.Unit
}

func date(ts inventory.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(DateLayout)
}
